package domain

import (
	"encoding/json"
	"time"
)

// Placeholders rendered for records whose enrichment has not completed yet
const (
	PendingCategory = "Processing..."
	PendingSummary  = "Generating AI summary..."
)

// UserScope is the mailbox address that owns a collection of records
type UserScope string

// UserScopeInfo is the lazily created document describing a UserScope
type UserScopeInfo struct {
	Email      string    `json:"email"`
	LastSynced time.Time `json:"last_synced"`
}

// Enrichment is the result of classifying and summarizing a message
type Enrichment struct {
	Category Category
	Summary  string
}

// MessageRecord is one ingested mail item.
// A nil Enrichment means the record is still unenriched.
type MessageRecord struct {
	ID         string
	ThreadID   string
	Sender     string
	Subject    string
	Snippet    string
	Body       string
	Timestamp  int64
	Enrichment *Enrichment
}

// NewUnenrichedRecord builds a record in its initial state
func NewUnenrichedRecord(id, threadID, sender, subject, snippet, body string, timestamp int64) *MessageRecord {
	return &MessageRecord{
		ID:        id,
		ThreadID:  threadID,
		Sender:    sender,
		Subject:   subject,
		Snippet:   snippet,
		Body:      body,
		Timestamp: timestamp,
	}
}

// Processed reports whether enrichment has completed
func (m *MessageRecord) Processed() bool {
	return m.Enrichment != nil
}

// CategoryLabel returns the category or the pending placeholder
func (m *MessageRecord) CategoryLabel() string {
	if m.Enrichment == nil {
		return PendingCategory
	}
	return string(m.Enrichment.Category)
}

// SummaryText returns the summary or the pending placeholder
func (m *MessageRecord) SummaryText() string {
	if m.Enrichment == nil {
		return PendingSummary
	}
	return m.Enrichment.Summary
}

// Enrich returns a copy of the record in the enriched state
func (m *MessageRecord) Enrich(category Category, summary string) *MessageRecord {
	cp := *m
	cp.Enrichment = &Enrichment{Category: category, Summary: summary}
	return &cp
}

// RestoreEnrichment rebuilds the tagged state from its flattened storage form
func RestoreEnrichment(processed bool, category, summary string) *Enrichment {
	if !processed {
		return nil
	}
	c, ok := ParseCategory(category)
	if !ok {
		c = Category(category)
	}
	return &Enrichment{Category: c, Summary: summary}
}

type messageRecordJSON struct {
	ID        string `json:"id"`
	ThreadID  string `json:"threadId"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Snippet   string `json:"snippet"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	Processed bool   `json:"processed"`
	Category  string `json:"category"`
	Summary   string `json:"summary"`
}

// MarshalJSON flattens the enrichment state into processed/category/summary
func (m *MessageRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageRecordJSON{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Sender:    m.Sender,
		Subject:   m.Subject,
		Snippet:   m.Snippet,
		Body:      m.Body,
		Timestamp: m.Timestamp,
		Processed: m.Processed(),
		Category:  m.CategoryLabel(),
		Summary:   m.SummaryText(),
	})
}

// UnmarshalJSON accepts the flattened form produced by MarshalJSON
func (m *MessageRecord) UnmarshalJSON(data []byte) error {
	var raw messageRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MessageRecord{
		ID:         raw.ID,
		ThreadID:   raw.ThreadID,
		Sender:     raw.Sender,
		Subject:    raw.Subject,
		Snippet:    raw.Snippet,
		Body:       raw.Body,
		Timestamp:  raw.Timestamp,
		Enrichment: RestoreEnrichment(raw.Processed, raw.Category, raw.Summary),
	}
	return nil
}
