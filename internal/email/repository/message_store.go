package repository

import (
	"context"
	"errors"
	"time"

	emaildomain "mailsift-backend/internal/email/domain"
)

// ErrRecordNotFound is returned by stores when an update targets a missing record
var ErrRecordNotFound = errors.New("message record not found")

// MessageStore defines the persistence backend behind the Gateway.
// Records are namespaced by UserScope; ids are unique within a scope.
type MessageStore interface {
	// ExistingIDs reports which of ids already have a record
	ExistingIDs(ctx context.Context, scope emaildomain.UserScope, ids []string) (map[string]bool, error)
	// InsertMissing writes records whose id is not stored yet, in one batch.
	// Existing records are left untouched. Returns the number created.
	InsertMissing(ctx context.Context, scope emaildomain.UserScope, records []*emaildomain.MessageRecord) (int, error)
	// UpdateEnrichment sets category, summary and processed on an existing record.
	// Returns ErrRecordNotFound instead of creating one.
	UpdateEnrichment(ctx context.Context, scope emaildomain.UserScope, id string, enrichment emaildomain.Enrichment) error
	// List returns the scope's records, optionally restricted to one category
	List(ctx context.Context, scope emaildomain.UserScope, category emaildomain.Category) ([]*emaildomain.MessageRecord, error)
	// Delete removes one record
	Delete(ctx context.Context, scope emaildomain.UserScope, id string) error
	// EnsureUserScope creates the scope if needed and refreshes its last sync time
	EnsureUserScope(ctx context.Context, scope emaildomain.UserScope, syncedAt time.Time) error
}

// flatRecord is the storage rendering of a MessageRecord's enrichment state
type flatRecord struct {
	Processed bool
	Category  string
	Summary   string
}

// uniqueByID drops nil records and repeated ids, keeping the first occurrence
func uniqueByID(records []*emaildomain.MessageRecord) []*emaildomain.MessageRecord {
	seen := make(map[string]bool, len(records))
	out := make([]*emaildomain.MessageRecord, 0, len(records))
	for _, r := range records {
		if r == nil || r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

func flatten(r *emaildomain.MessageRecord) flatRecord {
	return flatRecord{
		Processed: r.Processed(),
		Category:  r.CategoryLabel(),
		Summary:   r.SummaryText(),
	}
}
