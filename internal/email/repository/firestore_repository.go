package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	emaildomain "mailsift-backend/internal/email/domain"
)

const (
	usersCollection  = "users"
	emailsCollection = "emails"
)

// messageDocument is the Firestore layout of users/{email}/emails/{id}
type messageDocument struct {
	ID        string `firestore:"id"`
	ThreadID  string `firestore:"threadId"`
	Sender    string `firestore:"sender"`
	Subject   string `firestore:"subject"`
	Snippet   string `firestore:"snippet"`
	Body      string `firestore:"body"`
	Timestamp int64  `firestore:"timestamp"`
	Processed bool   `firestore:"processed"`
	Category  string `firestore:"category"`
	Summary   string `firestore:"summary"`
}

func toMessageDocument(r *emaildomain.MessageRecord) messageDocument {
	flat := flatten(r)
	return messageDocument{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		Sender:    r.Sender,
		Subject:   r.Subject,
		Snippet:   r.Snippet,
		Body:      r.Body,
		Timestamp: r.Timestamp,
		Processed: flat.Processed,
		Category:  flat.Category,
		Summary:   flat.Summary,
	}
}

func (d messageDocument) toRecord() *emaildomain.MessageRecord {
	r := emaildomain.NewUnenrichedRecord(d.ID, d.ThreadID, d.Sender, d.Subject, d.Snippet, d.Body, d.Timestamp)
	r.Enrichment = emaildomain.RestoreEnrichment(d.Processed, d.Category, d.Summary)
	return r
}

// firestoreMessageStore implements MessageStore on Cloud Firestore
type firestoreMessageStore struct {
	client *firestore.Client
}

// NewFirestoreMessageStore creates a new instance of firestoreMessageStore
func NewFirestoreMessageStore(client *firestore.Client) MessageStore {
	return &firestoreMessageStore{
		client: client,
	}
}

func (s *firestoreMessageStore) userDoc(scope emaildomain.UserScope) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(string(scope))
}

func (s *firestoreMessageStore) emails(scope emaildomain.UserScope) *firestore.CollectionRef {
	return s.userDoc(scope).Collection(emailsCollection)
}

// ExistingIDs checks all ids with a single GetAll round trip
func (s *firestoreMessageStore) ExistingIDs(ctx context.Context, scope emaildomain.UserScope, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = s.emails(scope).Doc(id)
	}

	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("firestore get all: %w", err)
	}
	for _, snap := range snaps {
		if snap.Exists() {
			existing[snap.Ref.ID] = true
		}
	}
	return existing, nil
}

// InsertMissing creates only the documents that do not exist yet, in one transaction
func (s *firestoreMessageStore) InsertMissing(ctx context.Context, scope emaildomain.UserScope, records []*emaildomain.MessageRecord) (int, error) {
	records = uniqueByID(records)
	if len(records) == 0 {
		return 0, nil
	}

	refs := make([]*firestore.DocumentRef, len(records))
	for i, r := range records {
		refs[i] = s.emails(scope).Doc(r.ID)
	}

	var created int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = 0
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}

		for i, snap := range snaps {
			if snap.Exists() {
				continue
			}
			if err := tx.Create(refs[i], toMessageDocument(records[i])); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("firestore bulk insert: %w", err)
	}
	return created, nil
}

// UpdateEnrichment uses Update, which fails on a missing document instead of creating it
func (s *firestoreMessageStore) UpdateEnrichment(ctx context.Context, scope emaildomain.UserScope, id string, enrichment emaildomain.Enrichment) error {
	_, err := s.emails(scope).Doc(id).Update(ctx, []firestore.Update{
		{Path: "category", Value: string(enrichment.Category)},
		{Path: "summary", Value: enrichment.Summary},
		{Path: "processed", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return fmt.Errorf("firestore update: %w", err)
	}
	return nil
}

// List returns the scope's records, unordered
func (s *firestoreMessageStore) List(ctx context.Context, scope emaildomain.UserScope, category emaildomain.Category) ([]*emaildomain.MessageRecord, error) {
	query := s.emails(scope).Query
	if category != "" {
		query = query.Where("category", "==", string(category))
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore query: %w", err)
	}

	records := make([]*emaildomain.MessageRecord, 0, len(snaps))
	for _, snap := range snaps {
		var doc messageDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore decode %s: %w", snap.Ref.ID, err)
		}
		if doc.ID == "" {
			doc.ID = snap.Ref.ID
		}
		records = append(records, doc.toRecord())
	}
	return records, nil
}

// Delete removes one document; deleting a missing document is not an error
func (s *firestoreMessageStore) Delete(ctx context.Context, scope emaildomain.UserScope, id string) error {
	if _, err := s.emails(scope).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete: %w", err)
	}
	return nil
}

// EnsureUserScope merges email and last_synced into users/{email}
func (s *firestoreMessageStore) EnsureUserScope(ctx context.Context, scope emaildomain.UserScope, syncedAt time.Time) error {
	_, err := s.userDoc(scope).Set(ctx, map[string]interface{}{
		"email":       string(scope),
		"last_synced": syncedAt,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore ensure user: %w", err)
	}
	return nil
}
