package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	emaildomain "mailsift-backend/internal/email/domain"
)

const testScope = emaildomain.UserScope("owner@example.com")

// failingStore returns err from every operation
type failingStore struct {
	err error
}

func (f failingStore) ExistingIDs(context.Context, emaildomain.UserScope, []string) (map[string]bool, error) {
	return nil, f.err
}
func (f failingStore) InsertMissing(context.Context, emaildomain.UserScope, []*emaildomain.MessageRecord) (int, error) {
	return 0, f.err
}
func (f failingStore) UpdateEnrichment(context.Context, emaildomain.UserScope, string, emaildomain.Enrichment) error {
	return f.err
}
func (f failingStore) List(context.Context, emaildomain.UserScope, emaildomain.Category) ([]*emaildomain.MessageRecord, error) {
	return nil, f.err
}
func (f failingStore) Delete(context.Context, emaildomain.UserScope, string) error {
	return f.err
}
func (f failingStore) EnsureUserScope(context.Context, emaildomain.UserScope, time.Time) error {
	return f.err
}

func record(id string, ts int64) *emaildomain.MessageRecord {
	return emaildomain.NewUnenrichedRecord(id, "t-"+id, "sender", "subject "+id, "snippet", "body", ts)
}

func TestGateway_FilterUnknown(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMessageStore()
	gw := NewGateway(store)
	gw.BulkInsert(ctx, testScope, []*emaildomain.MessageRecord{record("b", 1)})

	got := gw.FilterUnknown(ctx, testScope, []string{"c", "a", "b", "c", "", "a"})
	if strings.Join(got, ",") != "c,a" {
		t.Errorf("expected [c a], got %v", got)
	}

	if got := gw.FilterUnknown(ctx, "other@example.com", []string{"b"}); len(got) != 1 {
		t.Errorf("expected scopes to be isolated, got %v", got)
	}
}

func TestGateway_FilterUnknownDegraded(t *testing.T) {
	ctx := context.Background()
	candidates := []string{"x", "y", "x"}

	for name, gw := range map[string]*Gateway{
		"no store":      NewGateway(nil),
		"failing store": NewGateway(failingStore{err: errors.New("deadline exceeded")}),
	} {
		t.Run(name, func(t *testing.T) {
			got := gw.FilterUnknown(ctx, testScope, candidates)
			if strings.Join(got, ",") != "x,y" {
				t.Errorf("expected every candidate unknown, got %v", got)
			}
		})
	}
}

func TestGateway_BulkInsertNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMessageStore()
	gw := NewGateway(store)

	gw.BulkInsert(ctx, testScope, []*emaildomain.MessageRecord{record("a", 1)})
	if err := gw.UpdateEnrichment(ctx, testScope, "a", emaildomain.Enrichment{Category: emaildomain.CategorySpam, Summary: "junk"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	gw.BulkInsert(ctx, testScope, []*emaildomain.MessageRecord{record("a", 1), record("b", 2), record("b", 2)})

	a, _ := store.Get(testScope, "a")
	if !a.Processed() || a.Enrichment.Category != emaildomain.CategorySpam {
		t.Errorf("expected enriched record to survive re-insert, got %+v", a.Enrichment)
	}
	if store.Inserted() != 2 {
		t.Errorf("expected 2 records created, got %d", store.Inserted())
	}
}

func TestGateway_WritesDegradeToNoOp(t *testing.T) {
	ctx := context.Background()
	gw := NewGateway(nil)

	gw.BulkInsert(ctx, testScope, []*emaildomain.MessageRecord{record("a", 1)})
	gw.EnsureUserScope(ctx, testScope)
	if err := gw.UpdateEnrichment(ctx, testScope, "a", emaildomain.Enrichment{Category: emaildomain.CategoryBusiness}); err != nil {
		t.Errorf("expected no-op without store, got %v", err)
	}
	if gw.Available() {
		t.Error("expected gateway without store to be unavailable")
	}

	failing := NewGateway(failingStore{err: errors.New("write failed")})
	failing.BulkInsert(ctx, testScope, []*emaildomain.MessageRecord{record("a", 1)})
	failing.EnsureUserScope(ctx, testScope)
}

func TestGateway_UpdateEnrichmentNeverCreates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMessageStore()
	gw := NewGateway(store)

	err := gw.UpdateEnrichment(ctx, testScope, "ghost", emaildomain.Enrichment{Category: emaildomain.CategoryBusiness, Summary: "s"})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
	if _, ok := store.Get(testScope, "ghost"); ok {
		t.Error("expected no record to be created")
	}
}

func TestGateway_Query(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMessageStore()
	gw := NewGateway(store)

	gw.BulkInsert(ctx, testScope, []*emaildomain.MessageRecord{record("old", 100), record("new", 300), record("mid", 200)})
	_ = gw.UpdateEnrichment(ctx, testScope, "mid", emaildomain.Enrichment{Category: emaildomain.CategoryPersonal, Summary: "hi"})
	_ = gw.UpdateEnrichment(ctx, testScope, "old", emaildomain.Enrichment{Category: emaildomain.CategoryPersonal, Summary: "yo"})

	tests := []struct {
		filter   string
		expected string
	}{
		{filter: "", expected: "new,mid,old"},
		{filter: "All", expected: "new,mid,old"},
		{filter: "all", expected: "new,mid,old"},
		{filter: "Personal", expected: "mid,old"},
		{filter: "personal", expected: "mid,old"},
		{filter: "Spam", expected: ""},
		{filter: "Processing...", expected: "new"},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got := gw.Query(ctx, testScope, tt.filter)
			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			if strings.Join(ids, ",") != tt.expected {
				t.Errorf("expected [%s], got %v", tt.expected, ids)
			}
		})
	}
}

func TestGateway_QueryNeverFails(t *testing.T) {
	ctx := context.Background()

	for name, gw := range map[string]*Gateway{
		"no store":      NewGateway(nil),
		"failing store": NewGateway(failingStore{err: errors.New("unavailable")}),
	} {
		t.Run(name, func(t *testing.T) {
			got := gw.Query(ctx, testScope, "All")
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil slice, got %v", got)
			}
		})
	}
}

func TestGateway_Delete(t *testing.T) {
	ctx := context.Background()

	if err := NewGateway(nil).Delete(ctx, testScope, "a"); !errors.Is(err, emaildomain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}

	storeErr := errors.New("permission denied")
	if err := NewGateway(failingStore{err: storeErr}).Delete(ctx, testScope, "a"); !errors.Is(err, storeErr) {
		t.Errorf("expected store error to propagate, got %v", err)
	}

	store := NewMemoryMessageStore()
	gw := NewGateway(store)
	gw.BulkInsert(ctx, testScope, []*emaildomain.MessageRecord{record("a", 1)})
	if err := gw.Delete(ctx, testScope, "a"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := store.Get(testScope, "a"); ok {
		t.Error("expected record to be deleted")
	}
}

func TestGateway_EnsureUserScope(t *testing.T) {
	store := NewMemoryMessageStore()
	gw := NewGateway(store)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	gw.now = func() time.Time { return fixed }

	gw.EnsureUserScope(context.Background(), testScope)

	info, ok := store.Scope(testScope)
	if !ok {
		t.Fatal("expected user scope to be created")
	}
	if info.Email != string(testScope) || !info.LastSynced.Equal(fixed) {
		t.Errorf("unexpected scope info %+v", info)
	}
}

func TestStorageRendering(t *testing.T) {
	r := record("a", 42)

	doc := toMessageDocument(r)
	if doc.Processed || doc.Category != emaildomain.PendingCategory || doc.Summary != emaildomain.PendingSummary {
		t.Errorf("expected placeholders for unenriched record, got %+v", doc)
	}
	if doc.toRecord().Processed() {
		t.Error("expected unenriched record to round-trip as unenriched")
	}

	row := toMessageRow(testScope, r.Enrich(emaildomain.CategoryBusiness, "Meeting at 3"))
	if row.UserID != string(testScope) || !row.Processed || row.Category != "Business" {
		t.Errorf("unexpected row %+v", row)
	}
	back := row.toRecord()
	if back.Enrichment == nil || back.Enrichment.Summary != "Meeting at 3" {
		t.Errorf("expected enrichment to round-trip, got %+v", back.Enrichment)
	}
}
