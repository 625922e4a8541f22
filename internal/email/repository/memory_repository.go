package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	emaildomain "mailsift-backend/internal/email/domain"
)

// MemoryMessageStore keeps records in process memory. Used for local runs
// (STORE_BACKEND=memory) and tests; nothing survives a restart.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	records  map[emaildomain.UserScope]map[string]*emaildomain.MessageRecord
	scopes   map[emaildomain.UserScope]emaildomain.UserScopeInfo
	inserted int
}

// NewMemoryMessageStore creates an empty in-memory store
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{
		records: make(map[emaildomain.UserScope]map[string]*emaildomain.MessageRecord),
		scopes:  make(map[emaildomain.UserScope]emaildomain.UserScopeInfo),
	}
}

func (s *MemoryMessageStore) ExistingIDs(ctx context.Context, scope emaildomain.UserScope, ids []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.records[scope][id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (s *MemoryMessageStore) InsertMissing(ctx context.Context, scope emaildomain.UserScope, records []*emaildomain.MessageRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.records[scope]
	if !ok {
		bucket = make(map[string]*emaildomain.MessageRecord)
		s.records[scope] = bucket
	}

	created := 0
	for _, r := range uniqueByID(records) {
		if _, exists := bucket[r.ID]; exists {
			continue
		}
		cp := *r
		bucket[r.ID] = &cp
		created++
	}
	s.inserted += created
	return created, nil
}

func (s *MemoryMessageStore) UpdateEnrichment(ctx context.Context, scope emaildomain.UserScope, id string, enrichment emaildomain.Enrichment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[scope][id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	s.records[scope][id] = r.Enrich(enrichment.Category, enrichment.Summary)
	return nil
}

func (s *MemoryMessageStore) List(ctx context.Context, scope emaildomain.UserScope, category emaildomain.Category) ([]*emaildomain.MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*emaildomain.MessageRecord, 0, len(s.records[scope]))
	for _, r := range s.records[scope] {
		if category != "" && r.CategoryLabel() != string(category) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryMessageStore) Delete(ctx context.Context, scope emaildomain.UserScope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records[scope], id)
	return nil
}

func (s *MemoryMessageStore) EnsureUserScope(ctx context.Context, scope emaildomain.UserScope, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scopes[scope] = emaildomain.UserScopeInfo{Email: string(scope), LastSynced: syncedAt}
	return nil
}

// Get returns a copy of one record
func (s *MemoryMessageStore) Get(scope emaildomain.UserScope, id string) (*emaildomain.MessageRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[scope][id]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// Scope returns the stored UserScope document
func (s *MemoryMessageStore) Scope(scope emaildomain.UserScope) (emaildomain.UserScopeInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.scopes[scope]
	return info, ok
}

// Inserted counts records created since the store was made
func (s *MemoryMessageStore) Inserted() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inserted
}
