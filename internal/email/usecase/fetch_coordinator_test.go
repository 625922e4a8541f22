package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	emaildomain "mailsift-backend/internal/email/domain"
)

// fakeProvider is a MailProvider driven by func fields
type fakeProvider struct {
	profileFn func(ctx context.Context, token string) (string, error)
	listFn    func(ctx context.Context, token string, max int64) ([]string, error)
	fetchFn   func(ctx context.Context, token, id string) (*emaildomain.MessageRecord, error)
	sendFn    func(ctx context.Context, token, to, subject, body, threadID string) (string, error)

	mu      sync.Mutex
	fetched []string
}

func (f *fakeProvider) GetProfileEmail(ctx context.Context, token string) (string, error) {
	return f.profileFn(ctx, token)
}

func (f *fakeProvider) ListUnreadIDs(ctx context.Context, token string, max int64) ([]string, error) {
	return f.listFn(ctx, token, max)
}

func (f *fakeProvider) FetchMessage(ctx context.Context, token, id string) (*emaildomain.MessageRecord, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.mu.Unlock()
	return f.fetchFn(ctx, token, id)
}

func (f *fakeProvider) SendEmail(ctx context.Context, token, to, subject, body, threadID string) (string, error) {
	return f.sendFn(ctx, token, to, subject, body, threadID)
}

func (f *fakeProvider) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

func fetchedRecord(id string) *emaildomain.MessageRecord {
	return emaildomain.NewUnenrichedRecord(id, "thread-"+id, "Alice <alice@example.com>", "Subject "+id, "snippet", "Body of "+id, 1000)
}

func okFetch(ctx context.Context, token, id string) (*emaildomain.MessageRecord, error) {
	return fetchedRecord(id), nil
}

func recordIDs(records []*emaildomain.MessageRecord) string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return strings.Join(ids, ",")
}

func TestFetchAll_IsolatesFailures(t *testing.T) {
	provider := &fakeProvider{fetchFn: func(ctx context.Context, token, id string) (*emaildomain.MessageRecord, error) {
		switch id {
		case "b":
			return nil, errors.New("404 not found")
		case "c":
			panic("decoder exploded")
		case "e":
			return nil, nil
		}
		return fetchedRecord(id), nil
	}}
	c := NewFetchCoordinator(provider, 10, time.Second)

	got := c.FetchAll(context.Background(), "tok", []string{"a", "b", "c", "d", "e"})
	if recordIDs(got) != "a,d" {
		t.Errorf("expected [a d], got [%s]", recordIDs(got))
	}
}

func TestFetchAll_DeduplicatesIDs(t *testing.T) {
	provider := &fakeProvider{fetchFn: okFetch}
	c := NewFetchCoordinator(provider, 10, time.Second)

	got := c.FetchAll(context.Background(), "tok", []string{"a", "b", "a", "", "b"})
	if recordIDs(got) != "a,b" {
		t.Errorf("expected [a b], got [%s]", recordIDs(got))
	}
	if provider.fetchCount() != 2 {
		t.Errorf("expected 2 fetches, got %d", provider.fetchCount())
	}
}

func TestFetchAll_RespectsConcurrencyCeiling(t *testing.T) {
	var inFlight, peak atomic.Int32
	provider := &fakeProvider{fetchFn: func(ctx context.Context, token, id string) (*emaildomain.MessageRecord, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return fetchedRecord(id), nil
	}}
	c := NewFetchCoordinator(provider, 3, 5*time.Second)

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}

	got := c.FetchAll(context.Background(), "tok", ids)
	if len(got) != 12 {
		t.Errorf("expected 12 records, got %d", len(got))
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("expected at most 3 concurrent fetches, saw %d", p)
	}
	if inFlight.Load() != 0 {
		t.Error("expected every fetch to finish before FetchAll returned")
	}
}

func TestFetchAll_BatchTimeout(t *testing.T) {
	provider := &fakeProvider{fetchFn: func(ctx context.Context, token, id string) (*emaildomain.MessageRecord, error) {
		if id == "fast" {
			return fetchedRecord(id), nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := NewFetchCoordinator(provider, 4, 50*time.Millisecond)

	start := time.Now()
	got := c.FetchAll(context.Background(), "tok", []string{"fast", "slow1", "slow2", "slow3"})
	if time.Since(start) > 2*time.Second {
		t.Fatal("expected batch timeout to bound FetchAll")
	}
	if recordIDs(got) != "fast" {
		t.Errorf("expected only the fast record, got [%s]", recordIDs(got))
	}
}

func TestFetchAll_Empty(t *testing.T) {
	c := NewFetchCoordinator(&fakeProvider{fetchFn: okFetch}, 0, 0)
	got := c.FetchAll(context.Background(), "tok", nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}
