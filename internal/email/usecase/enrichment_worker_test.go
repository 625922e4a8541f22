package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	emaildomain "mailsift-backend/internal/email/domain"
	"mailsift-backend/internal/email/repository"
)

const testUser = emaildomain.UserScope("owner@example.com")

type fakeEnricher struct {
	classifyFn  func(ctx context.Context, text string) emaildomain.Category
	summarizeFn func(ctx context.Context, text string) string
}

func (f fakeEnricher) Classify(ctx context.Context, text string) emaildomain.Category {
	return f.classifyFn(ctx, text)
}

func (f fakeEnricher) Summarize(ctx context.Context, text string) string {
	return f.summarizeFn(ctx, text)
}

func staticEnricher(category emaildomain.Category, summary string) fakeEnricher {
	return fakeEnricher{
		classifyFn:  func(ctx context.Context, text string) emaildomain.Category { return category },
		summarizeFn: func(ctx context.Context, text string) string { return summary },
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func storeWith(records ...*emaildomain.MessageRecord) (*repository.MemoryMessageStore, *repository.Gateway) {
	store := repository.NewMemoryMessageStore()
	gw := repository.NewGateway(store)
	gw.BulkInsert(context.Background(), testUser, records)
	return store, gw
}

func processed(store *repository.MemoryMessageStore, id string) func() bool {
	return func() bool {
		r, ok := store.Get(testUser, id)
		return ok && r.Processed()
	}
}

func TestEnrichmentWorker_EnrichesRecord(t *testing.T) {
	store, gw := storeWith(fetchedRecord("m1"))

	var seen atomic.Value
	enricher := staticEnricher(emaildomain.CategoryPersonal, "Dinner on Friday.")
	enricher.classifyFn = func(ctx context.Context, text string) emaildomain.Category {
		seen.Store(text)
		return emaildomain.CategoryPersonal
	}

	w := NewEnrichmentWorkerService(enricher, gw, 2, 10, time.Second)
	w.Start()
	defer w.Stop()

	if id := w.Submit(testUser, fetchedRecord("m1")); id == "" {
		t.Error("expected a job id")
	}
	waitFor(t, "m1 to be enriched", processed(store, "m1"))

	r, _ := store.Get(testUser, "m1")
	if r.Enrichment.Category != emaildomain.CategoryPersonal || r.Enrichment.Summary != "Dinner on Friday." {
		t.Errorf("unexpected enrichment %+v", r.Enrichment)
	}

	expectedText := "Subject: Subject m1\nSender: Alice <alice@example.com>\nBody: Body of m1"
	if got, _ := seen.Load().(string); got != expectedText {
		t.Errorf("expected composite text %q, got %q", expectedText, got)
	}
}

func TestEnrichmentWorker_PanicKeepsRecordState(t *testing.T) {
	store, gw := storeWith(fetchedRecord("bad"), fetchedRecord("good"))

	enricher := staticEnricher(emaildomain.CategoryBusiness, "ok")
	enricher.summarizeFn = func(ctx context.Context, text string) string {
		if text == compositeText(fetchedRecord("bad")) {
			panic("summarizer crashed")
		}
		return "ok"
	}

	w := NewEnrichmentWorkerService(enricher, gw, 1, 10, time.Second)
	w.Start()
	defer w.Stop()

	w.Submit(testUser, fetchedRecord("bad"))
	w.Submit(testUser, fetchedRecord("good"))

	waitFor(t, "good to be enriched", processed(store, "good"))
	if r, _ := store.Get(testUser, "bad"); r.Processed() {
		t.Error("expected panicking unit to leave the record unenriched")
	}
}

func TestEnrichmentWorker_SubmitNeverBlocks(t *testing.T) {
	store, gw := storeWith(fetchedRecord("a"), fetchedRecord("b"), fetchedRecord("c"))

	w := NewEnrichmentWorkerService(staticEnricher(emaildomain.CategorySpam, "junk"), gw, 1, 1, time.Second)

	done := make(chan struct{})
	go func() {
		for _, id := range []string{"a", "b", "c"} {
			w.Submit(testUser, fetchedRecord(id))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	w.Start()
	defer w.Stop()
	for _, id := range []string{"a", "b", "c"} {
		waitFor(t, id+" to be enriched", processed(store, id))
	}
}

func TestEnrichmentWorker_MissingRecordIsNotCreated(t *testing.T) {
	store, gw := storeWith()

	var calls atomic.Int32
	enricher := staticEnricher(emaildomain.CategoryBusiness, "s")
	enricher.summarizeFn = func(ctx context.Context, text string) string {
		calls.Add(1)
		return "s"
	}

	w := NewEnrichmentWorkerService(enricher, gw, 1, 10, time.Second)
	w.Start()
	defer w.Stop()

	w.Submit(testUser, fetchedRecord("ghost"))
	waitFor(t, "unit to run", func() bool { return calls.Load() == 1 })
	time.Sleep(20 * time.Millisecond)

	if _, ok := store.Get(testUser, "ghost"); ok {
		t.Error("expected write-back to not create a record")
	}
}

func TestEnrichmentWorker_StopDropsQueuedJobs(t *testing.T) {
	store, gw := storeWith(fetchedRecord("late"))

	w := NewEnrichmentWorkerService(staticEnricher(emaildomain.CategoryBusiness, "s"), gw, 1, 10, time.Second)
	w.Start()
	w.Stop()
	w.Stop()

	w.Submit(testUser, fetchedRecord("late"))
	time.Sleep(20 * time.Millisecond)

	if r, _ := store.Get(testUser, "late"); r.Processed() {
		t.Error("expected job submitted after Stop to be dropped")
	}
}
