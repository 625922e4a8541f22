package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	emaildomain "mailsift-backend/internal/email/domain"
	"mailsift-backend/pkg/logger"
	"mailsift-backend/pkg/metrics"
)

// FetchCoordinator fetches many messages concurrently, never more than
// concurrency at a time. Individual failures are dropped, not propagated.
type FetchCoordinator struct {
	provider     emaildomain.MailProvider
	concurrency  int
	batchTimeout time.Duration
	log          zerolog.Logger
}

// NewFetchCoordinator creates a coordinator with the given ceiling
func NewFetchCoordinator(provider emaildomain.MailProvider, concurrency int, batchTimeout time.Duration) *FetchCoordinator {
	if concurrency <= 0 {
		concurrency = 10
	}
	return &FetchCoordinator{
		provider:     provider,
		concurrency:  concurrency,
		batchTimeout: batchTimeout,
		log:          logger.For("FetchCoordinator"),
	}
}

// FetchAll fetches every distinct id and returns the successful records in id order.
// It returns only after all fetches have finished.
func (c *FetchCoordinator) FetchAll(ctx context.Context, accessToken string, ids []string) []*emaildomain.MessageRecord {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []*emaildomain.MessageRecord{}
	}

	start := time.Now()
	defer func() {
		metrics.RecordFetchBatch(time.Since(start))
	}()

	if c.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.batchTimeout)
		defer cancel()
	}

	sem := make(chan struct{}, c.concurrency)
	fetched := make([]*emaildomain.MessageRecord, len(ids))
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				c.log.Warn().Err(ctx.Err()).Str("email_id", id).Msg("fetch not started")
				metrics.RecordFetch("failed")
				return
			}
			defer func() { <-sem }()

			record, err := c.fetchOne(ctx, accessToken, id)
			if err != nil {
				c.log.Warn().Err(err).Str("email_id", id).Msg("gmail fetch error")
				metrics.RecordFetch("failed")
				return
			}
			metrics.RecordFetch("success")
			fetched[i] = record
		}(i, id)
	}

	wg.Wait()

	records := make([]*emaildomain.MessageRecord, 0, len(ids))
	for _, r := range fetched {
		if r != nil {
			records = append(records, r)
		}
	}
	c.log.Debug().Int("requested", len(ids)).Int("fetched", len(records)).Dur("took", time.Since(start)).Msg("fetch batch done")
	return records
}

// fetchOne turns a panicking fetch into an ordinary failure
func (c *FetchCoordinator) fetchOne(ctx context.Context, accessToken, id string) (record *emaildomain.MessageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = fmt.Errorf("fetch %s panicked: %v", id, r)
		}
	}()

	record, err = c.provider.FetchMessage(ctx, accessToken, id)
	if err == nil && record == nil {
		err = errors.New("provider returned no message")
	}
	return record, err
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
