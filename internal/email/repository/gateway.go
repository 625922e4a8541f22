package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	emaildomain "mailsift-backend/internal/email/domain"
	"mailsift-backend/pkg/logger"
	"mailsift-backend/pkg/metrics"
)

// Gateway is the only path from the pipeline to persistent storage.
// A nil store means storage is unavailable: reads degrade to empty results,
// writes become logged no-ops and Delete reports ErrStoreUnavailable.
type Gateway struct {
	store MessageStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewGateway creates a gateway over store, which may be nil
func NewGateway(store MessageStore) *Gateway {
	return &Gateway{
		store: store,
		now:   time.Now,
		log:   logger.For("Gateway"),
	}
}

// Available reports whether a store is configured
func (g *Gateway) Available() bool {
	return g.store != nil
}

// FilterUnknown returns the candidate ids that have no stored record,
// in their original order with duplicates removed.
func (g *Gateway) FilterUnknown(ctx context.Context, scope emaildomain.UserScope, candidateIDs []string) []string {
	unique := make([]string, 0, len(candidateIDs))
	seen := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	if g.store == nil || len(unique) == 0 {
		return unique
	}

	existing, err := g.store.ExistingIDs(ctx, scope, unique)
	if err != nil {
		g.log.Warn().Err(err).Str("user", string(scope)).Msg("existence check failed, treating all candidates as new")
		metrics.RecordStoreDegraded("filter_unknown")
		return unique
	}

	unknown := make([]string, 0, len(unique))
	for _, id := range unique {
		if !existing[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// BulkInsert persists new records in one batch. Ids already stored are left untouched.
func (g *Gateway) BulkInsert(ctx context.Context, scope emaildomain.UserScope, records []*emaildomain.MessageRecord) {
	if len(records) == 0 {
		return
	}
	if g.store == nil {
		g.log.Warn().Int("records", len(records)).Msg("store unavailable, skipping bulk insert")
		metrics.RecordStoreDegraded("bulk_insert")
		return
	}

	created, err := g.store.InsertMissing(ctx, scope, records)
	if err != nil {
		g.log.Error().Err(err).Str("user", string(scope)).Int("records", len(records)).Msg("bulk insert failed")
		metrics.RecordStoreDegraded("bulk_insert")
		return
	}
	g.log.Info().Str("user", string(scope)).Int("created", created).Msg("saved new emails")
}

// Query lists the scope's records newest first. An empty filter or "All" matches
// every category. It never fails: an unavailable or failing store yields an empty slice.
func (g *Gateway) Query(ctx context.Context, scope emaildomain.UserScope, categoryFilter string) []*emaildomain.MessageRecord {
	empty := []*emaildomain.MessageRecord{}
	if g.store == nil {
		metrics.RecordStoreDegraded("query")
		return empty
	}

	var category emaildomain.Category
	filter := strings.TrimSpace(categoryFilter)
	if filter != "" && !strings.EqualFold(filter, emaildomain.CategoryFilterAll) {
		category = emaildomain.Category(filter)
		if c, ok := emaildomain.ParseCategory(filter); ok {
			category = c
		}
	}

	records, err := g.store.List(ctx, scope, category)
	if err != nil {
		g.log.Error().Err(err).Str("user", string(scope)).Msg("query failed")
		metrics.RecordStoreDegraded("query")
		return empty
	}
	if records == nil {
		return empty
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
	return records
}

// Delete removes one record from local storage
func (g *Gateway) Delete(ctx context.Context, scope emaildomain.UserScope, id string) error {
	if g.store == nil {
		return emaildomain.ErrStoreUnavailable
	}
	if err := g.store.Delete(ctx, scope, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// UpdateEnrichment writes the enrichment result back. It never creates a record.
func (g *Gateway) UpdateEnrichment(ctx context.Context, scope emaildomain.UserScope, id string, enrichment emaildomain.Enrichment) error {
	if g.store == nil {
		g.log.Warn().Str("id", id).Msg("store unavailable, dropping enrichment result")
		metrics.RecordStoreDegraded("update_enrichment")
		return nil
	}

	err := g.store.UpdateEnrichment(ctx, scope, id, enrichment)
	if errors.Is(err, ErrRecordNotFound) {
		g.log.Warn().Str("id", id).Msg("record vanished before enrichment write-back")
		return err
	}
	if err != nil {
		metrics.RecordStoreDegraded("update_enrichment")
		return fmt.Errorf("failed to update enrichment for %s: %w", id, err)
	}
	return nil
}

// EnsureUserScope creates the user document on first sync. Best effort.
func (g *Gateway) EnsureUserScope(ctx context.Context, scope emaildomain.UserScope) {
	if g.store == nil {
		return
	}
	if err := g.store.EnsureUserScope(ctx, scope, g.now()); err != nil {
		g.log.Warn().Err(err).Str("user", string(scope)).Msg("failed to ensure user scope")
		metrics.RecordStoreDegraded("ensure_user_scope")
	}
}
