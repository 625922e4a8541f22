package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	emaildomain "mailsift-backend/internal/email/domain"
	"mailsift-backend/pkg/logger"
	"mailsift-backend/pkg/metrics"
)

// Enricher classifies and summarizes message text. Both calls always answer.
type Enricher interface {
	Classify(ctx context.Context, text string) emaildomain.Category
	Summarize(ctx context.Context, text string) string
}

// EnrichmentWriter persists the result of one enrichment unit
type EnrichmentWriter interface {
	UpdateEnrichment(ctx context.Context, scope emaildomain.UserScope, id string, enrichment emaildomain.Enrichment) error
}

// EnrichmentJob represents one record waiting for classification and summary
type EnrichmentJob struct {
	ID     string
	Scope  emaildomain.UserScope
	Record *emaildomain.MessageRecord
}

// EnrichmentWorkerService handles background enrichment
type EnrichmentWorkerService struct {
	enricher    Enricher
	writer      EnrichmentWriter
	jobQueue    chan EnrichmentJob
	quit        chan struct{}
	workerWg    sync.WaitGroup
	workerCount int
	jobTimeout  time.Duration
	started     bool
	stopped     bool
	mu          sync.Mutex
	log         zerolog.Logger
}

// NewEnrichmentWorkerService creates a new enrichment worker service
func NewEnrichmentWorkerService(
	enricher Enricher,
	writer EnrichmentWriter,
	workerCount int,
	queueSize int,
	jobTimeout time.Duration,
) *EnrichmentWorkerService {
	if workerCount <= 0 {
		workerCount = 4
	}
	if queueSize <= 0 {
		queueSize = 500
	}
	if jobTimeout <= 0 {
		jobTimeout = 60 * time.Second
	}

	return &EnrichmentWorkerService{
		enricher:    enricher,
		writer:      writer,
		jobQueue:    make(chan EnrichmentJob, queueSize), // Buffered channel
		quit:        make(chan struct{}),
		workerCount: workerCount,
		jobTimeout:  jobTimeout,
		log:         logger.For("EnrichmentWorker"),
	}
}

// Start starts the enrichment workers
func (s *EnrichmentWorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}

	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	s.log.Info().Int("workers", s.workerCount).Msg("started workers")
}

// Stop stops all workers after their current unit. Queued units are dropped.
func (s *EnrichmentWorkerService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.quit)
	s.mu.Unlock()

	s.workerWg.Wait()
	s.log.Info().Int("dropped", len(s.jobQueue)).Msg("all workers stopped")
}

// Submit schedules enrichment of record and returns the job id without blocking.
// When the queue is full the hand-off waits in its own goroutine.
func (s *EnrichmentWorkerService) Submit(scope emaildomain.UserScope, record *emaildomain.MessageRecord) string {
	job := EnrichmentJob{
		ID:     uuid.New().String(),
		Scope:  scope,
		Record: record,
	}

	select {
	case <-s.quit:
		s.log.Warn().Str("job_id", job.ID).Str("email_id", record.ID).Msg("workers stopped, dropping job")
		metrics.RecordEnrichment("dropped")
		return job.ID
	default:
	}

	select {
	case s.jobQueue <- job:
		metrics.RecordEnrichment("queued")
	default:
		metrics.RecordEnrichment("overflow")
		go func() {
			select {
			case s.jobQueue <- job:
			case <-s.quit:
				s.log.Warn().Str("job_id", job.ID).Str("email_id", record.ID).Msg("workers stopped, dropping job")
				metrics.RecordEnrichment("dropped")
			}
		}()
	}
	return job.ID
}

// worker processes enrichment jobs from the queue
func (s *EnrichmentWorkerService) worker(id int) {
	defer s.workerWg.Done()

	for {
		select {
		case <-s.quit:
			s.log.Debug().Int("worker", id).Msg("worker stopped")
			return
		case job := <-s.jobQueue:
			s.processJob(job)
		}
	}
}

// processJob runs classify, summarize and write-back for one record, in that order
func (s *EnrichmentWorkerService) processJob(job EnrichmentJob) {
	log := s.log.With().Str("job_id", job.ID).Str("email_id", job.Record.ID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("enrichment panicked, record keeps its state")
			metrics.RecordEnrichment("failed")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	text := compositeText(job.Record)
	category := s.enricher.Classify(ctx, text)
	summary := s.enricher.Summarize(ctx, text)

	err := s.writer.UpdateEnrichment(ctx, job.Scope, job.Record.ID, emaildomain.Enrichment{
		Category: category,
		Summary:  summary,
	})
	if err != nil {
		log.Warn().Err(err).Msg("enrichment write-back failed")
		metrics.RecordEnrichment("failed")
		return
	}

	metrics.RecordEnrichment("success")
	log.Info().Str("category", string(category)).Msg("processed")
}

// compositeText is the text handed to the model for both operations
func compositeText(r *emaildomain.MessageRecord) string {
	return fmt.Sprintf("Subject: %s\nSender: %s\nBody: %s", r.Subject, r.Sender, r.Body)
}
