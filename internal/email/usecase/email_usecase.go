package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	emaildomain "mailsift-backend/internal/email/domain"
	"mailsift-backend/internal/email/repository"
	"mailsift-backend/pkg/config"
	"mailsift-backend/pkg/logger"
	"mailsift-backend/pkg/metrics"
)

// emailUsecase implements EmailUsecase interface
type emailUsecase struct {
	mailProvider emaildomain.MailProvider
	gateway      *repository.Gateway
	fetcher      *FetchCoordinator
	scheduler    Scheduler
	aiEngine     AIEngine
	config       *config.Config
	log          zerolog.Logger
}

// NewEmailUsecase creates a new instance of emailUsecase
func NewEmailUsecase(
	mailProvider emaildomain.MailProvider,
	gateway *repository.Gateway,
	fetcher *FetchCoordinator,
	scheduler Scheduler,
	aiEngine AIEngine,
	cfg *config.Config,
) EmailUsecase {
	return &emailUsecase{
		mailProvider: mailProvider,
		gateway:      gateway,
		fetcher:      fetcher,
		scheduler:    scheduler,
		aiEngine:     aiEngine,
		config:       cfg,
		log:          logger.For("Sync"),
	}
}

// Sync runs one ingestion pass: resolve the user, list unread ids, drop known ones,
// fetch the rest concurrently, persist them and schedule enrichment.
// It returns before enrichment completes.
func (u *emailUsecase) Sync(ctx context.Context, accessToken string) (int, error) {
	start := time.Now()

	if strings.TrimSpace(accessToken) == "" {
		metrics.RecordSync("failed", 0)
		return 0, fmt.Errorf("%w: empty token", emaildomain.ErrInvalidCredential)
	}

	address, err := u.mailProvider.GetProfileEmail(ctx, accessToken)
	if err != nil {
		metrics.RecordSync("failed", 0)
		return 0, fmt.Errorf("%w: %v", emaildomain.ErrInvalidCredential, err)
	}
	scope := emaildomain.UserScope(address)
	log := u.log.With().Str("user", address).Logger()

	u.gateway.EnsureUserScope(ctx, scope)

	ids, err := u.mailProvider.ListUnreadIDs(ctx, accessToken, u.config.MaxUnread)
	if err != nil {
		metrics.RecordSync("failed", 0)
		return 0, fmt.Errorf("failed to list unread messages: %w", err)
	}
	if len(ids) == 0 {
		metrics.RecordSync("success", 0)
		return 0, nil
	}

	unknown := u.gateway.FilterUnknown(ctx, scope, ids)
	if len(unknown) == 0 {
		log.Debug().Int("unread", len(ids)).Msg("nothing new")
		metrics.RecordSync("success", 0)
		return 0, nil
	}

	records := u.fetcher.FetchAll(ctx, accessToken, unknown)
	if len(records) == 0 {
		log.Warn().Int("requested", len(unknown)).Msg("no message could be fetched")
		metrics.RecordSync("success", 0)
		return 0, nil
	}

	u.gateway.BulkInsert(ctx, scope, records)

	// Scheduled even when the write failed; the write-back then finds no record
	for _, record := range records {
		u.scheduler.Submit(scope, record)
	}

	metrics.RecordSync("success", len(records))
	log.Info().
		Int("unread", len(ids)).
		Int("new", len(unknown)).
		Int("synced", len(records)).
		Dur("took", time.Since(start)).
		Msg("sync completed")
	return len(records), nil
}

func (u *emailUsecase) ListRecords(ctx context.Context, userEmail, category string) []*emaildomain.MessageRecord {
	return u.gateway.Query(ctx, emaildomain.UserScope(userEmail), category)
}

func (u *emailUsecase) DeleteRecord(ctx context.Context, userEmail, messageID string) error {
	return u.gateway.Delete(ctx, emaildomain.UserScope(userEmail), messageID)
}

func (u *emailUsecase) SendEmail(ctx context.Context, accessToken, to, subject, body, threadID string) (string, error) {
	if strings.TrimSpace(accessToken) == "" {
		return "", fmt.Errorf("%w: empty token", emaildomain.ErrInvalidCredential)
	}
	if strings.TrimSpace(to) == "" {
		return "", fmt.Errorf("%w: recipient is required", emaildomain.ErrMissingContent)
	}

	id, err := u.mailProvider.SendEmail(ctx, accessToken, to, subject, body, threadID)
	if err != nil {
		u.log.Error().Err(err).Str("thread_id", threadID).Msg("send email error")
		return "", err
	}
	return id, nil
}

func (u *emailUsecase) GenerateReply(ctx context.Context, content, intent, senderName string) (string, error) {
	return u.aiEngine.GenerateReply(ctx, content, intent, senderName)
}

func (u *emailUsecase) Health() HealthReport {
	return HealthReport{
		StoreBackend:   u.config.StoreBackend,
		StoreAvailable: u.gateway.Available(),
		ModelStatus:    u.aiEngine.Status(),
	}
}
