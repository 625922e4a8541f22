package usecase

import (
	"context"

	emaildomain "mailsift-backend/internal/email/domain"
	"mailsift-backend/pkg/ai"
)

// EmailUsecase defines the interface for email use cases
type EmailUsecase interface {
	// Sync ingests the caller's unread mail and returns the number of new records
	Sync(ctx context.Context, accessToken string) (int, error)
	ListRecords(ctx context.Context, userEmail, category string) []*emaildomain.MessageRecord
	DeleteRecord(ctx context.Context, userEmail, messageID string) error
	SendEmail(ctx context.Context, accessToken, to, subject, body, threadID string) (string, error)
	GenerateReply(ctx context.Context, content, intent, senderName string) (string, error)
	Health() HealthReport
}

// Scheduler accepts records for background enrichment
type Scheduler interface {
	Submit(scope emaildomain.UserScope, record *emaildomain.MessageRecord) string
}

// AIEngine is the model-backed part of the pipeline
type AIEngine interface {
	GenerateReply(ctx context.Context, content, intent, senderName string) (string, error)
	Status() ai.Status
}

// HealthReport describes which optional capabilities are working
type HealthReport struct {
	StoreBackend   string
	StoreAvailable bool
	ModelStatus    ai.Status
}
