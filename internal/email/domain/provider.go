package domain

import "context"

// MailProvider is the remote mailbox the pipeline ingests from.
// Every call authenticates with the caller's short-lived access token.
type MailProvider interface {
	GetProfileEmail(ctx context.Context, accessToken string) (string, error)
	ListUnreadIDs(ctx context.Context, accessToken string, max int64) ([]string, error)
	FetchMessage(ctx context.Context, accessToken, messageID string) (*MessageRecord, error)
	SendEmail(ctx context.Context, accessToken, to, subject, body, threadID string) (string, error)
}
