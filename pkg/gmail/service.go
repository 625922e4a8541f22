package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-message/mail"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailsift-backend/internal/email/domain"
	"mailsift-backend/pkg/textclean"
)

const (
	defaultSubject = "(No Subject)"
	defaultSender  = "Unknown"
	unreadQuery    = "is:unread"
	user           = "me"
)

// ErrMissingPayload is returned for messages without a MIME payload
var ErrMissingPayload = errors.New("message has no payload")

type Service struct {
	callTimeout time.Duration
	opts        []option.ClientOption
}

// NewService creates the Gmail wrapper. Extra client options are appended
// to every Gmail service it builds (e.g. a custom endpoint).
func NewService(callTimeout time.Duration, opts ...option.ClientOption) *Service {
	return &Service{
		callTimeout: callTimeout,
		opts:        opts,
	}
}

// GetGmailService creates a Gmail service bound to the user's access token.
// A fresh service is built for every call so concurrent fetches share no client state.
func (s *Service) GetGmailService(ctx context.Context, accessToken string) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, s.opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

// GetProfileEmail returns the mailbox address of the token's owner.
// It doubles as credential validation.
func (s *Service) GetProfileEmail(ctx context.Context, accessToken string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	srv, err := s.GetGmailService(ctx, accessToken)
	if err != nil {
		return "", err
	}

	profile, err := srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve profile: %w", err)
	}
	if profile.EmailAddress == "" {
		return "", errors.New("profile has no email address")
	}
	return profile.EmailAddress, nil
}

// ListUnreadIDs returns up to max unread message ids, newest first
func (s *Service) ListUnreadIDs(ctx context.Context, accessToken string, max int64) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	srv, err := s.GetGmailService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Users.Messages.List(user).Q(unreadQuery).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list unread messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if m != nil && m.Id != "" {
			ids = append(ids, m.Id)
		}
	}
	return ids, nil
}

// FetchMessage retrieves one message and converts it to an unenriched record
func (s *Service) FetchMessage(ctx context.Context, accessToken, messageID string) (record *domain.MessageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = fmt.Errorf("fetch %s panicked: %v", messageID, r)
		}
	}()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	srv, err := s.GetGmailService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get(user, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message %s: %w", messageID, err)
	}

	return convertGmailMessage(msg)
}

// SendEmail sends a plain-text reply in the given thread and returns the sent message id
func (s *Service) SendEmail(ctx context.Context, accessToken, to, subject, body, threadID string) (string, error) {
	raw, err := composeMessage(to, subject, body)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	srv, err := s.GetGmailService(ctx, accessToken)
	if err != nil {
		return "", err
	}

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: threadID,
	}

	sent, err := srv.Users.Messages.Send(user, msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to send message: %w", err)
	}
	return sent.Id, nil
}

func composeMessage(to, subject, body string) ([]byte, error) {
	addrs, err := mail.ParseAddressList(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("To", addrs)
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("unable to compose message: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("unable to compose message: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("unable to compose message: %w", err)
	}
	return buf.Bytes(), nil
}

func convertGmailMessage(msg *gmail.Message) (*domain.MessageRecord, error) {
	if msg == nil || msg.Payload == nil {
		return nil, ErrMissingPayload
	}

	subject := getHeader(msg.Payload.Headers, "Subject")
	if subject == "" {
		subject = defaultSubject
	}
	sender := getHeader(msg.Payload.Headers, "From")
	if sender == "" {
		sender = defaultSender
	}

	body, err := getEmailBody(msg.Payload, msg.Snippet)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", msg.Id, err)
	}

	return domain.NewUnenrichedRecord(
		msg.Id,
		msg.ThreadId,
		sender,
		subject,
		msg.Snippet,
		body,
		msg.InternalDate,
	), nil
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header != nil && strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// getEmailBody prefers the first text/plain part, then text/html, then the snippet
func getEmailBody(payload *gmail.MessagePart, snippet string) (string, error) {
	for _, mimeType := range []string{"text/plain", "text/html"} {
		part := findPart(payload, mimeType)
		if part == nil {
			continue
		}
		data, err := decodeBody(part.Body.Data)
		if err != nil {
			return "", err
		}
		return textclean.Normalize(data), nil
	}
	return textclean.Normalize(snippet), nil
}

// findPart searches depth-first, the payload itself included
func findPart(part *gmail.MessagePart, mimeType string) *gmail.MessagePart {
	if part == nil {
		return nil
	}
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		return part
	}
	for _, child := range part.Parts {
		if found := findPart(child, mimeType); found != nil {
			return found
		}
	}
	return nil
}

// decodeBody decodes base64url data with or without padding
func decodeBody(data string) (string, error) {
	data = strings.TrimRight(strings.TrimSpace(data), "=")
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("unable to decode body: %w", err)
	}
	if !utf8.Valid(b) {
		return "", errors.New("body is not valid UTF-8")
	}
	return string(b), nil
}
