package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"mailsift-backend/internal/email/domain"
	"mailsift-backend/pkg/gemini"
	"mailsift-backend/pkg/logger"
	"mailsift-backend/pkg/metrics"
	"mailsift-backend/pkg/textclean"
)

// Status describes the lifecycle of the engine's model
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusReady         Status = "ready"
	StatusDegraded      Status = "degraded"
)

// BlockedReply is returned instead of a draft when the provider's safety filter withheld it
const BlockedReply = "Error: The AI blocked this response due to safety filters. Please try rephrasing."

// errCircuitOpen marks a call rejected by the breaker
var errCircuitOpen = errors.New("model circuit open")

// GeneratorFactory builds the model on first use
type GeneratorFactory func(ctx context.Context) (TextGenerator, error)

// Engine classifies and summarizes messages.
// Every operation is total: when the model is missing or failing a fallback answer is returned.
type Engine struct {
	factory GeneratorFactory
	once    sync.Once

	mu        sync.RWMutex
	status    Status
	generator TextGenerator

	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewEngine creates an engine whose model is initialized lazily by factory.
// A nil factory leaves the engine permanently degraded.
func NewEngine(factory GeneratorFactory) *Engine {
	e := &Engine{
		factory: factory,
		status:  StatusUninitialized,
		log:     logger.For("AI"),
	}

	e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generative-model",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			// A blocked answer or an abandoned request says nothing about provider health
			return err == nil || errors.Is(err, gemini.ErrBlocked) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return e
}

// Status reports the model lifecycle state
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// model returns the generator, initializing it on first use. Nil means degraded.
func (e *Engine) model() TextGenerator {
	e.once.Do(func() {
		var (
			gen TextGenerator
			err error
		)
		if e.factory == nil {
			err = errors.New("no provider configured")
		} else {
			gen, err = e.factory(context.Background())
			if err == nil && gen == nil {
				err = errors.New("provider factory returned no generator")
			}
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if err != nil {
			e.log.Warn().Err(err).Msg("model initialization failed, using fallbacks")
			e.status = StatusDegraded
			return
		}
		e.generator = gen
		e.status = StatusReady
		e.log.Info().Msg("model initialized")
	})

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generator
}

// generate runs one model call through the circuit breaker
func (e *Engine) generate(ctx context.Context, gen TextGenerator, prompt string) (string, error) {
	res, err := e.breaker.Execute(func() (interface{}, error) {
		return gen.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return "", err
	}
	text, _ := res.(string)
	return text, nil
}

// Close releases the model client if one was created
func (e *Engine) Close() error {
	e.mu.RLock()
	gen := e.generator
	e.mu.RUnlock()

	if c, ok := gen.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Classify assigns exactly one category to the message text
func (e *Engine) Classify(ctx context.Context, text string) (category domain.Category) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("classification panicked")
			metrics.RecordModelCall("classify", "error")
			category = domain.CategoryPromotional
		}
	}()

	gen := e.model()
	if gen == nil {
		metrics.RecordModelCall("classify", "fallback")
		return offlineCategory(text)
	}

	answer, err := e.generate(ctx, gen, classifyPrompt(text))
	if errors.Is(err, errCircuitOpen) {
		metrics.RecordModelCall("classify", "fallback")
		return offlineCategory(text)
	}
	if err != nil {
		e.log.Warn().Err(err).Msg("classification error")
		metrics.RecordModelCall("classify", "error")
		return domain.CategoryPromotional
	}

	metrics.RecordModelCall("classify", "success")
	if c, ok := parseCategory(answer); ok {
		return c
	}
	return unrecognizedCategory(text)
}

// Summarize produces a short summary of the message text
func (e *Engine) Summarize(ctx context.Context, text string) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("summarization panicked")
			metrics.RecordModelCall("summarize", "error")
			summary = fallbackSummary(text)
		}
	}()

	gen := e.model()
	if gen == nil {
		metrics.RecordModelCall("summarize", "fallback")
		return fallbackSummary(text)
	}

	answer, err := e.generate(ctx, gen, summarizePrompt(textclean.Normalize(text)))
	if err != nil {
		if !errors.Is(err, errCircuitOpen) {
			e.log.Warn().Err(err).Msg("summarize failed")
		}
		metrics.RecordModelCall("summarize", "fallback")
		return fallbackSummary(text)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		metrics.RecordModelCall("summarize", "fallback")
		return fallbackSummary(text)
	}
	metrics.RecordModelCall("summarize", "success")
	return answer
}

// GenerateReply drafts a reply to content following the user's intent
func (e *Engine) GenerateReply(ctx context.Context, content, intent, senderName string) (string, error) {
	if strings.TrimSpace(content) == "" || strings.TrimSpace(intent) == "" {
		return "", domain.ErrMissingContent
	}

	gen := e.model()
	if gen == nil {
		return "", domain.ErrModelUnavailable
	}

	e.log.Info().Str("intent", intent).Msg("generating reply")
	answer, err := e.generate(ctx, gen, replyPrompt(content, intent, senderName))
	switch {
	case errors.Is(err, errCircuitOpen):
		metrics.RecordModelCall("reply", "fallback")
		return "", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	case errors.Is(err, gemini.ErrBlocked):
		e.log.Warn().Err(err).Msg("reply blocked by safety filter")
		metrics.RecordModelCall("reply", "blocked")
		return BlockedReply, nil
	case err != nil:
		metrics.RecordModelCall("reply", "error")
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	metrics.RecordModelCall("reply", "success")
	return strings.TrimSpace(answer), nil
}
