package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"mailsift-backend/pkg/logger"
)

// FallbackGenerator implements provider routing with fallback:
// the primary provider is tried first, the secondary when the primary is
// out of quota or unreachable.
type FallbackGenerator struct {
	primary   TextGenerator
	secondary TextGenerator
}

// NewFallbackGenerator creates a generator chaining two providers
func NewFallbackGenerator(primary, secondary TextGenerator) *FallbackGenerator {
	return &FallbackGenerator{
		primary:   primary,
		secondary: secondary,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// Generate implements TextGenerator.
// Only quota and connection failures of the primary are retried on the
// secondary; any other primary error is returned as is.
func (f *FallbackGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if f.primary == nil {
		if f.secondary == nil {
			return "", errors.New("no AI provider available")
		}
		return f.secondary.Generate(ctx, prompt)
	}

	result, err := f.primary.Generate(ctx, prompt)
	if err == nil {
		return result, nil
	}

	log := logger.For("AI")
	switch {
	case f.secondary == nil:
		return "", err
	case isQuotaError(err):
		log.Warn().Err(err).Msg("primary provider quota exhausted, falling back")
	case isConnectionError(err):
		log.Warn().Err(err).Msg("primary provider connection failed, falling back")
	default:
		return "", err
	}

	result, fallbackErr := f.secondary.Generate(ctx, prompt)
	if fallbackErr != nil {
		return "", fmt.Errorf("fallback provider failed: %w (primary: %v)", fallbackErr, err)
	}
	return result, nil
}

// Close releases both providers when they hold clients
func (f *FallbackGenerator) Close() error {
	var errs []error
	for _, gen := range []TextGenerator{f.primary, f.secondary} {
		if c, ok := gen.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
