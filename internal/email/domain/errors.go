package domain

import "errors"

var (
	// ErrStoreUnavailable is returned by operations that have no degraded mode
	ErrStoreUnavailable = errors.New("message store not initialized")
	// ErrModelUnavailable is returned when a generative model is required but absent
	ErrModelUnavailable = errors.New("text generation model not configured or unavailable")
	// ErrInvalidCredential wraps mail provider authentication failures
	ErrInvalidCredential = errors.New("invalid or expired access token")
	// ErrMissingContent is returned for requests without the required text fields
	ErrMissingContent = errors.New("missing content")
)
