// Package providers wraps the external AI services: text completion,
// image generation and speech synthesis. Each client performs exactly
// one network call per invocation with a bounded timeout and translates
// provider failures into a normalized kind. Retrying is the caller's
// concern, never the client's.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// FailureKind is the normalized classification of a provider failure.
type FailureKind string

const (
	FailureRateLimited    FailureKind = "rate_limited"
	FailureInvalidRequest FailureKind = "invalid_request"
	FailureUnavailable    FailureKind = "provider_unavailable"
	FailureTimeout        FailureKind = "timeout"
	FailureUnknown        FailureKind = "unknown"
)

// Error is a normalized provider failure.
type Error struct {
	Provider   string
	Kind       FailureKind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider: %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s provider: %s: %s", e.Provider, e.Kind, e.Message)
}

// AsError extracts a normalized provider error from err, if present.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}

	return nil, false
}

// IsRateLimited reports whether err is a normalized rate-limit failure.
func IsRateLimited(err error) bool {
	pe, ok := AsError(err)

	return ok && pe.Kind == FailureRateLimited
}

// IsTimeout reports whether err is a normalized timeout failure.
func IsTimeout(err error) bool {
	pe, ok := AsError(err)

	return ok && pe.Kind == FailureTimeout
}

const (
	// DefaultGenerateTimeout bounds generation calls.
	DefaultGenerateTimeout = 60 * time.Second

	// DefaultDownloadTimeout bounds artifact downloads.
	DefaultDownloadTimeout = 30 * time.Second
)

// Config carries the endpoints and credentials for all providers.
type Config struct {
	CompletionBaseURL string
	CompletionAPIKey  string
	SpeechBaseURL     string
	SpeechAPIKey      string
	GenerateTimeout   time.Duration
	DownloadTimeout   time.Duration
}

func (c Config) generateTimeout() time.Duration {
	if c.GenerateTimeout > 0 {
		return c.GenerateTimeout
	}

	return DefaultGenerateTimeout
}

func (c Config) downloadTimeout() time.Duration {
	if c.DownloadTimeout > 0 {
		return c.DownloadTimeout
	}

	return DefaultDownloadTimeout
}

// classifyStatus maps an HTTP status to a failure kind.
func classifyStatus(status int) FailureKind {
	switch {
	case status == http.StatusTooManyRequests:
		return FailureRateLimited
	case status >= 400 && status < 500:
		return FailureInvalidRequest
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return FailureUnavailable
	case status >= 500:
		return FailureUnavailable
	}

	return FailureUnknown
}

// classifyTransport maps a transport error to a failure kind.
func classifyTransport(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return FailureTimeout
	}

	return FailureUnavailable
}
