package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, cache backend or document type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Rewrite Errors.

	// ErrConfiguration indicates the remote rewrite service has no usable
	// provider or credentials. Rewrites go straight to the local fallback.
	ErrConfiguration = errors.New("rewrite service not configured")

	// ErrQuotaExceeded indicates the provider rejected a call for rate or quota reasons.
	// Further remote calls for the current document are abandoned.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTransient indicates a retryable failure (network, timeout, upstream 5xx).
	ErrTransient = errors.New("transient error")

	// ErrExtraction indicates the provider responded but no text could be located.
	ErrExtraction = errors.New("no text in response")

	// ErrRetriesExhausted indicates a chunk failed on every allowed attempt.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrCacheUnavailable indicates the configured rewrite cache cannot be reached.
	ErrCacheUnavailable = errors.New("rewrite cache unavailable")
)

// QuotaError is returned by remote rewriters when the provider signals a
// rate or quota limit. RetryAfter carries the server hint when one was found.
type QuotaError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *QuotaError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("quota exceeded (retry after %s): %s", e.RetryAfter, e.Message)
	}
	return "quota exceeded: " + e.Message
}

// Unwrap lets errors.Is match ErrQuotaExceeded.
func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}

// TransientError is a retryable remote failure. Status is the HTTP status
// when the failure came from the provider, zero for transport errors.
type TransientError struct {
	Status     int
	RetryAfter time.Duration
	Err        error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *TransientError) Unwrap() []error {
	return []error{ErrTransient, e.Err}
}

// RewriteError is returned to callers when a rewrite could not complete and
// fallback was not permitted. Kind reports which failure stopped the run.
type RewriteError struct {
	Kind  ErrorKind
	Chunk int
	Err   error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("rewrite failed at chunk %d (%s): %v", e.Chunk+1, e.Kind, e.Err)
}

func (e *RewriteError) Unwrap() error {
	return e.Err
}

// KindOf maps an error onto the rewrite error taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrQuotaExceeded):
		return ErrorKindQuota
	case errors.Is(err, ErrConfiguration):
		return ErrorKindConfiguration
	case errors.Is(err, ErrExtraction):
		return ErrorKindExtraction
	default:
		return ErrorKindTransient
	}
}
