package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation signals a malformed request rejected before any I/O.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited signals an exhausted request quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrBackendUnavailable signals that every targeted database failed.
	ErrBackendUnavailable = errors.New("all search backends unavailable")
	// ErrEnhancerUnavailable signals a failed query rewrite. Never surfaced to
	// callers; the orchestrator falls back to the raw query.
	ErrEnhancerUnavailable = errors.New("query enhancer unavailable")
)

// RateLimitError wraps ErrRateLimited with the quota state for response headers.
type RateLimitError struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Tier       string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited.Error(), e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error for a single field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
