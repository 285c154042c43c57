package domain

import (
	"errors"
	"fmt"
)

// KeyPrefix namespaces every key evidex writes to the KV store.
const KeyPrefix = "evidex:"

var (
	// ErrNotFound signals a missing catalog or record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals request parameters that fail validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidCatalog signals malformed catalog data.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrUpstream signals a failure of the PubMed E-utilities API.
	ErrUpstream = errors.New("upstream error")
	// ErrQuotaExceeded signals an exhausted AI token budget.
	ErrQuotaExceeded = errors.New("ai token quota exceeded")
	// ErrAIProviderError signals an AI provider failure.
	ErrAIProviderError = errors.New("ai provider error")
	// ErrNotConfigured signals a feature whose backend is not configured.
	ErrNotConfigured = errors.New("not configured")
)

// ValidationError wraps ErrInvalidRequest with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
