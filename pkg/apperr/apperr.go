package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes the API surfaces to clients.
// Handlers map these onto HTTP statuses; everything else is a server fault.
var (
	ErrAuthRequired    = errors.New("authentication required")
	ErrUnknownProvider = errors.New("unknown email provider")
	ErrTokenNotFound   = errors.New("token not found")
	ErrEmptyCorpus     = errors.New("no messages in the requested range")
)

// ProviderAPIError wraps an upstream mail-provider failure (listing, auth exchange, refresh).
type ProviderAPIError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderAPIError) Unwrap() error { return e.Err }

// GenerationError wraps a summarize/embed/complete failure from the AI gateway.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError wraps a corpus/credential store read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError reports a malformed client input (missing query, bad date range).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsClientFault reports whether the error should be answered as a client error
// rather than a server fault.
func IsClientFault(err error) bool {
	if errors.Is(err, ErrAuthRequired) || errors.Is(err, ErrUnknownProvider) ||
		errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrEmptyCorpus) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
