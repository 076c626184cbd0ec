package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed matches every backend failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrRetryExhausted matches failures that stayed transient through every attempt.
	ErrRetryExhausted = errors.New("retries exhausted")
	// ErrUnknownProvider is returned by New for unrecognized provider names.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingCredential is returned when the network backend has no API key.
	ErrMissingCredential = errors.New("missing API credential")
	// ErrMalformedResponse is returned when the backend reply lacks content.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// GenerationError carries the attempt count and last cause of a failed call.
type GenerationError struct {
	Provider  string
	Attempts  int
	Transient bool
	Err       error
}

func (e *GenerationError) Error() string {
	if e.Transient {
		return fmt.Sprintf("%s: %s: %s after %d attempts: %v", ErrGenerationFailed, e.Provider, ErrRetryExhausted, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %s (attempt %d): %v", ErrGenerationFailed, e.Provider, e.Attempts, e.Err)
}

// Unwrap exposes ErrGenerationFailed, ErrRetryExhausted when transient, and
// the underlying cause.
func (e *GenerationError) Unwrap() []error {
	errs := []error{ErrGenerationFailed}
	if e.Transient {
		errs = append(errs, ErrRetryExhausted)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AttemptsOf returns the attempt count recorded in err, or 0.
func AttemptsOf(err error) int {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Attempts
	}
	return 0
}
