// Package faults defines the error taxonomy shared by every service and the
// mapping from errors to HTTP responses. Handlers must never forward raw store
// error text to callers; they go through ClientMessage instead.
package faults

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed or out-of-range caller input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to an unknown meter, tariff or customer.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a concurrency conflict (token collision, lost-update
	// race) that exhausted its internal retries.
	ErrConflict = errors.New("conflict")

	// ErrIntegrity marks a duplicate unique key such as a meter number.
	ErrIntegrity = errors.New("integrity violation")

	// ErrTransientStore marks a store connection or timeout failure the caller
	// may retry with backoff.
	ErrTransientStore = errors.New("transient store failure")

	// ErrFatal marks unrecoverable store corruption.
	ErrFatal = errors.New("fatal store failure")
)

// Validationf wraps a formatted message as a validation error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// NotFoundf wraps a formatted message as a not-found error.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Conflictf wraps a formatted message as a conflict error.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}

// Integrityf wraps a formatted message as an integrity error.
func Integrityf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIntegrity}, args...)...)
}

// Store classifies an error coming back from the persistence layer. The store
// detail is retained for logs via %w but callers only ever see the taxonomy
// message.
func Store(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransientStore, err)
}

// HTTPStatus maps a taxonomy error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrIntegrity):
		return http.StatusConflict
	case errors.Is(err, ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the text safe to expose to callers. Client-fault
// errors carry their full message; store faults collapse to the taxonomy
// sentinel so driver strings never leak.
func ClientMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrIntegrity):
		return err.Error()
	case errors.Is(err, ErrTransientStore):
		return ErrTransientStore.Error()
	default:
		return "internal error"
	}
}
