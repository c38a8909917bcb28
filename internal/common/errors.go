// Package common defines shared constants and sentinel errors used across
// the server, its HTTP layer and the admin CLI. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")

	// Account state.
	ErrInactiveAccount = errors.New("inactive account")

	// Validation errors.
	ErrMalformedInput = errors.New("malformed input")
)

// DetailError attaches a client-facing message to one of the sentinel errors
// above. errors.Is still matches the sentinel.
type DetailError struct {
	Kind   error
	Detail string
}

func (e *DetailError) Error() string {
	return e.Kind.Error() + ": " + e.Detail
}

func (e *DetailError) Unwrap() error {
	return e.Kind
}

// WithDetail wraps kind with a human-readable detail string.
func WithDetail(kind error, detail string) error {
	return &DetailError{Kind: kind, Detail: detail}
}

// DetailOf returns the detail carried by err, or "" if there is none.
func DetailOf(err error) string {
	var de *DetailError
	if errors.As(err, &de) {
		return de.Detail
	}
	return ""
}
