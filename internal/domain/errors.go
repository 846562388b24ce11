package domain

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRateLimited       = errors.New("rate limited")
)

// Error is a typed outcome carrying a client-safe message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func Validation(msg string) error        { return &Error{Kind: ErrValidation, Message: msg} }
func NotFound(msg string) error          { return &Error{Kind: ErrNotFound, Message: msg} }
func InvalidTransition(msg string) error { return &Error{Kind: ErrInvalidTransition, Message: msg} }
func RateLimited(msg string) error       { return &Error{Kind: ErrRateLimited, Message: msg} }

// Message returns the client-facing message of a typed error, or fallback.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
