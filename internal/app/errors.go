package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidCredential = errors.New("incorrect email or password")
	ErrUnauthorized      = errors.New("invalid or expired token")
	ErrForbidden         = errors.New("you do not have permission to perform this action")
	ErrItemNotFound      = errors.New("item not found")
	ErrChatUnavailable   = errors.New("chatbot service is unavailable")
)

// ValidationError carries the field that failed validation. It matches ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
