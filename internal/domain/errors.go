package domain

import (
	"errors"
	"fmt"
)

var (
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrDuplicateEmail      = errors.New("duplicate email")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRegistrationFailed  = errors.New("registration failed")
	ErrLoginFailed         = errors.New("login failed")
	ErrProfileUpdateFailed = errors.New("profile update failed")
	ErrOrdersFetchFailed   = errors.New("orders fetch failed")
	ErrOrderCreationFailed = errors.New("order creation failed")
	ErrValidationFailed    = errors.New("validation failed")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrProductNotFound     = errors.New("product not found")
	ErrCatalogFetchFailed  = errors.New("catalog fetch failed")
)

// Error is a classified failure carrying a message fit to show to a user.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func NewError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

type ValidationError struct {
	Field   string
	Message string
}

func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
