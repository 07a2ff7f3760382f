package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError for callers and for HTTP status mapping.
type Kind string

const (
	KindValidationFailed   Kind = "VALIDATION_FAILED"
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalid            Kind = "INVALID"
	KindExpired            Kind = "EXPIRED"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindUnexpected         Kind = "UNEXPECTED"
	KindRegistrationFailed Kind = "REGISTRATION_FAILED"
)

// Details holds per-field messages. Values are strings or nested Details.
type Details map[string]any

type AppError struct {
	Kind    Kind
	Message string
	Status  int
	Details Details
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithStatus overrides the status derived from the kind.
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// WithDetails attaches a details payload.
func (e *AppError) WithDetails(details Details) *AppError {
	e.Details = details
	return e
}

func NewAppError(kind Kind, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Status:  StatusFor(kind),
		Err:     err,
	}
}

// StatusFor returns the default HTTP status for a kind.
func StatusFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnexpected, KindRegistrationFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func ValidationFailed(message string, details Details) *AppError {
	return NewAppError(KindValidationFailed, message, nil).WithDetails(details)
}

func NotFound(message string) *AppError {
	return NewAppError(KindNotFound, message, nil)
}

func Invalid(message string) *AppError {
	return NewAppError(KindInvalid, message, nil)
}

func Expired(message string) *AppError {
	return NewAppError(KindExpired, message, nil)
}

func Unauthorized(message string) *AppError {
	return NewAppError(KindUnauthorized, message, nil)
}

// Unexpected wraps a lower-layer failure. The cause's message is kept in
// Details so it survives the rewrap.
func Unexpected(message string, err error) *AppError {
	appErr := NewAppError(KindUnexpected, message, err)
	if err != nil {
		appErr.Details = Details{"cause": err.Error()}
	}
	return appErr
}

func RegistrationFailed(err error) *AppError {
	appErr := NewAppError(KindRegistrationFailed, "An error occurred during registration", err)
	if err != nil {
		appErr.Details = Details{"cause": err.Error()}
	}
	return appErr
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
