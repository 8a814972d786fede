package common

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// ServiceError carries a client-safe message alongside one of the sentinel kinds
type ServiceError struct {
	Kind    error
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

// ValidationError reports a bad client input
func ValidationError(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing resource
func NotFoundError(resource string) error {
	return &ServiceError{Kind: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// ForbiddenError reports an authenticated caller acting outside their rights
func ForbiddenError(message string) error {
	return &ServiceError{Kind: ErrForbidden, Message: message}
}

// UnauthorizedError reports a missing or invalid credential
func UnauthorizedError(message string) error {
	return &ServiceError{Kind: ErrUnauthorized, Message: message}
}

// ConflictError reports a write that collided with existing state
func ConflictError(message string) error {
	return &ServiceError{Kind: ErrConflict, Message: message}
}
