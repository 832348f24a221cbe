package utils

import "errors"

// ErrNotFound marks lookups whose id did not resolve. Surfaced as 404.
var ErrNotFound = errors.New("resource not found")

// ValidationError covers bad input and rejected business rules. Surfaced as 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ConflictError covers uniqueness violations such as a duplicate SKU. Surfaced as 409.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}
