// Package shared contains the error kinds used across the records domain.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Query outcomes
	ErrEmptyResult = errors.New("empty result")

	// History errors
	ErrHistoryEmpty = errors.New("history is empty")

	// Storage errors
	ErrStorage = errors.New("storage error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "discipline", "history"
	Op      string // Operation that failed, e.g., "Add", "Remove"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student errors
var (
	ErrStudentIDInvalid     = NewDomainError("student", "Validate", ErrInvalidID, "id must be an integer")
	ErrStudentAlreadyExists = NewDomainError("student", "Add", ErrAlreadyExists, "a student with this id already exists")
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student with this id does not exist")
	ErrStudentListEmpty     = NewDomainError("student", "Report", ErrEmptyResult, "the student list is empty")
)

// Discipline errors
var (
	ErrDisciplineIDInvalid     = NewDomainError("discipline", "Validate", ErrInvalidID, "id must be an integer")
	ErrDisciplineAlreadyExists = NewDomainError("discipline", "Add", ErrAlreadyExists, "a discipline with this id already exists")
	ErrDisciplineNotFound      = NewDomainError("discipline", "Find", ErrNotFound, "discipline with this id does not exist")
	ErrDisciplineListEmpty     = NewDomainError("discipline", "Report", ErrEmptyResult, "the discipline list is empty")
)

// Input errors
var (
	ErrInvalidName   = NewDomainError("record", "Validate", ErrInvalidInput, "name must be non-blank and must not contain commas or line breaks")
	ErrInvalidGrade  = NewDomainError("grade", "Validate", ErrInvalidInput, "grade must be an integer")
	ErrInvalidSearch = NewDomainError("search", "Validate", ErrInvalidInput, "the search string is invalid")
)

// History errors
var (
	ErrNothingToUndo = NewDomainError("history", "Undo", ErrHistoryEmpty, "no operation to undo")
	ErrNothingToRedo = NewDomainError("history", "Redo", ErrHistoryEmpty, "no operation to redo")
)

// Storage errors
var (
	ErrRecordNotFound  = NewDomainError("storage", "Remove", ErrNotFound, "record not present in storage")
	ErrCorruptSnapshot = NewDomainError("storage", "Load", ErrInvalidFormat, "snapshot is corrupt")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsEmptyResult reports whether a report query matched nothing.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrEmptyResult)
}

// IsHistoryEmpty reports whether undo or redo had nothing to act on.
func IsHistoryEmpty(err error) bool {
	return errors.Is(err, ErrHistoryEmpty)
}
