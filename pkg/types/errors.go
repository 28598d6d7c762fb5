package types

import (
	"errors"
	"fmt"
)

// ErrorKind represents different categories of booking errors.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "validation"
	ErrorKindNotFound          ErrorKind = "not_found"
	ErrorKindSlotNotFound      ErrorKind = "slot_not_found"
	ErrorKindSlotUnavailable   ErrorKind = "slot_unavailable"
	ErrorKindCapacityConflict  ErrorKind = "capacity_conflict"
	ErrorKindInvalidTransition ErrorKind = "invalid_transition"
	ErrorKindInternal          ErrorKind = "internal"
)

// BookingError is the structured error surfaced by the booking core.
type BookingError struct {
	Kind    ErrorKind              `json:"kind"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *BookingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *BookingError) Unwrap() error {
	return e.Cause
}

// KindOf returns the ErrorKind of err, or ErrorKindInternal for errors that
// did not originate in the booking core.
func KindOf(err error) ErrorKind {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ErrorKindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// NewValidationError creates a new validation error.
func NewValidationError(code, message string, details map[string]interface{}) *BookingError {
	return &BookingError{
		Kind:    ErrorKindValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(code, message string) *BookingError {
	return &BookingError{
		Kind:    ErrorKindNotFound,
		Code:    code,
		Message: message,
	}
}

// NewSlotNotFoundError creates an error for a slot the doctor never declared.
func NewSlotNotFoundError(message string) *BookingError {
	return &BookingError{
		Kind:    ErrorKindSlotNotFound,
		Code:    ErrCodeSlotNotFound,
		Message: message,
	}
}

// NewSlotUnavailableError creates an error for an exhausted or expired slot.
// This is an expected, retryable outcome of losing a booking race.
func NewSlotUnavailableError(message string) *BookingError {
	return &BookingError{
		Kind:    ErrorKindSlotUnavailable,
		Code:    ErrCodeSlotUnavailable,
		Message: message,
	}
}

// NewCapacityConflictError creates an error for an availability edit that
// would violate existing reservations.
func NewCapacityConflictError(message string, details map[string]interface{}) *BookingError {
	return &BookingError{
		Kind:    ErrorKindCapacityConflict,
		Code:    ErrCodeCapacityConflict,
		Message: message,
		Details: details,
	}
}

// NewInvalidTransitionError creates an error for an illegal status change.
func NewInvalidTransitionError(message string, details map[string]interface{}) *BookingError {
	return &BookingError{
		Kind:    ErrorKindInvalidTransition,
		Code:    ErrCodeInvalidTransition,
		Message: message,
		Details: details,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(code, message string, cause error) *BookingError {
	return &BookingError{
		Kind:    ErrorKindInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeSlotNotFound      = "SLOT_NOT_FOUND"
	ErrCodeSlotUnavailable   = "SLOT_UNAVAILABLE"
	ErrCodeCapacityConflict  = "CAPACITY_CONFLICT"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)
