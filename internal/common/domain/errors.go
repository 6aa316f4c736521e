package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a DomainError so transports can map it to a status.
type ErrorCode string

const (
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeInvalidState ErrorCode = "INVALID_STATE"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
)

// DomainError is a business-rule failure that is safe to show to the caller.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError reports malformed or rule-breaking input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewConflictError reports a clash with current state, e.g. an overlapping booking
// or a lost optimistic-lock race.
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// NewInvalidStateError reports an illegal status transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewInvalidStateMessage reports an illegal operation with a caller-facing message.
func NewInvalidStateMessage(message string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: message}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Code: CodeUnauthorized, Message: message}
}

// NewForbiddenError reports an identity that lacks the required role or ownership.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: message}
}

// AsDomainError unwraps err into a *DomainError when possible.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code ErrorCode) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND DomainError.
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsConflict reports whether err is a CONFLICT DomainError.
func IsConflict(err error) bool { return HasCode(err, CodeConflict) }
