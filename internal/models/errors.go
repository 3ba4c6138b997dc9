package models

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a domain error category surfaced to API callers.
type ErrorCode string

const (
	CodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionExpired     ErrorCode = "SESSION_EXPIRED"
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeGenerationDegraded ErrorCode = "GENERATION_DEGRADED"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// DomainError carries a machine-readable code alongside the message so
// callers can branch without string matching. Only CodeInternal crosses the
// API boundary with a sanitized message.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Sentinel errors for session lookup failures. Both unwrap to a DomainError
// through ErrorCodeOf.
var (
	ErrSessionNotFound = &DomainError{Code: CodeSessionNotFound, Message: "session not found"}
	ErrSessionExpired  = &DomainError{Code: CodeSessionExpired, Message: "session expired"}
)

// NewValidationError builds a caller-input error.
func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ErrorCodeOf extracts the domain code from err, defaulting to CodeInternal
// for anything that is not a DomainError.
func ErrorCodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
