// internal/models/errors.go
package models

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrInvalidRequest         ErrorCode = "INVALID_REQUEST"
	ErrInvalidStatus          ErrorCode = "INVALID_STATUS"
	ErrInvalidAmount          ErrorCode = "INVALID_AMOUNT"
	ErrNoConnectorAvailable   ErrorCode = "NO_CONNECTOR_AVAILABLE"
	ErrPaymentNotFound        ErrorCode = "PAYMENT_NOT_FOUND"
	ErrPaymentAttemptNotFound ErrorCode = "PAYMENT_ATTEMPT_NOT_FOUND"
	ErrRefundNotFound         ErrorCode = "REFUND_NOT_FOUND"
	ErrMandateNotFound        ErrorCode = "MANDATE_NOT_FOUND"
	ErrMandateInactive        ErrorCode = "MANDATE_INACTIVE"
	ErrMissingConnectorInfo   ErrorCode = "MISSING_CONNECTOR_INFO"
	ErrInternal               ErrorCode = "INTERNAL_ERROR"
)

// Error is the typed failure result every orchestrator operation returns.
// Connector-originated failures carry the connector's own code and message
// verbatim.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a typed error with a stable code and human-readable message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError attaches an underlying cause without leaking it to callers; the
// cause is reachable via errors.Unwrap for logging only.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the error code from err, or ErrInternal if err is not a
// typed orchestration error.
func CodeOf(err error) ErrorCode {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
