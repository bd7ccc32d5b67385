// internal/models/errors_test.go
package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := NewError(ErrInvalidAmount, "capture amount must be between 1 and 1000")
	if err.Error() != "INVALID_AMOUNT: capture amount must be between 1 and 1000" {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := NewError(ErrInternal, "")
	if bare.Error() != "INTERNAL_ERROR" {
		t.Errorf("Error() = %q, want bare code", bare.Error())
	}
}

func TestWrapErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrInternal, "failed to load payment", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if err.Error() != "INTERNAL_ERROR: failed to load payment" {
		t.Errorf("Error() = %q, cause must not leak into the message", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewError(ErrPaymentNotFound, "payment not found")); got != ErrPaymentNotFound {
		t.Errorf("CodeOf = %s, want PAYMENT_NOT_FOUND", got)
	}

	wrapped := fmt.Errorf("handler: %w", NewError(ErrInvalidStatus, "bad state"))
	if got := CodeOf(wrapped); got != ErrInvalidStatus {
		t.Errorf("CodeOf(wrapped) = %s, want INVALID_STATUS", got)
	}

	if got := CodeOf(errors.New("plain")); got != ErrInternal {
		t.Errorf("CodeOf(plain) = %s, want INTERNAL_ERROR", got)
	}
}

func TestIsCode(t *testing.T) {
	err := NewError(ErrMandateInactive, "mandate man_1 is revoked")
	if !IsCode(err, ErrMandateInactive) {
		t.Error("IsCode must match the carried code")
	}
	if IsCode(err, ErrMandateNotFound) {
		t.Error("IsCode must not match a different code")
	}
}
