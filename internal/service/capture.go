// internal/service/capture.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"payment-orchestrator/internal/connector"
	"payment-orchestrator/internal/models"
)

// CapturePayment captures previously authorized funds. An omitted amount
// captures the full remaining balance. A capture failure surfaces the
// connector error and leaves the intent status unchanged.
func (s *PaymentService) CapturePayment(ctx context.Context, paymentID string, req *models.CaptureRequest) (*models.PaymentIntent, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if intent.Status != models.IntentStatusRequiresCapture &&
		intent.Status != models.IntentStatusPartiallyCaptured {
		return nil, models.NewError(models.ErrInvalidStatus,
			fmt.Sprintf("payment cannot be captured in status %s", intent.Status))
	}

	remaining := intent.RemainingCapturable()
	amount := req.AmountToCapture
	if amount == 0 {
		amount = remaining
	}
	if amount <= 0 || amount > remaining {
		return nil, models.NewError(models.ErrInvalidAmount,
			fmt.Sprintf("capture amount must be between 1 and %d", remaining))
	}

	attempt, err := s.loadActiveAttempt(ctx, intent)
	if err != nil {
		return nil, err
	}

	gateway, err := s.gatewayFor(attempt.Connector)
	if err != nil {
		return nil, err
	}

	_, err = gateway.Capture(ctx, &connector.CaptureRequest{
		PaymentID:              intent.PaymentID,
		Amount:                 amount,
		Currency:               intent.Currency,
		ConnectorTransactionID: attempt.ConnectorTransactionID,
	})
	if err != nil {
		s.logger.Error("capture failed",
			zap.String("payment_id", intent.PaymentID),
			zap.String("connector", attempt.Connector),
			zap.Error(err))
		return nil, connectorFailure(err)
	}

	intent.AmountCaptured += amount
	if intent.AmountCaptured >= intent.Amount {
		intent.Status = models.IntentStatusSucceeded
	} else {
		intent.Status = models.IntentStatusPartiallyCaptured
	}
	intent.ModifiedAt = time.Now()

	attempt.Status = models.AttemptStatusSucceeded
	attempt.AmountCapturable = intent.Amount - intent.AmountCaptured
	attempt.ModifiedAt = time.Now()

	if err := s.attempts.Update(ctx, attempt); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to update payment attempt", err)
	}
	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to update payment", err)
	}

	s.logger.Info("payment captured",
		zap.String("payment_id", intent.PaymentID),
		zap.Int64("amount", amount),
		zap.String("status", string(intent.Status)))

	return intent, nil
}

// IncrementAuthorization raises the authorized amount before capture. The
// new amount must exceed the current one; intent and attempt amounts move in
// one transaction.
func (s *PaymentService) IncrementAuthorization(ctx context.Context, paymentID string, req *models.IncrementAuthorizationRequest) (*models.PaymentIntent, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if intent.Status != models.IntentStatusRequiresCapture {
		return nil, models.NewError(models.ErrInvalidStatus,
			fmt.Sprintf("authorization cannot be incremented in status %s", intent.Status))
	}

	if req.Amount <= intent.Amount {
		return nil, models.NewError(models.ErrInvalidAmount,
			fmt.Sprintf("new amount %d must exceed the authorized amount %d", req.Amount, intent.Amount))
	}

	attempt, err := s.loadActiveAttempt(ctx, intent)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	intent.Amount = req.Amount
	intent.ModifiedAt = now
	attempt.AmountToCapture = req.Amount
	attempt.AmountCapturable = req.Amount - intent.AmountCaptured
	attempt.ModifiedAt = now

	if err := s.intents.UpdateWithAttempt(ctx, intent, attempt); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to increment authorization", err)
	}

	s.logger.Info("authorization incremented",
		zap.String("payment_id", intent.PaymentID),
		zap.Int64("amount", intent.Amount))

	return intent, nil
}

// VoidPayment releases an uncaptured authorization. The intent is cancelled
// and the attempt voided with the supplied reason.
func (s *PaymentService) VoidPayment(ctx context.Context, paymentID string, req *models.CancelPaymentRequest) (*models.PaymentIntent, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if intent.Status != models.IntentStatusRequiresCapture {
		return nil, models.NewError(models.ErrInvalidStatus,
			fmt.Sprintf("payment cannot be voided in status %s", intent.Status))
	}

	attempt, err := s.loadActiveAttempt(ctx, intent)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	attempt.Status = models.AttemptStatusVoided
	attempt.CancellationReason = req.CancellationReason
	attempt.ModifiedAt = now

	if err := s.attempts.Update(ctx, attempt); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to void payment attempt", err)
	}

	intent.Status = models.IntentStatusCancelled
	intent.ModifiedAt = now

	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to void payment", err)
	}

	s.logger.Info("payment voided",
		zap.String("payment_id", intent.PaymentID),
		zap.String("reason", req.CancellationReason))

	return intent, nil
}
