// internal/service/refund_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payment-orchestrator/internal/connector"
	"payment-orchestrator/internal/models"
)

// RefundPayment returns previously captured funds. The refund row is created
// pending and persisted exactly once after the connector call, whichever way
// it went.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID string, req *models.RefundRequest) (*models.Refund, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.loadActiveAttempt(ctx, intent)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount == 0 {
		amount = intent.AmountCaptured
	}
	if amount <= 0 || amount > intent.AmountCaptured {
		return nil, models.NewError(models.ErrInvalidAmount,
			fmt.Sprintf("refund amount must be between 1 and %d", intent.AmountCaptured))
	}

	// Resolve the gateway before writing anything: an unknown connector must
	// not leave a pending refund row behind that no sync can ever settle.
	gateway, err := s.gatewayFor(attempt.Connector)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refund := &models.Refund{
		ID:                     uuid.New().String(),
		RefundID:               "ref_" + uuid.New().String(),
		PaymentID:              intent.PaymentID,
		MerchantID:             intent.MerchantID,
		AttemptID:              attempt.ID,
		Connector:              attempt.Connector,
		ConnectorTransactionID: attempt.ConnectorTransactionID,
		TotalAmount:            intent.AmountCaptured,
		RefundAmount:           amount,
		Currency:               intent.Currency,
		RefundStatus:           models.RefundStatusPending,
		RefundReason:           req.Reason,
		CreatedAt:              now,
		ModifiedAt:             now,
	}

	if err := s.refunds.Create(ctx, refund); err != nil {
		s.logger.Error("failed to create refund",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to create refund", err)
	}

	resp, callErr := gateway.Refund(ctx, &connector.RefundRequest{
		PaymentID:              intent.PaymentID,
		RefundID:               refund.RefundID,
		Amount:                 amount,
		Currency:               intent.Currency,
		ConnectorTransactionID: attempt.ConnectorTransactionID,
		Reason:                 req.Reason,
	})

	if callErr != nil {
		refund.RefundStatus = models.RefundStatusFailed
		refund.RefundError = connectorFailure(callErr).Message
	} else {
		refund.RefundStatus = models.RefundStatusSucceeded
		refund.SentToGateway = true
		refund.ConnectorRefundID = resp.RefundID
	}
	refund.ModifiedAt = time.Now()

	if err := s.refunds.Update(ctx, refund); err != nil {
		s.logger.Error("failed to persist refund outcome",
			zap.String("refund_id", refund.RefundID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to persist refund", err)
	}

	if callErr != nil {
		s.logger.Error("refund failed at connector",
			zap.String("refund_id", refund.RefundID),
			zap.String("connector", attempt.Connector),
			zap.Error(callErr))
		return refund, connectorFailure(callErr)
	}

	s.logger.Info("refund succeeded",
		zap.String("refund_id", refund.RefundID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount", amount))

	return refund, nil
}

// SyncRefund re-queries the connector for the refund's current status. The
// stored row is rewritten only when the status actually changed.
func (s *PaymentService) SyncRefund(ctx context.Context, refundID string) (*models.Refund, error) {
	refund, err := s.refunds.GetByRefundID(ctx, refundID)
	if err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to load refund", err)
	}
	if refund == nil {
		return nil, models.NewError(models.ErrRefundNotFound, "refund not found")
	}

	if refund.Connector == "" || (refund.ConnectorRefundID == "" && refund.ConnectorTransactionID == "") {
		return nil, models.NewError(models.ErrMissingConnectorInfo, "refund has no connector reference")
	}

	gateway, err := s.gatewayFor(refund.Connector)
	if err != nil {
		return nil, err
	}

	resp, err := gateway.SyncRefund(ctx, &connector.SyncRequest{
		ConnectorTransactionID: refund.ConnectorTransactionID,
		ConnectorRefundID:      refund.ConnectorRefundID,
	})
	if err != nil {
		return nil, connectorFailure(err)
	}

	mapped := mapRefundStatus(resp.Status)
	if mapped == refund.RefundStatus {
		return refund, nil
	}

	refund.RefundStatus = mapped
	refund.ModifiedAt = time.Now()
	if err := s.refunds.Update(ctx, refund); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to persist refund status", err)
	}

	s.logger.Info("refund status synced",
		zap.String("refund_id", refundID),
		zap.String("status", string(mapped)))

	return refund, nil
}

func mapRefundStatus(raw string) models.RefundStatus {
	status := strings.ToLower(raw)
	switch {
	case strings.Contains(status, "succeed") || strings.Contains(status, "success"):
		return models.RefundStatusSucceeded
	case strings.Contains(status, "fail") || strings.Contains(status, "declin"):
		return models.RefundStatusFailed
	default:
		return models.RefundStatusPending
	}
}
