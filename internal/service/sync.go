// internal/service/sync.go
package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"payment-orchestrator/internal/connector"
	"payment-orchestrator/internal/models"
)

// syncInterval is the window within which a repeat sync skips the remote
// connector call unless forced.
const syncInterval = 5 * time.Minute

// SyncPayment reconciles the intent's status with the connector's view. The
// remote call is skipped when the intent was synced within the last five
// minutes, unless forceSync is set.
func (s *PaymentService) SyncPayment(ctx context.Context, paymentID string, forceSync bool) (*models.PaymentIntent, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attempts.GetLatestByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to load payment attempt", err)
	}
	if attempt == nil {
		return nil, models.NewError(models.ErrPaymentAttemptNotFound, "payment has no attempts to sync")
	}

	if attempt.Connector == "" || attempt.ConnectorTransactionID == "" {
		return nil, models.NewError(models.ErrMissingConnectorInfo,
			"attempt is missing connector or connector transaction id")
	}

	// A throttled sync returns the stored row untouched: last_synced_at and
	// the sync_count metadata are stamped only when the connector is queried.
	if !forceSync && intent.LastSyncedAt != nil && time.Since(*intent.LastSyncedAt) < syncInterval {
		return intent, nil
	}

	gateway, err := s.gatewayFor(attempt.Connector)
	if err != nil {
		return nil, err
	}

	resp, err := gateway.SyncPayment(ctx, &connector.SyncRequest{
		ConnectorTransactionID: attempt.ConnectorTransactionID,
	})
	if err != nil {
		return nil, connectorFailure(err)
	}

	mapped := mapConnectorStatus(resp.Status)
	now := time.Now()

	if mapped != intent.Status && models.CanTransition(intent.Status, mapped) {
		intent.Status = mapped

		attemptStatus := attemptStatusFor(mapped)
		if attemptStatus != attempt.Status {
			attempt.Status = attemptStatus
			attempt.ModifiedAt = now
			if err := s.attempts.Update(ctx, attempt); err != nil {
				return nil, models.WrapError(models.ErrInternal, "failed to update payment attempt", err)
			}
		}
	}

	intent.Metadata = models.MergeMetadata(intent.Metadata, map[string]interface{}{
		"last_sync_at": now.Format(time.RFC3339),
		"sync_count":   metadataSyncCount(intent.Metadata) + 1,
	})
	intent.LastSyncedAt = &now
	intent.ModifiedAt = now

	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to update payment", err)
	}

	s.logger.Info("payment synced",
		zap.String("payment_id", paymentID),
		zap.String("connector_status", resp.Status),
		zap.String("status", string(intent.Status)))

	return intent, nil
}

// mapConnectorStatus maps a raw connector status string onto an internal
// intent status by case-insensitive substring matching. Unknown statuses
// default to processing.
func mapConnectorStatus(raw string) models.IntentStatus {
	status := strings.ToLower(raw)
	switch {
	case strings.Contains(status, "succeeded") ||
		strings.Contains(status, "success") ||
		strings.Contains(status, "completed") ||
		strings.Contains(status, "captured"):
		return models.IntentStatusSucceeded
	case strings.Contains(status, "failed") ||
		strings.Contains(status, "declined") ||
		strings.Contains(status, "rejected"):
		return models.IntentStatusFailed
	case strings.Contains(status, "authorized") ||
		strings.Contains(status, "pending_capture"):
		return models.IntentStatusRequiresCapture
	case strings.Contains(status, "pending") ||
		strings.Contains(status, "processing"):
		return models.IntentStatusProcessing
	default:
		return models.IntentStatusProcessing
	}
}

func attemptStatusFor(status models.IntentStatus) models.AttemptStatus {
	switch status {
	case models.IntentStatusSucceeded, models.IntentStatusRequiresCapture:
		return models.AttemptStatusSucceeded
	case models.IntentStatusFailed:
		return models.AttemptStatusFailed
	default:
		return models.AttemptStatusProcessing
	}
}

func metadataSyncCount(metadata map[string]interface{}) int {
	if metadata == nil {
		return 0
	}
	switch v := metadata["sync_count"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
