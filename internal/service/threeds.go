// internal/service/threeds.go
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

const authenticationTypeThreeDS = "three_ds"

// Handle3DSChallenge prepares the customer redirect for a 3-D Secure
// challenge and tags the active attempt's authentication type.
func (s *PaymentService) Handle3DSChallenge(ctx context.Context, paymentID string, req *models.ThreeDSChallengeRequest) (*models.ThreeDSChallenge, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if intent.Status != models.IntentStatusRequiresCustomerAction {
		return nil, models.NewError(models.ErrInvalidStatus,
			fmt.Sprintf("payment does not require customer action in status %s", intent.Status))
	}

	attempt, err := s.loadActiveAttempt(ctx, intent)
	if err != nil {
		return nil, err
	}

	authenticationID := req.AuthenticationID
	if authenticationID == "" {
		authenticationID = "auth_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	}

	attempt.AuthenticationType = authenticationTypeThreeDS
	attempt.ModifiedAt = time.Now()
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to update payment attempt", err)
	}

	redirectURL := fmt.Sprintf("%s/payments/redirect/%s/%s/%s",
		strings.TrimRight(s.cfg.RedirectBaseURL, "/"),
		intent.PaymentID, attempt.ID, authenticationID)

	s.logger.Info("3ds challenge prepared",
		zap.String("payment_id", intent.PaymentID),
		zap.String("attempt_id", attempt.ID),
		zap.String("authentication_id", authenticationID))

	return &models.ThreeDSChallenge{
		RedirectURL:      redirectURL,
		AuthenticationID: authenticationID,
	}, nil
}

// ResumeAfter3DS completes a payment once the customer returns from the
// 3-D Secure challenge. Verification failure fails the attempt and the
// intent with the connector's error detail.
func (s *PaymentService) ResumeAfter3DS(ctx context.Context, paymentID string, req *models.ThreeDSChallengeRequest) (*models.PaymentIntent, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if intent.Status != models.IntentStatusRequiresCustomerAction {
		return nil, models.NewError(models.ErrInvalidStatus,
			fmt.Sprintf("payment cannot be resumed in status %s", intent.Status))
	}

	attempt, err := s.loadActiveAttempt(ctx, intent)
	if err != nil {
		return nil, err
	}

	gateway, err := s.gatewayFor(attempt.Connector)
	if err != nil {
		return nil, err
	}

	_, err = gateway.Verify3DS(ctx, &connector.VerifyRequest{
		PaymentID:              intent.PaymentID,
		AuthenticationID:       req.AuthenticationID,
		ConnectorTransactionID: attempt.ConnectorTransactionID,
	})
	if err != nil {
		s.failAttempt(ctx, intent, attempt, err)
		s.recordAttemptOutcome(intent, attempt, false)
		return nil, connectorFailure(err)
	}

	now := time.Now()
	attempt.Status = models.AttemptStatusSucceeded
	attempt.ModifiedAt = now
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to update payment attempt", err)
	}

	if intent.AmountCaptured > 0 {
		intent.Status = models.IntentStatusSucceeded
	} else {
		intent.Status = models.IntentStatusRequiresCapture
	}
	intent.ModifiedAt = now

	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to update payment", err)
	}

	s.recordAttemptOutcome(intent, attempt, true)
	s.maybeCreateMandate(intent, attempt)

	s.logger.Info("payment resumed after 3ds",
		zap.String("payment_id", intent.PaymentID),
		zap.String("status", string(intent.Status)))

	return intent, nil
}
