// internal/service/payment_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payment-orchestrator/internal/connector"
	"payment-orchestrator/internal/models"
	"payment-orchestrator/internal/routing"
)

const idempotencyTTL = 24 * time.Hour

// CreatePayment persists a new payment intent in requires_confirmation. The
// write is wrapped in a single transaction by the store; everything after a
// successful return operates on a committed row.
func (s *PaymentService) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.PaymentIntent, error) {
	if req.Amount == nil {
		return nil, models.NewError(models.ErrInvalidRequest, "amount is required")
	}
	if *req.Amount < 0 {
		return nil, models.NewError(models.ErrInvalidRequest, "amount must not be negative")
	}
	if req.MerchantID == "" {
		return nil, models.NewError(models.ErrInvalidRequest, "merchant_id is required")
	}
	if req.Currency == "" {
		return nil, models.NewError(models.ErrInvalidRequest, "currency is required")
	}

	if req.IdempotencyKey != "" {
		if cached := s.getIdempotentIntent(ctx, req.IdempotencyKey); cached != nil {
			return cached, nil
		}
	}

	paymentID := "pay_" + uuid.New().String()
	now := time.Now()

	intent := &models.PaymentIntent{
		ID:               uuid.New().String(),
		PaymentID:        paymentID,
		MerchantID:       req.MerchantID,
		CustomerID:       req.CustomerID,
		ProfileID:        req.ProfileID,
		OrganizationID:   req.OrganizationID,
		Amount:           minorUnits(*req.Amount),
		Currency:         strings.ToUpper(req.Currency),
		Status:           models.IntentStatusRequiresConfirmation,
		OffSession:       req.OffSession,
		SetupFutureUsage: req.SetupFutureUsage,
		ClientSecret:     generateClientSecret(paymentID),
		Description:      req.Description,
		ReturnURL:        req.ReturnURL,
		PaymentMethod:    req.PaymentMethod,
		Metadata:         req.Metadata,
		CreatedAt:        now,
		ModifiedAt:       now,
	}

	if err := s.intents.Create(ctx, intent); err != nil {
		s.logger.Error("failed to create payment intent",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to create payment", err)
	}

	// The row is committed at this point; the idempotency cache write is
	// best effort and must not surface.
	if req.IdempotencyKey != "" {
		s.cacheIdempotentIntent(ctx, req.IdempotencyKey, intent)
	}

	s.logger.Info("payment created",
		zap.String("payment_id", paymentID),
		zap.String("merchant_id", req.MerchantID),
		zap.Int64("amount", intent.Amount),
		zap.String("currency", intent.Currency))

	return intent, nil
}

// ConfirmPayment drives the intent through connector selection, attempt
// creation, and authorization. Off-session confirmations carrying recurring
// details divert into the merchant-initiated flow.
func (s *PaymentService) ConfirmPayment(ctx context.Context, paymentID string, req *models.ConfirmPaymentRequest) (*models.PaymentIntent, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if intent.Status != models.IntentStatusRequiresConfirmation &&
		intent.Status != models.IntentStatusRequiresCustomerAction {
		return nil, models.NewError(models.ErrInvalidStatus,
			fmt.Sprintf("payment cannot be confirmed in status %s", intent.Status))
	}

	if req.Recurring() {
		return s.confirmOffSession(ctx, intent, req)
	}

	return s.authorize(ctx, intent, req)
}

// confirmOffSession handles the merchant/customer-initiated branch. The
// mandate path resolves the stored payment method; the payment-method path
// uses the supplied method directly.
func (s *PaymentService) confirmOffSession(ctx context.Context, intent *models.PaymentIntent, req *models.ConfirmPaymentRequest) (*models.PaymentIntent, error) {
	if req.MandateID != "" {
		m, err := s.mandates.GetMandate(ctx, req.MandateID)
		if err != nil {
			return nil, err
		}
		if m.Status != models.MandateStatusActive {
			return nil, models.NewError(models.ErrMandateInactive,
				fmt.Sprintf("mandate %s is %s", m.MandateID, m.Status))
		}
		req.PaymentMethodID = m.PaymentMethodID
	}

	intent.OffSession = true
	return s.authorize(ctx, intent, req)
}

// authorize runs the shared route-select, attempt-create, authorize
// pipeline.
func (s *PaymentService) authorize(ctx context.Context, intent *models.PaymentIntent, req *models.ConfirmPaymentRequest) (*models.PaymentIntent, error) {
	routingReq := &routing.Request{
		PaymentID:     intent.PaymentID,
		MerchantID:    intent.MerchantID,
		ProfileID:     intent.ProfileID,
		Amount:        intent.Amount,
		Currency:      intent.Currency,
		PaymentMethod: paymentMethodName(intent, req),
	}

	decision, err := s.router.SelectConnectors(ctx, routingReq)
	if err != nil {
		s.logger.Error("routing engine failed",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "connector selection failed", err)
	}
	if len(decision.Connectors) == 0 {
		return nil, models.NewError(models.ErrNoConnectorAvailable, "no eligible connector for this payment")
	}

	now := time.Now()
	attempt := &models.PaymentAttempt{
		ID:              "att_" + uuid.New().String(),
		PaymentID:       intent.PaymentID,
		MerchantID:      intent.MerchantID,
		ProfileID:       intent.ProfileID,
		OrganizationID:  intent.OrganizationID,
		Connector:       decision.Connectors[0],
		Status:          models.AttemptStatusCreated,
		PaymentMethod:   paymentMethodName(intent, req),
		AmountToCapture: intent.Amount,
		CreatedAt:       now,
		ModifiedAt:      now,
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Error("failed to create payment attempt",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to create payment attempt", err)
	}

	s.logRoutingDecision(intent, attempt, decision)

	intent.Status = models.IntentStatusProcessing
	intent.ActiveAttemptID = attempt.ID
	intent.AttemptCount++
	if req.Metadata != nil {
		intent.Metadata = models.MergeMetadata(intent.Metadata, req.Metadata)
	}
	intent.ModifiedAt = time.Now()

	if err := s.intents.Update(ctx, intent); err != nil {
		s.logger.Error("failed to update payment intent",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to update payment", err)
	}

	gateway, err := s.gatewayFor(attempt.Connector)
	if err != nil {
		s.failAttempt(ctx, intent, attempt, err)
		s.recordAttemptOutcome(intent, attempt, false)
		return nil, err
	}

	resp, err := gateway.Authorize(ctx, &connector.AuthorizeRequest{
		PaymentID:     intent.PaymentID,
		AttemptID:     attempt.ID,
		Amount:        intent.Amount,
		Currency:      intent.Currency,
		PaymentMethod: authorizePaymentMethod(req),
		OffSession:    intent.OffSession,
		Description:   intent.Description,
		ReturnURL:     intent.ReturnURL,
	})
	if err != nil {
		s.failAttempt(ctx, intent, attempt, err)
		s.recordAttemptOutcome(intent, attempt, false)
		return nil, connectorFailure(err)
	}

	intentStatus, attemptStatus := interpretAuthorizeResponse(resp)

	attempt.Status = attemptStatus
	attempt.ConnectorTransactionID = resp.TransactionID
	attempt.AmountCapturable = intent.Amount
	if resp.AdditionalData != nil {
		attempt.ConnectorMetadata = models.MergeMetadata(attempt.ConnectorMetadata, resp.AdditionalData)
	}
	attempt.ModifiedAt = time.Now()

	if err := s.attempts.Update(ctx, attempt); err != nil {
		s.logger.Error("failed to update payment attempt",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to update payment attempt", err)
	}

	if models.CanTransition(intent.Status, intentStatus) {
		intent.Status = intentStatus
	}
	intent.ModifiedAt = time.Now()

	if err := s.intents.Update(ctx, intent); err != nil {
		s.logger.Error("failed to update payment intent",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to update payment", err)
	}

	s.recordAttemptOutcome(intent, attempt, true)
	s.maybeCreateMandate(intent, attempt)

	s.logger.Info("payment confirmed",
		zap.String("payment_id", intent.PaymentID),
		zap.String("connector", attempt.Connector),
		zap.String("status", string(intent.Status)))

	return intent, nil
}

// failAttempt marks the attempt and intent failed after a connector-level
// authorization failure. Persistence errors here are logged; the caller
// already has a failure to report.
func (s *PaymentService) failAttempt(ctx context.Context, intent *models.PaymentIntent, attempt *models.PaymentAttempt, cause error) {
	attempt.Status = models.AttemptStatusFailed
	if ce := connectorFailure(cause); ce.Code != models.ErrInternal {
		attempt.ErrorCode = string(ce.Code)
		attempt.ErrorMessage = ce.Message
	} else {
		attempt.ErrorCode = "connector_error"
		attempt.ErrorMessage = cause.Error()
	}
	attempt.ModifiedAt = time.Now()

	if err := s.attempts.Update(ctx, attempt); err != nil {
		s.logger.Error("failed to persist failed attempt",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
	}

	if models.CanTransition(intent.Status, models.IntentStatusFailed) {
		intent.Status = models.IntentStatusFailed
	}
	intent.ModifiedAt = time.Now()

	if err := s.intents.Update(ctx, intent); err != nil {
		s.logger.Error("failed to persist failed intent",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
	}
}

// logRoutingDecision appends the routing audit row, fire and forget.
func (s *PaymentService) logRoutingDecision(intent *models.PaymentIntent, attempt *models.PaymentAttempt, decision *routing.Decision) {
	log := &models.RoutingDecisionLog{
		ID:                uuid.New().String(),
		PaymentID:         intent.PaymentID,
		AttemptID:         attempt.ID,
		MerchantID:        intent.MerchantID,
		ProfileID:         intent.ProfileID,
		SelectedConnector: attempt.Connector,
		RoutingAlgorithm:  decision.Algorithm,
		Amount:            intent.Amount,
		Currency:          intent.Currency,
		PaymentMethod:     attempt.PaymentMethod,
		CreatedAt:         time.Now(),
	}

	s.runAsync(func() {
		if err := s.routingLogs.Create(context.Background(), log); err != nil {
			s.logger.Warn("failed to write routing decision log",
				zap.String("payment_id", log.PaymentID),
				zap.Error(err))
		}
	})
}

// UpdatePayment changes mutable fields while the intent still awaits
// confirmation or customer action.
func (s *PaymentService) UpdatePayment(ctx context.Context, paymentID string, req *models.UpdatePaymentRequest) (*models.PaymentIntent, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if intent.Status != models.IntentStatusRequiresConfirmation &&
		intent.Status != models.IntentStatusRequiresCustomerAction {
		return nil, models.NewError(models.ErrInvalidStatus,
			fmt.Sprintf("payment cannot be updated in status %s", intent.Status))
	}

	if req.Amount > 0 {
		intent.Amount = minorUnits(req.Amount)
	}
	if req.Description != "" {
		intent.Description = req.Description
	}
	if req.ReturnURL != "" {
		intent.ReturnURL = req.ReturnURL
	}
	if req.Metadata != nil {
		intent.Metadata = models.MergeMetadata(intent.Metadata, req.Metadata)
	}
	intent.ModifiedAt = time.Now()

	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to update payment", err)
	}
	return intent, nil
}

var cancellableStatuses = map[models.IntentStatus]bool{
	models.IntentStatusRequiresConfirmation:   true,
	models.IntentStatusRequiresCustomerAction: true,
	models.IntentStatusRequiresCapture:        true,
	models.IntentStatusPartiallyCaptured:      true,
}

// CancelPayment cancels an intent that has not reached a terminal state.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentID string, req *models.CancelPaymentRequest) (*models.PaymentIntent, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if !cancellableStatuses[intent.Status] {
		return nil, models.NewError(models.ErrInvalidStatus,
			fmt.Sprintf("payment cannot be cancelled in status %s", intent.Status))
	}

	intent.Status = models.IntentStatusCancelled
	if req.Metadata != nil {
		intent.Metadata = models.MergeMetadata(intent.Metadata, req.Metadata)
	}
	if req.CancellationReason != "" {
		intent.Metadata = models.MergeMetadata(intent.Metadata, map[string]interface{}{
			"cancellation_reason": req.CancellationReason,
		})
	}
	intent.ModifiedAt = time.Now()

	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to cancel payment", err)
	}

	s.logger.Info("payment cancelled", zap.String("payment_id", paymentID))
	return intent, nil
}

// GetClientSecret returns the intent's client secret, generating and
// persisting one on first use. Repeated calls return the identical value.
func (s *PaymentService) GetClientSecret(ctx context.Context, paymentID string) (string, error) {
	intent, err := s.loadIntent(ctx, paymentID)
	if err != nil {
		return "", err
	}

	if intent.ClientSecret != "" {
		return intent.ClientSecret, nil
	}

	intent.ClientSecret = generateClientSecret(intent.PaymentID)
	intent.ModifiedAt = time.Now()
	if err := s.intents.Update(ctx, intent); err != nil {
		return "", models.WrapError(models.ErrInternal, "failed to persist client secret", err)
	}
	return intent.ClientSecret, nil
}

// GetPayment retrieves an intent by payment id.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*models.PaymentIntent, error) {
	return s.loadIntent(ctx, paymentID)
}

// ListPayments returns intents for a merchant, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, filter *models.ListPaymentsFilter) ([]*models.PaymentIntent, error) {
	if filter.MerchantID == "" {
		return nil, models.NewError(models.ErrInvalidRequest, "merchant_id is required")
	}
	intents, err := s.intents.List(ctx, filter)
	if err != nil {
		return nil, models.WrapError(models.ErrInternal, "failed to list payments", err)
	}
	return intents, nil
}

// GetRoutingDecision returns the routing audit row written for an attempt,
// including the success flag once the asynchronous patch has landed.
func (s *PaymentService) GetRoutingDecision(ctx context.Context, attemptID string) (*models.RoutingDecisionLog, error) {
	log, err := s.routingLogs.GetByAttemptID(ctx, attemptID)
	if err != nil {
		s.logger.Error("failed to load routing decision log",
			zap.String("attempt_id", attemptID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to load routing decision", err)
	}
	if log == nil {
		return nil, models.NewError(models.ErrPaymentAttemptNotFound, "no routing decision recorded for attempt")
	}
	return log, nil
}

// interpretAuthorizeResponse maps a connector authorize response onto the
// next intent and attempt statuses.
func interpretAuthorizeResponse(resp *connector.Response) (models.IntentStatus, models.AttemptStatus) {
	switch {
	case resp.Requires3DS:
		return models.IntentStatusRequiresCustomerAction, models.AttemptStatusRequiresCustomerAction
	case strings.EqualFold(resp.Status, "succeeded"):
		return models.IntentStatusSucceeded, models.AttemptStatusSucceeded
	default:
		return models.IntentStatusProcessing, models.AttemptStatusProcessing
	}
}

func paymentMethodName(intent *models.PaymentIntent, req *models.ConfirmPaymentRequest) string {
	if req.PaymentMethodID != "" {
		return req.PaymentMethodID
	}
	if req.PaymentMethod != "" {
		return req.PaymentMethod
	}
	return intent.PaymentMethod
}

func authorizePaymentMethod(req *models.ConfirmPaymentRequest) *connector.PaymentMethodData {
	pm := &connector.PaymentMethodData{
		Type:            req.PaymentMethod,
		PaymentMethodID: req.PaymentMethodID,
	}
	if req.PaymentMethodData != nil {
		pm.Type = req.PaymentMethodData.Type
		pm.Token = req.PaymentMethodData.Token
		pm.CardNumber = req.PaymentMethodData.CardNumber
		pm.CardExpMonth = req.PaymentMethodData.CardExpMonth
		pm.CardExpYear = req.PaymentMethodData.CardExpYear
		pm.CardCVC = req.PaymentMethodData.CardCVC
	}
	return pm
}

// minorUnits converts a decimal amount into integer minor units, truncating
// anything past the second decimal place. The inner round keeps float noise
// (19.99 * 100 = 1998.999...) from shaving a unit off an exact two-decimal
// amount.
func minorUnits(amount float64) int64 {
	return int64(math.Trunc(math.Round(amount*10000) / 100))
}

func generateClientSecret(paymentID string) string {
	return fmt.Sprintf("%s_secret_%s", paymentID, strings.ReplaceAll(uuid.New().String(), "-", ""))
}

func (s *PaymentService) getIdempotentIntent(ctx context.Context, key string) *models.PaymentIntent {
	data, err := s.cache.Get(ctx, "idempotency:"+key)
	if err != nil {
		return nil
	}

	var intent models.PaymentIntent
	if err := json.Unmarshal([]byte(data), &intent); err != nil {
		return nil
	}
	return &intent
}

func (s *PaymentService) cacheIdempotentIntent(ctx context.Context, key string, intent *models.PaymentIntent) {
	data, err := json.Marshal(intent)
	if err != nil {
		s.logger.Warn("failed to cache payment for idempotency",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, "idempotency:"+key, data, idempotencyTTL); err != nil {
		s.logger.Warn("failed to cache payment for idempotency",
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err))
	}
}
