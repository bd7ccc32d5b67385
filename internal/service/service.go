// internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"payment-orchestrator/internal/analytics"
	"payment-orchestrator/internal/connector"
	"payment-orchestrator/internal/mandate"
	"payment-orchestrator/internal/models"
	"payment-orchestrator/internal/routing"
)

// IntentStore is the persistence surface for payment intents.
type IntentStore interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentIntent, error)
	Update(ctx context.Context, intent *models.PaymentIntent) error
	UpdateWithAttempt(ctx context.Context, intent *models.PaymentIntent, attempt *models.PaymentAttempt) error
	List(ctx context.Context, filter *models.ListPaymentsFilter) ([]*models.PaymentIntent, error)
}

// AttemptStore is the persistence surface for payment attempts.
type AttemptStore interface {
	Create(ctx context.Context, attempt *models.PaymentAttempt) error
	GetByID(ctx context.Context, id string) (*models.PaymentAttempt, error)
	GetLatestByPaymentID(ctx context.Context, paymentID string) (*models.PaymentAttempt, error)
	Update(ctx context.Context, attempt *models.PaymentAttempt) error
}

// RefundStore is the persistence surface for refunds.
type RefundStore interface {
	Create(ctx context.Context, refund *models.Refund) error
	GetByRefundID(ctx context.Context, refundID string) (*models.Refund, error)
	ListByPaymentID(ctx context.Context, paymentID string) ([]*models.Refund, error)
	Update(ctx context.Context, refund *models.Refund) error
}

// RoutingLogStore is the persistence surface for routing decision logs.
type RoutingLogStore interface {
	Create(ctx context.Context, log *models.RoutingDecisionLog) error
	GetByAttemptID(ctx context.Context, attemptID string) (*models.RoutingDecisionLog, error)
	UpdateSuccess(ctx context.Context, attemptID string, success bool) error
}

// Cache is a small keyed cache used for create-payment idempotency.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("cache disabled")
}

func (noopCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

// Stores bundles the persistence collaborators.
type Stores struct {
	Intents     IntentStore
	Attempts    AttemptStore
	Refunds     RefundStore
	RoutingLogs RoutingLogStore
}

type Config struct {
	RedirectBaseURL string
}

// PaymentService is the payment lifecycle orchestrator. It owns the intent
// state machine, amount bookkeeping, and the consistency discipline between
// intents and attempts. Side channels (analytics, routing-log patches,
// mandate auto-creation) are fired best effort and never affect the payment
// outcome.
type PaymentService struct {
	intents     IntentStore
	attempts    AttemptStore
	refunds     RefundStore
	routingLogs RoutingLogStore
	connectors  *connector.Registry
	router      routing.Engine
	mandates    mandate.Service
	analytics   analytics.Recorder
	cache       Cache
	cfg         Config
	logger      *zap.Logger

	// runAsync detaches fire-and-forget side effects from the request path.
	runAsync func(fn func())
}

func NewPaymentService(
	stores Stores,
	connectors *connector.Registry,
	router routing.Engine,
	mandates mandate.Service,
	recorder analytics.Recorder,
	cache Cache,
	cfg Config,
	logger *zap.Logger,
) *PaymentService {
	if recorder == nil {
		recorder = analytics.Noop{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &PaymentService{
		intents:     stores.Intents,
		attempts:    stores.Attempts,
		refunds:     stores.Refunds,
		routingLogs: stores.RoutingLogs,
		connectors:  connectors,
		router:      router,
		mandates:    mandates,
		analytics:   recorder,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
		runAsync:    func(fn func()) { go fn() },
	}
}

// loadIntent fetches an intent by its external payment id.
func (s *PaymentService) loadIntent(ctx context.Context, paymentID string) (*models.PaymentIntent, error) {
	intent, err := s.intents.GetByPaymentID(ctx, paymentID)
	if err != nil {
		s.logger.Error("failed to load payment intent",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to load payment", err)
	}
	if intent == nil {
		return nil, models.NewError(models.ErrPaymentNotFound, "payment not found")
	}
	return intent, nil
}

// loadActiveAttempt fetches the attempt named by the intent's
// active_attempt_id.
func (s *PaymentService) loadActiveAttempt(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentAttempt, error) {
	if intent.ActiveAttemptID == "" {
		return nil, models.NewError(models.ErrPaymentAttemptNotFound, "payment has no active attempt")
	}
	attempt, err := s.attempts.GetByID(ctx, intent.ActiveAttemptID)
	if err != nil {
		s.logger.Error("failed to load payment attempt",
			zap.String("payment_id", intent.PaymentID),
			zap.String("attempt_id", intent.ActiveAttemptID),
			zap.Error(err))
		return nil, models.WrapError(models.ErrInternal, "failed to load payment attempt", err)
	}
	if attempt == nil {
		return nil, models.NewError(models.ErrPaymentAttemptNotFound, "payment attempt not found")
	}
	return attempt, nil
}

// gatewayFor resolves the registered gateway for a connector name.
func (s *PaymentService) gatewayFor(name string) (connector.Gateway, error) {
	gateway, err := s.connectors.Get(name)
	if err != nil {
		return nil, models.WrapError(models.ErrNoConnectorAvailable,
			fmt.Sprintf("connector %s is not available", name), err)
	}
	return gateway, nil
}

// connectorFailure converts a gateway error into the typed failure returned
// to the caller. Connector codes and messages pass through verbatim.
func connectorFailure(err error) *models.Error {
	var ce *connector.Error
	if errors.As(err, &ce) {
		return models.NewError(models.ErrorCode(ce.Code), ce.Message)
	}
	return models.WrapError(models.ErrInternal, "connector call failed", err)
}

// recordAttemptOutcome fires the best-effort side channel: the analytics
// record, the success-rate window update, and the routing decision log
// patch. Failures are logged and swallowed.
func (s *PaymentService) recordAttemptOutcome(intent *models.PaymentIntent, attempt *models.PaymentAttempt, success bool) {
	s.runAsync(func() {
		ctx := context.Background()

		record := &analytics.AttemptRecord{
			MerchantID:      intent.MerchantID,
			ProfileID:       intent.ProfileID,
			Connector:       attempt.Connector,
			PaymentMethodID: attempt.PaymentMethod,
			Currency:        intent.Currency,
			Success:         success,
			Timestamp:       time.Now(),
		}
		if err := s.analytics.RecordPaymentAttempt(ctx, record); err != nil {
			s.logger.Warn("failed to record payment attempt analytics",
				zap.String("payment_id", intent.PaymentID),
				zap.Error(err))
		}

		update := &analytics.WindowUpdate{
			ProfileID:       intent.ProfileID,
			Connector:       attempt.Connector,
			PaymentMethodID: attempt.PaymentMethod,
			Currency:        intent.Currency,
			Success:         success,
			WindowMinutes:   60,
			Timestamp:       time.Now(),
		}
		if err := s.analytics.UpdateSuccessRateWindow(ctx, update); err != nil {
			s.logger.Warn("failed to update success rate window",
				zap.String("payment_id", intent.PaymentID),
				zap.Error(err))
		}

		if err := s.routingLogs.UpdateSuccess(ctx, attempt.ID, success); err != nil {
			s.logger.Warn("failed to patch routing decision log",
				zap.String("payment_id", intent.PaymentID),
				zap.String("attempt_id", attempt.ID),
				zap.Error(err))
		}
	})
}

// maybeCreateMandate creates a mandate after a successful authorization when
// the intent was marked for future off-session usage and a customer is
// present. Creation failure never fails the payment.
func (s *PaymentService) maybeCreateMandate(intent *models.PaymentIntent, attempt *models.PaymentAttempt) {
	if intent.Status != models.IntentStatusSucceeded {
		return
	}
	if intent.CustomerID == "" {
		return
	}
	if intent.SetupFutureUsage != "off_session" && !intent.OffSession {
		return
	}

	mandateType := models.MandateTypeMultiUse
	if intent.Amount == 0 {
		mandateType = models.MandateTypeSingleUse
	}

	req := &models.CreateMandateRequest{
		CustomerID:      intent.CustomerID,
		PaymentMethodID: attempt.PaymentMethod,
		MandateType:     mandateType,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	}

	s.runAsync(func() {
		if _, err := s.mandates.CreateMandate(context.Background(), intent.MerchantID, req); err != nil {
			s.logger.Warn("failed to create mandate after successful payment",
				zap.String("payment_id", intent.PaymentID),
				zap.String("customer_id", intent.CustomerID),
				zap.Error(err))
		}
	})
}
