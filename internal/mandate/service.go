// internal/mandate/service.go
package mandate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payment-orchestrator/internal/models"
)

// Service creates and retrieves reusable authorization records for
// recurring/merchant-initiated charges.
type Service interface {
	GetMandate(ctx context.Context, mandateID string) (*models.Mandate, error)
	CreateMandate(ctx context.Context, merchantID string, req *models.CreateMandateRequest) (*models.Mandate, error)
}

// Store is the persistence surface the repository-backed service needs.
type Store interface {
	Create(ctx context.Context, mandate *models.Mandate) error
	GetByMandateID(ctx context.Context, mandateID string) (*models.Mandate, error)
}

type StoreService struct {
	store  Store
	logger *zap.Logger
}

func NewStoreService(store Store, logger *zap.Logger) *StoreService {
	return &StoreService{
		store:  store,
		logger: logger,
	}
}

func (s *StoreService) GetMandate(ctx context.Context, mandateID string) (*models.Mandate, error) {
	m, err := s.store.GetByMandateID(ctx, mandateID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, models.NewError(models.ErrMandateNotFound, "mandate not found")
	}
	return m, nil
}

func (s *StoreService) CreateMandate(ctx context.Context, merchantID string, req *models.CreateMandateRequest) (*models.Mandate, error) {
	mandateType := req.MandateType
	if mandateType == "" {
		mandateType = models.MandateTypeMultiUse
	}

	now := time.Now()
	m := &models.Mandate{
		ID:              uuid.New().String(),
		MandateID:       "man_" + uuid.New().String(),
		MerchantID:      merchantID,
		CustomerID:      req.CustomerID,
		PaymentMethodID: req.PaymentMethodID,
		MandateType:     mandateType,
		Status:          models.MandateStatusActive,
		Amount:          req.Amount,
		Currency:        req.Currency,
		CreatedAt:       now,
		ModifiedAt:      now,
	}

	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("mandate created",
		zap.String("mandate_id", m.MandateID),
		zap.String("customer_id", m.CustomerID),
		zap.String("mandate_type", string(m.MandateType)))

	return m, nil
}
