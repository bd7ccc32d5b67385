// internal/repository/mandate_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"payment-orchestrator/internal/models"
)

type MandateRepository struct {
	db *sql.DB
}

func NewMandateRepository(db *sql.DB) *MandateRepository {
	return &MandateRepository{db: db}
}

func (r *MandateRepository) Create(ctx context.Context, mandate *models.Mandate) error {
	query := `
		INSERT INTO mandates (
			id, mandate_id, merchant_id, customer_id, payment_method_id,
			mandate_type, status, amount, currency, created_at, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		mandate.ID,
		mandate.MandateID,
		mandate.MerchantID,
		mandate.CustomerID,
		mandate.PaymentMethodID,
		mandate.MandateType,
		mandate.Status,
		mandate.Amount,
		mandate.Currency,
		mandate.CreatedAt,
		mandate.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert mandate: %w", err)
	}
	return nil
}

func (r *MandateRepository) GetByMandateID(ctx context.Context, mandateID string) (*models.Mandate, error) {
	query := `
		SELECT id, mandate_id, merchant_id, customer_id, payment_method_id,
		       mandate_type, status, amount, currency, created_at, modified_at
		FROM mandates WHERE mandate_id = $1
	`

	mandate := &models.Mandate{}
	err := r.db.QueryRowContext(ctx, query, mandateID).Scan(
		&mandate.ID,
		&mandate.MandateID,
		&mandate.MerchantID,
		&mandate.CustomerID,
		&mandate.PaymentMethodID,
		&mandate.MandateType,
		&mandate.Status,
		&mandate.Amount,
		&mandate.Currency,
		&mandate.CreatedAt,
		&mandate.ModifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mandate, nil
}
