// internal/repository/routing_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"payment-orchestrator/internal/models"
)

type RoutingRepository struct {
	db *sql.DB
}

func NewRoutingRepository(db *sql.DB) *RoutingRepository {
	return &RoutingRepository{db: db}
}

func (r *RoutingRepository) Create(ctx context.Context, log *models.RoutingDecisionLog) error {
	query := `
		INSERT INTO routing_decision_logs (
			id, payment_id, attempt_id, merchant_id, profile_id,
			selected_connector, routing_algorithm, amount, currency,
			payment_method, success, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.PaymentID,
		log.AttemptID,
		log.MerchantID,
		log.ProfileID,
		log.SelectedConnector,
		log.RoutingAlgorithm,
		log.Amount,
		log.Currency,
		log.PaymentMethod,
		log.Success,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert routing decision log: %w", err)
	}
	return nil
}

// UpdateSuccess patches the outcome onto the decision row for an attempt.
func (r *RoutingRepository) UpdateSuccess(ctx context.Context, attemptID string, success bool) error {
	query := `UPDATE routing_decision_logs SET success = $1 WHERE attempt_id = $2`

	_, err := r.db.ExecContext(ctx, query, success, attemptID)
	if err != nil {
		return fmt.Errorf("failed to update routing decision log: %w", err)
	}
	return nil
}

func (r *RoutingRepository) GetByAttemptID(ctx context.Context, attemptID string) (*models.RoutingDecisionLog, error) {
	query := `
		SELECT id, payment_id, attempt_id, merchant_id, profile_id,
		       selected_connector, routing_algorithm, amount, currency,
		       payment_method, success, created_at
		FROM routing_decision_logs WHERE attempt_id = $1
	`

	log := &models.RoutingDecisionLog{}
	var success sql.NullBool
	var createdAt time.Time

	err := r.db.QueryRowContext(ctx, query, attemptID).Scan(
		&log.ID,
		&log.PaymentID,
		&log.AttemptID,
		&log.MerchantID,
		&log.ProfileID,
		&log.SelectedConnector,
		&log.RoutingAlgorithm,
		&log.Amount,
		&log.Currency,
		&log.PaymentMethod,
		&success,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if success.Valid {
		log.Success = &success.Bool
	}
	log.CreatedAt = createdAt
	return log, nil
}
