// internal/repository/attempt_repository.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"payment-orchestrator/internal/models"
)

type AttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *models.PaymentAttempt) error {
	metadata, err := marshalMetadata(attempt.ConnectorMetadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payment_attempts (
			id, payment_id, merchant_id, profile_id, organization_id, connector,
			status, payment_method, connector_transaction_id, connector_metadata,
			amount_to_capture, amount_capturable, error_code, error_message,
			authentication_type, cancellation_reason, created_at, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.PaymentID,
		attempt.MerchantID,
		attempt.ProfileID,
		attempt.OrganizationID,
		attempt.Connector,
		attempt.Status,
		attempt.PaymentMethod,
		attempt.ConnectorTransactionID,
		metadata,
		attempt.AmountToCapture,
		attempt.AmountCapturable,
		attempt.ErrorCode,
		attempt.ErrorMessage,
		attempt.AuthenticationType,
		attempt.CancellationReason,
		attempt.CreatedAt,
		attempt.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment attempt: %w", err)
	}
	return nil
}

const attemptColumns = `
	id, payment_id, merchant_id, profile_id, organization_id, connector,
	status, payment_method, connector_transaction_id, connector_metadata,
	amount_to_capture, amount_capturable, error_code, error_message,
	authentication_type, cancellation_reason, created_at, modified_at
`

func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*models.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE id = $1`

	attempt, err := scanAttempt(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return attempt, err
}

// GetLatestByPaymentID returns the most recently created attempt for the
// payment, or nil if none exist.
func (r *AttemptRepository) GetLatestByPaymentID(ctx context.Context, paymentID string) (*models.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE payment_id = $1 ORDER BY created_at DESC LIMIT 1`

	attempt, err := scanAttempt(r.db.QueryRowContext(ctx, query, paymentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return attempt, err
}

func (r *AttemptRepository) Update(ctx context.Context, attempt *models.PaymentAttempt) error {
	metadata, err := marshalMetadata(attempt.ConnectorMetadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE payment_attempts
		SET status = $1, connector_transaction_id = $2, connector_metadata = $3,
		    amount_to_capture = $4, amount_capturable = $5, error_code = $6,
		    error_message = $7, authentication_type = $8, cancellation_reason = $9,
		    modified_at = $10
		WHERE id = $11
	`

	_, err = r.db.ExecContext(ctx, query,
		attempt.Status,
		attempt.ConnectorTransactionID,
		metadata,
		attempt.AmountToCapture,
		attempt.AmountCapturable,
		attempt.ErrorCode,
		attempt.ErrorMessage,
		attempt.AuthenticationType,
		attempt.CancellationReason,
		attempt.ModifiedAt,
		attempt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment attempt: %w", err)
	}
	return nil
}

func scanAttempt(row rowScanner) (*models.PaymentAttempt, error) {
	attempt := &models.PaymentAttempt{}
	var metadata []byte

	err := row.Scan(
		&attempt.ID,
		&attempt.PaymentID,
		&attempt.MerchantID,
		&attempt.ProfileID,
		&attempt.OrganizationID,
		&attempt.Connector,
		&attempt.Status,
		&attempt.PaymentMethod,
		&attempt.ConnectorTransactionID,
		&metadata,
		&attempt.AmountToCapture,
		&attempt.AmountCapturable,
		&attempt.ErrorCode,
		&attempt.ErrorMessage,
		&attempt.AuthenticationType,
		&attempt.CancellationReason,
		&attempt.CreatedAt,
		&attempt.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &attempt.ConnectorMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode connector metadata: %w", err)
		}
	}
	return attempt, nil
}
