// internal/repository/payment_repository.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"payment-orchestrator/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create persists a new payment intent inside a single transaction. The
// write is the durability boundary: anything the caller does after a
// successful return operates on a committed row.
func (r *PaymentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	metadata, err := marshalMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payment_intents (
			id, payment_id, merchant_id, customer_id, profile_id, organization_id,
			amount, currency, amount_captured, status, active_attempt_id,
			attempt_count, off_session, setup_future_usage, client_secret,
			description, return_url, payment_method, metadata, created_at, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err = tx.ExecContext(ctx, query,
		intent.ID,
		intent.PaymentID,
		intent.MerchantID,
		intent.CustomerID,
		intent.ProfileID,
		intent.OrganizationID,
		intent.Amount,
		intent.Currency,
		intent.AmountCaptured,
		intent.Status,
		intent.ActiveAttemptID,
		intent.AttemptCount,
		intent.OffSession,
		intent.SetupFutureUsage,
		intent.ClientSecret,
		intent.Description,
		intent.ReturnURL,
		intent.PaymentMethod,
		metadata,
		intent.CreatedAt,
		intent.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment intent: %w", err)
	}

	return tx.Commit()
}

const intentColumns = `
	id, payment_id, merchant_id, customer_id, profile_id, organization_id,
	amount, currency, amount_captured, status, active_attempt_id,
	attempt_count, off_session, setup_future_usage, client_secret,
	description, return_url, payment_method, metadata, last_synced_at,
	created_at, modified_at
`

// GetByPaymentID returns the intent for the external payment id, or nil if
// no such intent exists.
func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE payment_id = $1`

	intent, err := scanIntent(r.db.QueryRowContext(ctx, query, paymentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return intent, err
}

func (r *PaymentRepository) Update(ctx context.Context, intent *models.PaymentIntent) error {
	metadata, err := marshalMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE payment_intents
		SET amount = $1, amount_captured = $2, status = $3, active_attempt_id = $4,
		    attempt_count = $5, off_session = $6, setup_future_usage = $7,
		    client_secret = $8, description = $9, return_url = $10,
		    payment_method = $11, metadata = $12, last_synced_at = $13, modified_at = $14
		WHERE payment_id = $15
	`

	_, err = r.db.ExecContext(ctx, query,
		intent.Amount,
		intent.AmountCaptured,
		intent.Status,
		intent.ActiveAttemptID,
		intent.AttemptCount,
		intent.OffSession,
		intent.SetupFutureUsage,
		intent.ClientSecret,
		intent.Description,
		intent.ReturnURL,
		intent.PaymentMethod,
		metadata,
		intent.LastSyncedAt,
		intent.ModifiedAt,
		intent.PaymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment intent: %w", err)
	}
	return nil
}

// UpdateWithAttempt writes the intent and its active attempt in one
// transaction. Used by incremental authorization, where both amounts must
// move together.
func (r *PaymentRepository) UpdateWithAttempt(ctx context.Context, intent *models.PaymentIntent, attempt *models.PaymentAttempt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE payment_intents SET amount = $1, status = $2, modified_at = $3 WHERE payment_id = $4`,
		intent.Amount, intent.Status, intent.ModifiedAt, intent.PaymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment intent: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE payment_attempts SET amount_to_capture = $1, amount_capturable = $2, modified_at = $3 WHERE id = $4`,
		attempt.AmountToCapture, attempt.AmountCapturable, attempt.ModifiedAt, attempt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment attempt: %w", err)
	}

	return tx.Commit()
}

func (r *PaymentRepository) List(ctx context.Context, filter *models.ListPaymentsFilter) ([]*models.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE merchant_id = $1`
	args := []interface{}{filter.MerchantID}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment intents: %w", err)
	}
	defer rows.Close()

	var intents []*models.PaymentIntent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIntent(row rowScanner) (*models.PaymentIntent, error) {
	intent := &models.PaymentIntent{}
	var metadata []byte

	err := row.Scan(
		&intent.ID,
		&intent.PaymentID,
		&intent.MerchantID,
		&intent.CustomerID,
		&intent.ProfileID,
		&intent.OrganizationID,
		&intent.Amount,
		&intent.Currency,
		&intent.AmountCaptured,
		&intent.Status,
		&intent.ActiveAttemptID,
		&intent.AttemptCount,
		&intent.OffSession,
		&intent.SetupFutureUsage,
		&intent.ClientSecret,
		&intent.Description,
		&intent.ReturnURL,
		&intent.PaymentMethod,
		&metadata,
		&intent.LastSyncedAt,
		&intent.CreatedAt,
		&intent.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &intent.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode intent metadata: %w", err)
		}
	}
	return intent, nil
}

func marshalMetadata(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return data, nil
}
