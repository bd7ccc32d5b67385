// internal/repository/refund_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"payment-orchestrator/internal/models"
)

type RefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ctx context.Context, refund *models.Refund) error {
	query := `
		INSERT INTO refunds (
			id, refund_id, payment_id, merchant_id, attempt_id, connector,
			connector_transaction_id, connector_refund_id, total_amount,
			refund_amount, currency, refund_status, refund_reason, refund_error,
			sent_to_gateway, created_at, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		refund.ID,
		refund.RefundID,
		refund.PaymentID,
		refund.MerchantID,
		refund.AttemptID,
		refund.Connector,
		refund.ConnectorTransactionID,
		refund.ConnectorRefundID,
		refund.TotalAmount,
		refund.RefundAmount,
		refund.Currency,
		refund.RefundStatus,
		refund.RefundReason,
		refund.RefundError,
		refund.SentToGateway,
		refund.CreatedAt,
		refund.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert refund: %w", err)
	}
	return nil
}

const refundColumns = `
	id, refund_id, payment_id, merchant_id, attempt_id, connector,
	connector_transaction_id, connector_refund_id, total_amount,
	refund_amount, currency, refund_status, refund_reason, refund_error,
	sent_to_gateway, created_at, modified_at
`

func (r *RefundRepository) GetByRefundID(ctx context.Context, refundID string) (*models.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE refund_id = $1`

	refund, err := scanRefund(r.db.QueryRowContext(ctx, query, refundID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return refund, err
}

func (r *RefundRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]*models.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE payment_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*models.Refund
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}
	return refunds, rows.Err()
}

func (r *RefundRepository) Update(ctx context.Context, refund *models.Refund) error {
	query := `
		UPDATE refunds
		SET connector_refund_id = $1, refund_status = $2, refund_error = $3,
		    sent_to_gateway = $4, modified_at = $5
		WHERE refund_id = $6
	`

	_, err := r.db.ExecContext(ctx, query,
		refund.ConnectorRefundID,
		refund.RefundStatus,
		refund.RefundError,
		refund.SentToGateway,
		refund.ModifiedAt,
		refund.RefundID,
	)
	if err != nil {
		return fmt.Errorf("failed to update refund: %w", err)
	}
	return nil
}

func scanRefund(row rowScanner) (*models.Refund, error) {
	refund := &models.Refund{}
	err := row.Scan(
		&refund.ID,
		&refund.RefundID,
		&refund.PaymentID,
		&refund.MerchantID,
		&refund.AttemptID,
		&refund.Connector,
		&refund.ConnectorTransactionID,
		&refund.ConnectorRefundID,
		&refund.TotalAmount,
		&refund.RefundAmount,
		&refund.Currency,
		&refund.RefundStatus,
		&refund.RefundReason,
		&refund.RefundError,
		&refund.SentToGateway,
		&refund.CreatedAt,
		&refund.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return refund, nil
}
