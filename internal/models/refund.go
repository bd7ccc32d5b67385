// internal/models/refund.go
package models

import "time"

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusSucceeded RefundStatus = "succeeded"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund is a request to return previously captured funds. Rows are created
// pending and updated exactly once after the connector call.
type Refund struct {
	ID                     string       `json:"id" db:"id"`
	RefundID               string       `json:"refund_id" db:"refund_id"`
	PaymentID              string       `json:"payment_id" db:"payment_id"`
	MerchantID             string       `json:"merchant_id" db:"merchant_id"`
	AttemptID              string       `json:"attempt_id" db:"attempt_id"`
	Connector              string       `json:"connector" db:"connector"`
	ConnectorTransactionID string       `json:"connector_transaction_id,omitempty" db:"connector_transaction_id"`
	ConnectorRefundID      string       `json:"connector_refund_id,omitempty" db:"connector_refund_id"`
	TotalAmount            int64        `json:"total_amount" db:"total_amount"`
	RefundAmount           int64        `json:"refund_amount" db:"refund_amount"`
	Currency               string       `json:"currency" db:"currency"`
	RefundStatus           RefundStatus `json:"refund_status" db:"refund_status"`
	RefundReason           string       `json:"refund_reason,omitempty" db:"refund_reason"`
	RefundError            string       `json:"refund_error,omitempty" db:"refund_error"`
	SentToGateway          bool         `json:"sent_to_gateway" db:"sent_to_gateway"`
	CreatedAt              time.Time    `json:"created_at" db:"created_at"`
	ModifiedAt             time.Time    `json:"modified_at" db:"modified_at"`
}

type RefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

const RefundSchema = `
CREATE TABLE IF NOT EXISTS refunds (
    id VARCHAR(64) PRIMARY KEY,
    refund_id VARCHAR(64) UNIQUE NOT NULL,
    payment_id VARCHAR(64) NOT NULL,
    merchant_id VARCHAR(64) NOT NULL,
    attempt_id VARCHAR(64) NOT NULL,
    connector VARCHAR(64) NOT NULL,
    connector_transaction_id VARCHAR(128),
    connector_refund_id VARCHAR(128),
    total_amount BIGINT NOT NULL,
    refund_amount BIGINT NOT NULL,
    currency VARCHAR(3) NOT NULL,
    refund_status VARCHAR(32) NOT NULL,
    refund_reason TEXT,
    refund_error TEXT,
    sent_to_gateway BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    modified_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_refunds_payment ON refunds (payment_id);
`
