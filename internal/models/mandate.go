// internal/models/mandate.go
package models

import "time"

type MandateStatus string

const (
	MandateStatusActive   MandateStatus = "active"
	MandateStatusInactive MandateStatus = "inactive"
	MandateStatusRevoked  MandateStatus = "revoked"
)

type MandateType string

const (
	MandateTypeSingleUse MandateType = "single_use"
	MandateTypeMultiUse  MandateType = "multi_use"
)

// Mandate is a reusable authorization record permitting future off-session
// charges against a stored payment method.
type Mandate struct {
	ID              string        `json:"id" db:"id"`
	MandateID       string        `json:"mandate_id" db:"mandate_id"`
	MerchantID      string        `json:"merchant_id" db:"merchant_id"`
	CustomerID      string        `json:"customer_id" db:"customer_id"`
	PaymentMethodID string        `json:"payment_method_id" db:"payment_method_id"`
	MandateType     MandateType   `json:"mandate_type" db:"mandate_type"`
	Status          MandateStatus `json:"status" db:"status"`
	Amount          int64         `json:"amount" db:"amount"`
	Currency        string        `json:"currency" db:"currency"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	ModifiedAt      time.Time     `json:"modified_at" db:"modified_at"`
}

type CreateMandateRequest struct {
	CustomerID      string      `json:"customer_id" binding:"required"`
	PaymentMethodID string      `json:"payment_method_id" binding:"required"`
	MandateType     MandateType `json:"mandate_type"`
	Amount          int64       `json:"amount"`
	Currency        string      `json:"currency"`
}

const MandateSchema = `
CREATE TABLE IF NOT EXISTS mandates (
    id VARCHAR(64) PRIMARY KEY,
    mandate_id VARCHAR(64) UNIQUE NOT NULL,
    merchant_id VARCHAR(64) NOT NULL,
    customer_id VARCHAR(64) NOT NULL,
    payment_method_id VARCHAR(64) NOT NULL,
    mandate_type VARCHAR(32) NOT NULL,
    status VARCHAR(32) NOT NULL,
    amount BIGINT NOT NULL DEFAULT 0,
    currency VARCHAR(3),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    modified_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_mandates_customer ON mandates (customer_id);
`
