// internal/models/attempt.go
package models

import "time"

type AttemptStatus string

const (
	AttemptStatusCreated                AttemptStatus = "created"
	AttemptStatusProcessing             AttemptStatus = "processing"
	AttemptStatusRequiresCustomerAction AttemptStatus = "requires_customer_action"
	AttemptStatusSucceeded              AttemptStatus = "succeeded"
	AttemptStatusFailed                 AttemptStatus = "failed"
	AttemptStatusVoided                 AttemptStatus = "voided"
)

// PaymentAttempt is one connector-facing try to move money for an intent.
// Many attempts may exist per intent; at most one is referenced by the
// intent's active_attempt_id while the intent is non-terminal.
type PaymentAttempt struct {
	ID                     string                 `json:"id" db:"id"`
	PaymentID              string                 `json:"payment_id" db:"payment_id"`
	MerchantID             string                 `json:"merchant_id" db:"merchant_id"`
	ProfileID              string                 `json:"profile_id,omitempty" db:"profile_id"`
	OrganizationID         string                 `json:"organization_id,omitempty" db:"organization_id"`
	Connector              string                 `json:"connector" db:"connector"`
	Status                 AttemptStatus          `json:"status" db:"status"`
	PaymentMethod          string                 `json:"payment_method,omitempty" db:"payment_method"`
	ConnectorTransactionID string                 `json:"connector_transaction_id,omitempty" db:"connector_transaction_id"`
	ConnectorMetadata      map[string]interface{} `json:"connector_metadata,omitempty" db:"connector_metadata"`
	AmountToCapture        int64                  `json:"amount_to_capture" db:"amount_to_capture"`
	AmountCapturable       int64                  `json:"amount_capturable" db:"amount_capturable"`
	ErrorCode              string                 `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage           string                 `json:"error_message,omitempty" db:"error_message"`
	AuthenticationType     string                 `json:"authentication_type,omitempty" db:"authentication_type"`
	CancellationReason     string                 `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt              time.Time              `json:"created_at" db:"created_at"`
	ModifiedAt             time.Time              `json:"modified_at" db:"modified_at"`
}

const PaymentAttemptSchema = `
CREATE TABLE IF NOT EXISTS payment_attempts (
    id VARCHAR(64) PRIMARY KEY,
    payment_id VARCHAR(64) NOT NULL,
    merchant_id VARCHAR(64) NOT NULL,
    profile_id VARCHAR(64),
    organization_id VARCHAR(64),
    connector VARCHAR(64) NOT NULL,
    status VARCHAR(32) NOT NULL,
    payment_method VARCHAR(64),
    connector_transaction_id VARCHAR(128),
    connector_metadata JSONB,
    amount_to_capture BIGINT NOT NULL DEFAULT 0,
    amount_capturable BIGINT NOT NULL DEFAULT 0,
    error_code VARCHAR(64),
    error_message TEXT,
    authentication_type VARCHAR(32),
    cancellation_reason TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    modified_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payment_attempts_payment ON payment_attempts (payment_id, created_at DESC);
`
