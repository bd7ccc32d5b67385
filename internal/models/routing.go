// internal/models/routing.go
package models

import "time"

// RoutingDecisionLog is the append-only audit trail of connector selection.
// One row is written per attempt; success is patched once, asynchronously,
// best effort.
type RoutingDecisionLog struct {
	ID                string    `json:"id" db:"id"`
	PaymentID         string    `json:"payment_id" db:"payment_id"`
	AttemptID         string    `json:"attempt_id" db:"attempt_id"`
	MerchantID        string    `json:"merchant_id" db:"merchant_id"`
	ProfileID         string    `json:"profile_id,omitempty" db:"profile_id"`
	SelectedConnector string    `json:"selected_connector" db:"selected_connector"`
	RoutingAlgorithm  string    `json:"routing_algorithm" db:"routing_algorithm"`
	Amount            int64     `json:"amount" db:"amount"`
	Currency          string    `json:"currency" db:"currency"`
	PaymentMethod     string    `json:"payment_method,omitempty" db:"payment_method"`
	Success           *bool     `json:"success,omitempty" db:"success"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

const RoutingDecisionLogSchema = `
CREATE TABLE IF NOT EXISTS routing_decision_logs (
    id VARCHAR(64) PRIMARY KEY,
    payment_id VARCHAR(64) NOT NULL,
    attempt_id VARCHAR(64) NOT NULL,
    merchant_id VARCHAR(64) NOT NULL,
    profile_id VARCHAR(64),
    selected_connector VARCHAR(64) NOT NULL,
    routing_algorithm VARCHAR(64) NOT NULL,
    amount BIGINT NOT NULL,
    currency VARCHAR(3) NOT NULL,
    payment_method VARCHAR(64),
    success BOOLEAN,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_routing_logs_payment ON routing_decision_logs (payment_id);
`
