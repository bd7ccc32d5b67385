// internal/models/payment.go
package models

import "time"

type IntentStatus string

const (
	IntentStatusRequiresConfirmation   IntentStatus = "requires_confirmation"
	IntentStatusRequiresCustomerAction IntentStatus = "requires_customer_action"
	IntentStatusProcessing             IntentStatus = "processing"
	IntentStatusRequiresCapture        IntentStatus = "requires_capture"
	IntentStatusPartiallyCaptured      IntentStatus = "partially_captured"
	IntentStatusSucceeded              IntentStatus = "succeeded"
	IntentStatusFailed                 IntentStatus = "failed"
	IntentStatusCancelled              IntentStatus = "cancelled"
)

// intentTransitions enumerates the legal status edges. Terminal statuses
// (succeeded, failed, cancelled) have no outgoing edges.
var intentTransitions = map[IntentStatus][]IntentStatus{
	IntentStatusRequiresConfirmation: {
		IntentStatusRequiresCustomerAction,
		IntentStatusProcessing,
		IntentStatusFailed,
		IntentStatusCancelled,
	},
	IntentStatusRequiresCustomerAction: {
		IntentStatusProcessing,
		IntentStatusRequiresCapture,
		IntentStatusSucceeded,
		IntentStatusFailed,
		IntentStatusCancelled,
	},
	IntentStatusProcessing: {
		IntentStatusRequiresCustomerAction,
		IntentStatusRequiresCapture,
		IntentStatusSucceeded,
		IntentStatusFailed,
	},
	IntentStatusRequiresCapture: {
		IntentStatusPartiallyCaptured,
		IntentStatusSucceeded,
		IntentStatusCancelled,
	},
	IntentStatusPartiallyCaptured: {
		IntentStatusPartiallyCaptured,
		IntentStatusSucceeded,
		IntentStatusCancelled,
	},
}

// CanTransition reports whether moving from one intent status to another is
// legal. Same-status updates are always allowed (idempotent writes).
func CanTransition(from, to IntentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range intentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing edges.
func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusSucceeded || s == IntentStatusFailed || s == IntentStatusCancelled
}

// PaymentIntent is the authoritative record of a single checkout.
type PaymentIntent struct {
	ID               string                 `json:"id" db:"id"`
	PaymentID        string                 `json:"payment_id" db:"payment_id"`
	MerchantID       string                 `json:"merchant_id" db:"merchant_id"`
	CustomerID       string                 `json:"customer_id,omitempty" db:"customer_id"`
	ProfileID        string                 `json:"profile_id,omitempty" db:"profile_id"`
	OrganizationID   string                 `json:"organization_id,omitempty" db:"organization_id"`
	Amount           int64                  `json:"amount" db:"amount"`
	Currency         string                 `json:"currency" db:"currency"`
	AmountCaptured   int64                  `json:"amount_captured" db:"amount_captured"`
	Status           IntentStatus           `json:"status" db:"status"`
	ActiveAttemptID  string                 `json:"active_attempt_id,omitempty" db:"active_attempt_id"`
	AttemptCount     int                    `json:"attempt_count" db:"attempt_count"`
	OffSession       bool                   `json:"off_session" db:"off_session"`
	SetupFutureUsage string                 `json:"setup_future_usage,omitempty" db:"setup_future_usage"`
	ClientSecret     string                 `json:"client_secret,omitempty" db:"client_secret"`
	Description      string                 `json:"description,omitempty" db:"description"`
	ReturnURL        string                 `json:"return_url,omitempty" db:"return_url"`
	PaymentMethod    string                 `json:"payment_method,omitempty" db:"payment_method"`
	Metadata         map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	LastSyncedAt     *time.Time             `json:"last_synced_at,omitempty" db:"last_synced_at"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	ModifiedAt       time.Time              `json:"modified_at" db:"modified_at"`
}

// RemainingCapturable returns the amount still available for capture.
func (p *PaymentIntent) RemainingCapturable() int64 {
	return p.Amount - p.AmountCaptured
}

// MergeMetadata merges src into dst, key by key, last write wins. A nil dst
// is allocated first so callers can merge into intents created without
// metadata.
func MergeMetadata(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

type CreatePaymentRequest struct {
	// Amount is a pointer so a zero-amount mandate-setup payment is
	// distinguishable from an absent amount.
	Amount           *float64               `json:"amount" binding:"required"`
	Currency         string                 `json:"currency" binding:"required,len=3"`
	MerchantID       string                 `json:"merchant_id" binding:"required"`
	CustomerID       string                 `json:"customer_id"`
	ProfileID        string                 `json:"profile_id"`
	OrganizationID   string                 `json:"organization_id"`
	PaymentMethod    string                 `json:"payment_method"`
	Description      string                 `json:"description"`
	ReturnURL        string                 `json:"return_url"`
	SetupFutureUsage string                 `json:"setup_future_usage"`
	OffSession       bool                   `json:"off_session"`
	IdempotencyKey   string                 `json:"idempotency_key"`
	Metadata         map[string]interface{} `json:"metadata"`
}

type ConfirmPaymentRequest struct {
	PaymentMethod     string                 `json:"payment_method"`
	PaymentMethodID   string                 `json:"payment_method_id"`
	PaymentMethodData *PaymentMethodData     `json:"payment_method_data,omitempty"`
	MandateID         string                 `json:"mandate_id"`
	OffSession        bool                   `json:"off_session"`
	ReturnURL         string                 `json:"return_url"`
	Metadata          map[string]interface{} `json:"metadata"`
}

// Recurring reports whether the confirmation carries merchant-initiated
// (off-session) details that divert it into the MIT flow.
func (r *ConfirmPaymentRequest) Recurring() bool {
	return r.OffSession && (r.MandateID != "" || r.PaymentMethodID != "")
}

// PaymentMethodData carries the raw payment instrument for a confirmation.
type PaymentMethodData struct {
	Type         string `json:"type"`
	CardNumber   string `json:"card_number,omitempty"`
	CardExpMonth int    `json:"card_exp_month,omitempty"`
	CardExpYear  int    `json:"card_exp_year,omitempty"`
	CardCVC      string `json:"card_cvc,omitempty"`
	Token        string `json:"token,omitempty"`
}

type UpdatePaymentRequest struct {
	Amount      float64                `json:"amount"`
	Description string                 `json:"description"`
	ReturnURL   string                 `json:"return_url"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type CancelPaymentRequest struct {
	CancellationReason string                 `json:"cancellation_reason"`
	Metadata           map[string]interface{} `json:"metadata"`
}

type CaptureRequest struct {
	AmountToCapture int64 `json:"amount_to_capture"`
}

type IncrementAuthorizationRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

type ThreeDSChallengeRequest struct {
	AuthenticationID string `json:"authentication_id"`
}

type ThreeDSChallenge struct {
	RedirectURL      string `json:"redirect_url"`
	AuthenticationID string `json:"authentication_id"`
}

type ListPaymentsFilter struct {
	MerchantID string       `json:"merchant_id"`
	Status     IntentStatus `json:"status"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
}

// Database schema
const PaymentIntentSchema = `
CREATE TABLE IF NOT EXISTS payment_intents (
    id VARCHAR(64) PRIMARY KEY,
    payment_id VARCHAR(64) UNIQUE NOT NULL,
    merchant_id VARCHAR(64) NOT NULL,
    customer_id VARCHAR(64),
    profile_id VARCHAR(64),
    organization_id VARCHAR(64),
    amount BIGINT NOT NULL,
    currency VARCHAR(3) NOT NULL,
    amount_captured BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(32) NOT NULL,
    active_attempt_id VARCHAR(64),
    attempt_count INT NOT NULL DEFAULT 0,
    off_session BOOLEAN DEFAULT FALSE,
    setup_future_usage VARCHAR(32),
    client_secret TEXT,
    description TEXT,
    return_url TEXT,
    payment_method VARCHAR(64),
    metadata JSONB,
    last_synced_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    modified_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payment_intents_merchant ON payment_intents (merchant_id);
CREATE INDEX IF NOT EXISTS idx_payment_intents_status ON payment_intents (status);
`
