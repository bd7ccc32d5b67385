// internal/routing/engine.go
package routing

import (
	"context"

	"go.uber.org/zap"
)

// Request carries the candidate payment the engine selects connectors for.
type Request struct {
	PaymentID     string
	MerchantID    string
	ProfileID     string
	Amount        int64
	Currency      string
	PaymentMethod string
}

// Decision is an ordered list of eligible connectors plus the algorithm
// identifier that produced it. The list may be empty.
type Decision struct {
	Connectors []string
	Algorithm  string
}

// Engine selects connectors for a candidate payment.
type Engine interface {
	SelectConnectors(ctx context.Context, req *Request) (*Decision, error)
}

const priorityAlgorithm = "priority/v1"

// PriorityEngine walks a configured priority list per merchant, filtering out
// connectors that do not support the payment's currency.
type PriorityEngine struct {
	merchantPriority map[string][]string
	defaultPriority  []string
	// connector -> supported currencies; a missing entry means all currencies.
	currencySupport map[string]map[string]bool
	logger          *zap.Logger
}

func NewPriorityEngine(defaultPriority []string, logger *zap.Logger) *PriorityEngine {
	return &PriorityEngine{
		merchantPriority: make(map[string][]string),
		defaultPriority:  defaultPriority,
		currencySupport:  make(map[string]map[string]bool),
		logger:           logger,
	}
}

// SetMerchantPriority overrides the connector order for one merchant.
func (e *PriorityEngine) SetMerchantPriority(merchantID string, connectors []string) {
	e.merchantPriority[merchantID] = connectors
}

// SetCurrencySupport restricts a connector to the given currencies.
func (e *PriorityEngine) SetCurrencySupport(connector string, currencies []string) {
	supported := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		supported[c] = true
	}
	e.currencySupport[connector] = supported
}

func (e *PriorityEngine) SelectConnectors(ctx context.Context, req *Request) (*Decision, error) {
	priority := e.defaultPriority
	if override, ok := e.merchantPriority[req.MerchantID]; ok {
		priority = override
	}

	eligible := make([]string, 0, len(priority))
	for _, name := range priority {
		if supported, ok := e.currencySupport[name]; ok && !supported[req.Currency] {
			continue
		}
		eligible = append(eligible, name)
	}

	e.logger.Debug("connectors selected",
		zap.String("payment_id", req.PaymentID),
		zap.Strings("connectors", eligible))

	return &Decision{Connectors: eligible, Algorithm: priorityAlgorithm}, nil
}
