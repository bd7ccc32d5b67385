// internal/connector/gateway.go
package connector

import (
	"context"
	"fmt"
	"sync"
)

// AuthorizeRequest asks a connector to authorize a payment.
type AuthorizeRequest struct {
	PaymentID     string
	AttemptID     string
	Amount        int64
	Currency      string
	PaymentMethod *PaymentMethodData
	OffSession    bool
	CaptureMethod string
	Description   string
	ReturnURL     string
}

// PaymentMethodData is the normalized payment instrument passed to a
// connector. Either a raw card or a tokenized method id is set.
type PaymentMethodData struct {
	Type            string
	Token           string
	PaymentMethodID string
	CardNumber      string
	CardExpMonth    int
	CardExpYear     int
	CardCVC         string
}

type CaptureRequest struct {
	PaymentID              string
	Amount                 int64
	Currency               string
	ConnectorTransactionID string
}

type RefundRequest struct {
	PaymentID              string
	RefundID               string
	Amount                 int64
	Currency               string
	ConnectorTransactionID string
	Reason                 string
}

type SyncRequest struct {
	ConnectorTransactionID string
	ConnectorRefundID      string
}

type VerifyRequest struct {
	PaymentID              string
	AuthenticationID       string
	ConnectorTransactionID string
}

// Response is the normalized result of any connector operation.
type Response struct {
	TransactionID  string
	RefundID       string
	Status         string
	Requires3DS    bool
	AdditionalData map[string]interface{}
}

// Error is a connector-originated failure. Code and Message carry the
// connector's own values verbatim.
type Error struct {
	Connector string
	Code      string
	Message   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("connector %s: %s: %s", e.Connector, e.Code, e.Message)
}

// Gateway is the contract every external payment processor integration
// implements. Implementations are selected by name through the Registry so
// the orchestrator stays connector-agnostic.
type Gateway interface {
	Name() string
	Authorize(ctx context.Context, req *AuthorizeRequest) (*Response, error)
	Capture(ctx context.Context, req *CaptureRequest) (*Response, error)
	Refund(ctx context.Context, req *RefundRequest) (*Response, error)
	SyncPayment(ctx context.Context, req *SyncRequest) (*Response, error)
	SyncRefund(ctx context.Context, req *SyncRequest) (*Response, error)
	Verify3DS(ctx context.Context, req *VerifyRequest) (*Response, error)
}

// Registry dispatches gateways by connector name.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

func NewRegistry() *Registry {
	return &Registry{gateways: make(map[string]Gateway)}
}

func (r *Registry) Register(g Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[g.Name()] = g
}

func (r *Registry) Get(name string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("unknown connector: %s", name)
	}
	return g, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	return names
}
