// internal/connector/stripe.go
package connector

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway over the Stripe API.
type StripeGateway struct {
	logger *zap.Logger
}

func NewStripeGateway(apiKey string, logger *zap.Logger) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{logger: logger}
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) Authorize(ctx context.Context, req *AuthorizeRequest) (*Response, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.PaymentMethod != nil && req.PaymentMethod.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethod.PaymentMethodID)
		params.Confirm = stripe.Bool(true)
	}
	if req.OffSession {
		params.OffSession = stripe.Bool(true)
	}
	if req.ReturnURL != "" {
		params.ReturnURL = stripe.String(req.ReturnURL)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, g.wrapError(err)
	}

	return &Response{
		TransactionID: intent.ID,
		Status:        string(intent.Status),
		Requires3DS:   intent.Status == stripe.PaymentIntentStatusRequiresAction,
	}, nil
}

func (g *StripeGateway) Capture(ctx context.Context, req *CaptureRequest) (*Response, error) {
	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(req.Amount),
	}

	intent, err := paymentintent.Capture(req.ConnectorTransactionID, params)
	if err != nil {
		return nil, g.wrapError(err)
	}

	return &Response{
		TransactionID: intent.ID,
		Status:        string(intent.Status),
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, req *RefundRequest) (*Response, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ConnectorTransactionID),
		Amount:        stripe.Int64(req.Amount),
	}

	r, err := refund.New(params)
	if err != nil {
		return nil, g.wrapError(err)
	}

	return &Response{
		TransactionID: req.ConnectorTransactionID,
		RefundID:      r.ID,
		Status:        string(r.Status),
	}, nil
}

func (g *StripeGateway) SyncPayment(ctx context.Context, req *SyncRequest) (*Response, error) {
	intent, err := paymentintent.Get(req.ConnectorTransactionID, nil)
	if err != nil {
		return nil, g.wrapError(err)
	}

	return &Response{
		TransactionID: intent.ID,
		Status:        string(intent.Status),
	}, nil
}

func (g *StripeGateway) SyncRefund(ctx context.Context, req *SyncRequest) (*Response, error) {
	r, err := refund.Get(req.ConnectorRefundID, nil)
	if err != nil {
		return nil, g.wrapError(err)
	}

	return &Response{
		RefundID: r.ID,
		Status:   string(r.Status),
	}, nil
}

func (g *StripeGateway) Verify3DS(ctx context.Context, req *VerifyRequest) (*Response, error) {
	intent, err := paymentintent.Get(req.ConnectorTransactionID, nil)
	if err != nil {
		return nil, g.wrapError(err)
	}

	// Still waiting on the customer means the verification has not completed.
	if intent.Status == stripe.PaymentIntentStatusRequiresAction {
		return nil, &Error{
			Connector: g.Name(),
			Code:      "authentication_incomplete",
			Message:   "3DS authentication has not been completed",
		}
	}

	return &Response{
		TransactionID: intent.ID,
		Status:        string(intent.Status),
	}, nil
}

func (g *StripeGateway) wrapError(err error) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		return &Error{
			Connector: g.Name(),
			Code:      string(stripeErr.Code),
			Message:   stripeErr.Msg,
		}
	}
	return &Error{
		Connector: g.Name(),
		Code:      "connector_error",
		Message:   err.Error(),
	}
}
