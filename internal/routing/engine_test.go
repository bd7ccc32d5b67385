// internal/routing/engine_test.go
package routing

import (
	"context"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestPriorityEngineDefaultOrder(t *testing.T) {
	engine := NewPriorityEngine([]string{"stripe", "adyen"}, zaptest.NewLogger(t))

	decision, err := engine.SelectConnectors(context.Background(), &Request{
		PaymentID:  "pay_1",
		MerchantID: "mer_1",
		Currency:   "USD",
	})
	if err != nil {
		t.Fatalf("SelectConnectors: %v", err)
	}

	if !reflect.DeepEqual(decision.Connectors, []string{"stripe", "adyen"}) {
		t.Errorf("connectors = %v, want default order", decision.Connectors)
	}
	if decision.Algorithm != "priority/v1" {
		t.Errorf("algorithm = %q, want priority/v1", decision.Algorithm)
	}
}

func TestPriorityEngineMerchantOverride(t *testing.T) {
	engine := NewPriorityEngine([]string{"stripe", "adyen"}, zaptest.NewLogger(t))
	engine.SetMerchantPriority("mer_special", []string{"adyen", "stripe"})

	decision, err := engine.SelectConnectors(context.Background(), &Request{
		MerchantID: "mer_special",
		Currency:   "USD",
	})
	if err != nil {
		t.Fatalf("SelectConnectors: %v", err)
	}
	if !reflect.DeepEqual(decision.Connectors, []string{"adyen", "stripe"}) {
		t.Errorf("connectors = %v, want merchant override order", decision.Connectors)
	}
}

func TestPriorityEngineCurrencyFilter(t *testing.T) {
	engine := NewPriorityEngine([]string{"stripe", "adyen"}, zaptest.NewLogger(t))
	engine.SetCurrencySupport("stripe", []string{"USD", "EUR"})

	decision, err := engine.SelectConnectors(context.Background(), &Request{
		MerchantID: "mer_1",
		Currency:   "JPY",
	})
	if err != nil {
		t.Fatalf("SelectConnectors: %v", err)
	}
	if !reflect.DeepEqual(decision.Connectors, []string{"adyen"}) {
		t.Errorf("connectors = %v, want stripe filtered out for JPY", decision.Connectors)
	}
}

func TestPriorityEngineNoEligibleConnectors(t *testing.T) {
	engine := NewPriorityEngine([]string{"stripe"}, zaptest.NewLogger(t))
	engine.SetCurrencySupport("stripe", []string{"USD"})

	decision, err := engine.SelectConnectors(context.Background(), &Request{
		MerchantID: "mer_1",
		Currency:   "GBP",
	})
	if err != nil {
		t.Fatalf("SelectConnectors: %v", err)
	}
	if len(decision.Connectors) != 0 {
		t.Errorf("connectors = %v, want empty decision", decision.Connectors)
	}
}
