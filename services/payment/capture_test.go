package payment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"interlingo/models"
)

func capturePayment(itemAmounts ...float64) *models.Payment {
	p := &models.Payment{
		ID:            "pay-cap",
		AppointmentID: "appt-cap",
		Currency:      "EUR",
		System:        models.PaymentSystemCard,
		Status:        models.PaymentCapturing,
		ProviderRef:   "auth_cap",
	}
	for i, amount := range itemAmounts {
		p.Items = append(p.Items, models.PaymentItem{
			ID:        "item-" + string(rune('a'+i)),
			PaymentID: p.ID,
			Kind:      models.ItemInterpreterPayout,
			Amount:    amount,
			Status:    models.ItemPending,
		})
	}
	return p
}

func newTestAggregator(adapter ProviderAdapter) *CaptureAggregator {
	registry := NewAdapterRegistry()
	registry.Register(models.PaymentSystemCard, adapter)
	return &CaptureAggregator{Adapters: registry, Concurrency: 2, Timeout: time.Second, Logger: zap.NewNop()}
}

func TestCaptureAllSuccess(t *testing.T) {
	adapter := &fakeAdapter{}
	p := capturePayment(40.0, 30.0, 30.0)

	summary, err := newTestAggregator(adapter).CaptureAll(context.Background(), p)
	if err != nil {
		t.Fatalf("CaptureAll failed: %v", err)
	}
	if !summary.AllCaptured() {
		t.Fatal("expected all items captured")
	}
	if summary.TotalCapturedAmount != 100.0 {
		t.Errorf("expected total 100.0, got %v", summary.TotalCapturedAmount)
	}
	if len(summary.Results) != len(p.Items) {
		t.Fatalf("expected %d results, got %d", len(p.Items), len(summary.Results))
	}
	for i, item := range p.Items {
		if item.Status != models.ItemCaptured || item.CapturedAmount != item.Amount {
			t.Errorf("item %d not captured: %+v", i, item)
		}
		if !summary.Results[i].Success {
			t.Errorf("result %d not successful", i)
		}
	}
}

func TestCaptureAllPartialFailure(t *testing.T) {
	adapter := &fakeAdapter{captureErrs: map[string]error{"item-b": ErrProviderUnavailable}}
	p := capturePayment(40.0, 30.0, 30.0)

	summary, err := newTestAggregator(adapter).CaptureAll(context.Background(), p)
	if err != nil {
		t.Fatalf("CaptureAll failed: %v", err)
	}
	if summary.AllCaptured() {
		t.Fatal("expected partial failure")
	}
	// Results stay aligned with item order regardless of completion order.
	if summary.Results[1].Success {
		t.Error("expected item-b result to fail")
	}
	if !summary.Results[0].Success || !summary.Results[2].Success {
		t.Error("sibling items must capture despite the failure")
	}
	if summary.TotalCapturedAmount != 70.0 {
		t.Errorf("total must count successes only, got %v", summary.TotalCapturedAmount)
	}
	if p.Items[1].Status != models.ItemFailed || p.Items[1].CapturedAmount != 0 {
		t.Errorf("failed item must stay uncaptured: %+v", p.Items[1])
	}
}

func TestCaptureAllSkipsAlreadyCapturedItems(t *testing.T) {
	adapter := &fakeAdapter{}
	p := capturePayment(40.0, 30.0)
	p.Items[0].Status = models.ItemCaptured
	p.Items[0].CapturedAmount = 40.0
	p.Items[0].ProviderRef = "cap_prior"

	summary, err := newTestAggregator(adapter).CaptureAll(context.Background(), p)
	if err != nil {
		t.Fatalf("CaptureAll failed: %v", err)
	}
	if !summary.AllCaptured() {
		t.Fatal("expected all items captured")
	}
	if len(adapter.capturedItems) != 1 || adapter.capturedItems[0] != "item-b" {
		t.Errorf("already-captured item must not hit the provider, got calls %v", adapter.capturedItems)
	}
	if !summary.Results[0].Success || summary.Results[0].ProviderReference != "cap_prior" {
		t.Errorf("prior capture must be reported as a success: %+v", summary.Results[0])
	}
	if summary.TotalCapturedAmount != 70.0 {
		t.Errorf("expected total 70.0, got %v", summary.TotalCapturedAmount)
	}
}

// stalledCaptureAdapter blocks capture calls until their context expires.
type stalledCaptureAdapter struct {
	*fakeAdapter
}

func (a *stalledCaptureAdapter) Capture(ctx context.Context, paymentItemID, providerRef string, amount float64) (models.OperationResult, error) {
	<-ctx.Done()
	err := fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
	return models.OperationResult{Success: false, Error: err.Error()}, err
}

func TestCaptureAllBoundsCallDuration(t *testing.T) {
	aggregator := newTestAggregator(&stalledCaptureAdapter{fakeAdapter: &fakeAdapter{}})
	aggregator.Timeout = 20 * time.Millisecond
	p := capturePayment(40.0, 30.0)

	done := make(chan struct{})
	var summary CaptureSummary
	var err error
	go func() {
		summary, err = aggregator.CaptureAll(context.Background(), p)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CaptureAll did not return within the per-call timeout budget")
	}
	if err != nil {
		t.Fatalf("CaptureAll failed: %v", err)
	}
	if summary.AllCaptured() {
		t.Error("stalled captures must fail, not hang")
	}
	for i, item := range p.Items {
		if item.Status != models.ItemFailed {
			t.Errorf("item %d must be marked failed after timing out: %+v", i, item)
		}
	}
}

func TestCaptureAllEmptyPaymentIsNotCaptured(t *testing.T) {
	summary := CaptureSummary{}
	if summary.AllCaptured() {
		t.Error("a payment with no results must not report as captured")
	}
}

func TestCaptureAllUnknownSystem(t *testing.T) {
	registry := NewAdapterRegistry()
	aggregator := &CaptureAggregator{Adapters: registry, Concurrency: 2, Logger: zap.NewNop()}
	p := capturePayment(10.0)

	if _, err := aggregator.CaptureAll(context.Background(), p); err == nil {
		t.Fatal("expected error for unregistered payment system")
	}
}
