package payment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"interlingo/models"
)

// CaptureSummary reports per-item capture outcomes in item order, plus
// the sum of amounts that actually captured.
type CaptureSummary struct {
	Results             []models.OperationResult
	TotalCapturedAmount float64
}

// AllCaptured reports whether every item captured.
func (s CaptureSummary) AllCaptured() bool {
	for _, r := range s.Results {
		if !r.Success {
			return false
		}
	}
	return len(s.Results) > 0
}

// CaptureAggregator fans capture out across a payment's items. Items are
// captured independently: an already-succeeded item is never rolled back
// because a sibling failed, and a partial success is never elevated to a
// full one. The overall verdict belongs to the state machine.
type CaptureAggregator struct {
	Adapters    *AdapterRegistry
	Concurrency int
	// Timeout bounds each provider capture call.
	Timeout time.Duration
	Logger  *zap.Logger
}

// CaptureAll captures every item of the payment with bounded
// concurrency. Results are collected in input order regardless of
// completion order. Successful items are updated in place
// (CapturedAmount, Status, ProviderRef). Items captured on a prior
// attempt are counted as successes without touching the provider again,
// so re-driving a failed capture resolves only the failed subset.
func (ca *CaptureAggregator) CaptureAll(ctx context.Context, p *models.Payment) (CaptureSummary, error) {
	adapter, err := ca.Adapters.AdapterFor(p.System)
	if err != nil {
		return CaptureSummary{}, err
	}

	concurrency := ca.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]models.OperationResult, len(p.Items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range p.Items {
		if p.Items[i].Status == models.ItemCaptured {
			results[i] = models.OperationResult{Success: true, ProviderReference: p.Items[i].ProviderRef}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			item := &p.Items[idx]
			providerRef := item.ProviderRef
			if providerRef == "" {
				providerRef = p.ProviderRef
			}
			callCtx, cancel := context.WithTimeout(ctx, ca.callTimeout())
			result, captureErr := adapter.Capture(callCtx, item.ID, providerRef, item.Amount)
			cancel()
			results[idx] = result
			if result.Success {
				item.CapturedAmount = item.Amount
				item.Status = models.ItemCaptured
				item.ProviderRef = result.ProviderReference
			} else {
				item.Status = models.ItemFailed
				if ca.Logger != nil {
					ca.Logger.Warn("payment item capture failed",
						zap.String("paymentId", p.ID),
						zap.String("itemId", item.ID),
						zap.Error(captureErr),
					)
				}
			}
		}(i)
	}
	wg.Wait()

	summary := CaptureSummary{Results: results}
	for i, r := range results {
		if r.Success {
			summary.TotalCapturedAmount += p.Items[i].Amount
		}
	}
	return summary, nil
}

func (ca *CaptureAggregator) callTimeout() time.Duration {
	if ca.Timeout <= 0 {
		return 15 * time.Second
	}
	return ca.Timeout
}
