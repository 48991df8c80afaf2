package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"interlingo/models"
)

// LedgerAdapter is the internal deposit-ledger rail. Corporate umbrella
// accounts prefund a balance here; authorize places a hold against it,
// capture consumes the hold, transfer moves balance between accounts.
// No money leaves the platform through this rail.
type LedgerAdapter struct {
	mu       sync.Mutex
	balances map[string]float64
	holds    map[string]ledgerHold
	// seenKeys replays prior authorize results for retried idempotency keys.
	seenKeys map[string]models.OperationResult
}

type ledgerHold struct {
	account string
	amount  float64
}

func NewLedgerAdapter() *LedgerAdapter {
	return &LedgerAdapter{
		balances: make(map[string]float64),
		holds:    make(map[string]ledgerHold),
		seenKeys: make(map[string]models.OperationResult),
	}
}

// Deposit credits a ledger account, e.g. from a corporate prefund.
func (a *LedgerAdapter) Deposit(account string, amount float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[account] += amount
}

// Balance returns the available balance of a ledger account.
func (a *LedgerAdapter) Balance(account string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balances[account]
}

func (a *LedgerAdapter) Authorize(ctx context.Context, amount float64, currency, paymentMethod, idempotencyKey string) (models.OperationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if prior, ok := a.seenKeys[idempotencyKey]; ok {
		if !prior.Success {
			return prior, fmt.Errorf("%w: replayed declined authorization", ErrProviderRejected)
		}
		return prior, nil
	}

	if a.balances[paymentMethod] < amount {
		result := models.OperationResult{Success: false, Error: "insufficient ledger balance"}
		a.seenKeys[idempotencyKey] = result
		return result, fmt.Errorf("%w: insufficient ledger balance on %s", ErrProviderRejected, paymentMethod)
	}

	ref := "hold_" + uuid.New().String()
	a.balances[paymentMethod] -= amount
	a.holds[ref] = ledgerHold{account: paymentMethod, amount: amount}
	result := models.OperationResult{Success: true, ProviderReference: ref}
	a.seenKeys[idempotencyKey] = result
	return result, nil
}

func (a *LedgerAdapter) Capture(ctx context.Context, paymentItemID, providerRef string, amount float64) (models.OperationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hold, ok := a.holds[providerRef]
	if !ok {
		return models.OperationResult{Success: false, Error: "unknown hold"},
			fmt.Errorf("%w: unknown hold %s", ErrProviderRejected, providerRef)
	}
	if amount > hold.amount {
		return models.OperationResult{Success: false, Error: "capture exceeds hold"},
			fmt.Errorf("%w: capture amount exceeds hold", ErrProviderRejected)
	}
	hold.amount -= amount
	if hold.amount <= 0 {
		delete(a.holds, providerRef)
	} else {
		a.holds[providerRef] = hold
	}
	return models.OperationResult{Success: true, ProviderReference: providerRef}, nil
}

func (a *LedgerAdapter) Transfer(ctx context.Context, destination string, amount float64, currency string, opts models.TransferContextOptions) (models.OperationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ref := "ltr_" + uuid.New().String()
	a.balances[destination] += amount
	return models.OperationResult{Success: true, ProviderReference: ref}, nil
}

func (a *LedgerAdapter) CancelAuthorization(ctx context.Context, providerRef string) (models.OperationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hold, ok := a.holds[providerRef]
	if !ok {
		return models.OperationResult{Success: false, Error: "unknown hold"},
			fmt.Errorf("%w: unknown hold %s", ErrProviderRejected, providerRef)
	}
	a.balances[hold.account] += hold.amount
	delete(a.holds, providerRef)
	return models.OperationResult{Success: true, ProviderReference: providerRef}, nil
}
