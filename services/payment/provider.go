package payment

import (
	"context"
	"fmt"

	"interlingo/models"
)

// ProviderAdapter is the capability every payment rail implements. Each
// call reduces the provider's wire protocol to a normalized
// OperationResult; rails are selected by models.PaymentSystem, never by
// embedding.
type ProviderAdapter interface {
	Authorize(ctx context.Context, amount float64, currency, paymentMethod, idempotencyKey string) (models.OperationResult, error)
	Capture(ctx context.Context, paymentItemID, providerRef string, amount float64) (models.OperationResult, error)
	Transfer(ctx context.Context, destination string, amount float64, currency string, opts models.TransferContextOptions) (models.OperationResult, error)
	CancelAuthorization(ctx context.Context, providerRef string) (models.OperationResult, error)
}

// AdapterRegistry routes operations to the adapter for a payment system.
type AdapterRegistry struct {
	adapters map[models.PaymentSystem]ProviderAdapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[models.PaymentSystem]ProviderAdapter)}
}

// Register binds an adapter to a payment system.
func (r *AdapterRegistry) Register(system models.PaymentSystem, adapter ProviderAdapter) {
	r.adapters[system] = adapter
}

// AdapterFor returns the adapter registered for the given system.
func (r *AdapterRegistry) AdapterFor(system models.PaymentSystem) (ProviderAdapter, error) {
	adapter, ok := r.adapters[system]
	if !ok {
		return nil, fmt.Errorf("no provider adapter registered for payment system %q", system)
	}
	return adapter, nil
}
