package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/transfer"

	"interlingo/models"
)

// StripeAdapter drives the card rail through Stripe payment intents with
// manual capture, so funds are held at authorization and taken at
// capture.
type StripeAdapter struct{}

func NewStripeAdapter() *StripeAdapter {
	return &StripeAdapter{}
}

func (a *StripeAdapter) Authorize(ctx context.Context, amount float64, currency, paymentMethod, idempotencyKey string) (models.OperationResult, error) {
	params := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(toMinorUnits(amount)),
		Currency:      stripe.String(strings.ToLower(currency)),
		PaymentMethod: stripe.String(paymentMethod),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
	}
	params.SetIdempotencyKey(idempotencyKey)

	intent, err := paymentintent.New(params)
	if err != nil {
		return failedResult(err), normalizeStripeError(err)
	}
	return models.OperationResult{Success: true, ProviderReference: intent.ID}, nil
}

func (a *StripeAdapter) Capture(ctx context.Context, paymentItemID, providerRef string, amount float64) (models.OperationResult, error) {
	params := &stripe.PaymentIntentCaptureParams{
		Params:          stripe.Params{Context: ctx},
		AmountToCapture: stripe.Int64(toMinorUnits(amount)),
	}
	params.SetIdempotencyKey("capture:" + paymentItemID)

	intent, err := paymentintent.Capture(providerRef, params)
	if err != nil {
		return failedResult(err), normalizeStripeError(err)
	}
	return models.OperationResult{Success: true, ProviderReference: intent.ID}, nil
}

func (a *StripeAdapter) Transfer(ctx context.Context, destination string, amount float64, currency string, opts models.TransferContextOptions) (models.OperationResult, error) {
	params := &stripe.TransferParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(toMinorUnits(amount)),
		Currency:    stripe.String(strings.ToLower(currency)),
		Destination: stripe.String(destination),
	}
	tr, err := transfer.New(params)
	if err != nil {
		return failedResult(err), normalizeStripeError(err)
	}
	return models.OperationResult{Success: true, ProviderReference: tr.ID}, nil
}

func (a *StripeAdapter) CancelAuthorization(ctx context.Context, providerRef string) (models.OperationResult, error) {
	params := &stripe.PaymentIntentCancelParams{
		Params: stripe.Params{Context: ctx},
	}
	intent, err := paymentintent.Cancel(providerRef, params)
	if err != nil {
		return failedResult(err), normalizeStripeError(err)
	}
	return models.OperationResult{Success: true, ProviderReference: intent.ID}, nil
}

// normalizeStripeError reduces Stripe's error surface to the engine's
// taxonomy: card declines are definitive rejections, idempotency replays
// are conflicts, everything else is treated as transient.
func normalizeStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard:
			return fmt.Errorf("%w: %s", ErrProviderRejected, stripeErr.Msg)
		case stripe.ErrorTypeIdempotency:
			return fmt.Errorf("%w: %s", ErrIdempotencyConflict, stripeErr.Msg)
		case stripe.ErrorTypeInvalidRequest:
			return fmt.Errorf("%w: %s", ErrProviderRejected, stripeErr.Msg)
		default:
			return fmt.Errorf("%w: %s", ErrProviderUnavailable, stripeErr.Msg)
		}
	}
	// Timeouts and transport failures are never treated as unknown
	// success; the idempotency key makes the retry safe.
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

func failedResult(err error) models.OperationResult {
	return models.OperationResult{Success: false, Error: err.Error()}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
