package payment

import "fmt"

// PaymentError is a typed settlement failure.
type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	// ErrProviderUnavailable marks a transient provider failure (network,
	// 5xx, timeout). Retried with backoff up to a bounded count.
	ErrProviderUnavailable = &PaymentError{Code: "providerUnavailable", Message: "payment provider unavailable"}
	// ErrProviderRejected marks a definitive decline (insufficient funds,
	// card declined). Never retried automatically for the same funding
	// source; the appointment goes to the wait-list instead.
	ErrProviderRejected = &PaymentError{Code: "providerRejected", Message: "payment provider rejected the operation"}
	// ErrIdempotencyConflict marks an idempotency key replay with
	// different parameters.
	ErrIdempotencyConflict = &PaymentError{Code: "idempotencyConflict", Message: "idempotency key conflict"}
	// ErrPartialCapture marks a capture where some items failed. Captured
	// items are retained for reconciliation, never reversed.
	ErrPartialCapture = &PaymentError{Code: "partialCapture", Message: "one or more payment items failed to capture"}
	// ErrCannotCancelAfterCapture rejects cancellation once capture has
	// started; reversing captured funds is a refund, a distinct operation.
	ErrCannotCancelAfterCapture = &PaymentError{Code: "cannotCancelAfterCapture", Message: "authorization cannot be cancelled after capture has started"}
	// ErrInvalidTransition marks an operation attempted from a state that
	// does not permit it.
	ErrInvalidTransition = &PaymentError{Code: "invalidTransition", Message: "operation not permitted in current payment state"}
	// ErrTransferAmountMismatch marks a payout that does not match the
	// captured amount within the attempt's tolerance.
	ErrTransferAmountMismatch = &PaymentError{Code: "transferAmountMismatch", Message: "transfer amount does not match captured amount"}
)
