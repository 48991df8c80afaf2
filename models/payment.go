package models

import (
	"fmt"
	"time"
)

// PaymentOperation is one step of the settlement lifecycle.
type PaymentOperation string

const (
	OpAuthorizePayment           PaymentOperation = "AUTHORIZE_PAYMENT"
	OpAuthorizationCancelPayment PaymentOperation = "AUTHORIZATION_CANCEL_PAYMENT"
	OpCapturePayment             PaymentOperation = "CAPTURE_PAYMENT"
	OpTransferPayment            PaymentOperation = "TRANSFER_PAYMENT"
)

// ParsePaymentOperation converts a raw tag into a PaymentOperation.
func ParsePaymentOperation(raw string) (PaymentOperation, error) {
	switch PaymentOperation(raw) {
	case OpAuthorizePayment:
		return OpAuthorizePayment, nil
	case OpAuthorizationCancelPayment:
		return OpAuthorizationCancelPayment, nil
	case OpCapturePayment:
		return OpCapturePayment, nil
	case OpTransferPayment:
		return OpTransferPayment, nil
	default:
		return "", fmt.Errorf("unknown payment operation %q", raw)
	}
}

// PaymentStatus is the state of a payment aggregate.
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "PENDING"
	PaymentAuthorizing    PaymentStatus = "AUTHORIZING"
	PaymentAuthorized     PaymentStatus = "AUTHORIZED"
	PaymentCapturing      PaymentStatus = "CAPTURING"
	PaymentCaptured       PaymentStatus = "CAPTURED"
	PaymentTransferring   PaymentStatus = "TRANSFERRING"
	PaymentSettled        PaymentStatus = "SETTLED"
	PaymentAuthFailed     PaymentStatus = "AUTH_FAILED"
	PaymentCaptureFailed  PaymentStatus = "CAPTURE_FAILED"
	PaymentTransferFailed PaymentStatus = "TRANSFER_FAILED"
	PaymentCancelled      PaymentStatus = "CANCELLED"
)

// paymentTransitions is the closed transition table of the settlement
// state machine. Failure states transition back into their in-progress
// state when an operation is re-driven.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:        {PaymentAuthorizing, PaymentCancelled},
	PaymentAuthorizing:    {PaymentAuthorized, PaymentAuthFailed, PaymentCancelled},
	PaymentAuthorized:     {PaymentCapturing, PaymentCancelled},
	PaymentCapturing:      {PaymentCaptured, PaymentCaptureFailed},
	PaymentCaptured:       {PaymentTransferring},
	PaymentTransferring:   {PaymentSettled, PaymentTransferFailed},
	PaymentAuthFailed:     {PaymentAuthorizing, PaymentCancelled},
	PaymentCaptureFailed:  {PaymentCapturing},
	PaymentTransferFailed: {PaymentTransferring},
}

// CanTransitionTo reports whether the status may move to the target state.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsCaptureStarted reports whether capture has begun, after which an
// authorization can no longer be cancelled (that would be a refund).
func (s PaymentStatus) IsCaptureStarted() bool {
	switch s {
	case PaymentCapturing, PaymentCaptured, PaymentCaptureFailed, PaymentTransferring, PaymentSettled, PaymentTransferFailed:
		return true
	default:
		return false
	}
}

// CustomerType distinguishes individually billed clients from corporate
// umbrella accounts.
type CustomerType string

const (
	CustomerIndividual CustomerType = "INDIVIDUAL"
	CustomerCorporate  CustomerType = "CORPORATE"
)

// PaymentDirection distinguishes money taken from a client from money
// paid out to an interpreter.
type PaymentDirection string

const (
	DirectionIncoming  PaymentDirection = "INCOMING"
	DirectionOutcoming PaymentDirection = "OUTCOMING"
)

// PaymentSystem selects the payment rail an operation is routed to.
type PaymentSystem string

const (
	PaymentSystemCard   PaymentSystem = "card"
	PaymentSystemLedger PaymentSystem = "ledger"
)

// PaymentItemKind tags what a payment item funds.
type PaymentItemKind string

const (
	ItemInterpreterPayout PaymentItemKind = "interpreter_payout"
	ItemPlatformFee       PaymentItemKind = "platform_fee"
)

// PaymentItemStatus is the per-item capture state.
type PaymentItemStatus string

const (
	ItemPending  PaymentItemStatus = "PENDING"
	ItemCaptured PaymentItemStatus = "CAPTURED"
	ItemFailed   PaymentItemStatus = "FAILED"
)

// PaymentItem is an independently captured slice of a payment, e.g. the
// interpreter payout versus the platform fee.
type PaymentItem struct {
	ID             string            `bson:"id" json:"id"`
	PaymentID      string            `bson:"payment_id" json:"paymentId"`
	Kind           PaymentItemKind   `bson:"kind" json:"kind"`
	Amount         float64           `bson:"amount" json:"amount"`
	CapturedAmount float64           `bson:"captured_amount" json:"capturedAmount"`
	Status         PaymentItemStatus `bson:"status" json:"status"`
	ProviderRef    string            `bson:"provider_ref,omitempty" json:"providerRef,omitempty"`
}

// Payment is the aggregate root for one appointment's settlement. It is
// never deleted; status transitions supersede each other and every
// transition is recorded as an event for audit.
type Payment struct {
	ID            string           `bson:"id" json:"id"`
	AppointmentID string           `bson:"appointment_id" json:"appointmentId"`
	Currency      string           `bson:"currency" json:"currency"`
	CustomerType  CustomerType     `bson:"customer_type" json:"customerType"`
	Direction     PaymentDirection `bson:"direction" json:"direction"`
	System        PaymentSystem    `bson:"system" json:"system"`
	Status        PaymentStatus    `bson:"status" json:"status"`
	AttemptNumber int              `bson:"attempt_number" json:"attemptNumber"`
	Items         []PaymentItem    `bson:"items" json:"items"`
	ProviderRef   string           `bson:"provider_ref,omitempty" json:"providerRef,omitempty"`
	Prices        *PriceResult     `bson:"prices,omitempty" json:"prices,omitempty"`
	CreatedAt     time.Time        `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time        `bson:"updated_at" json:"updatedAt"`
}

// TotalAmount sums the amounts of all payment items.
func (p Payment) TotalAmount() float64 {
	total := 0.0
	for _, item := range p.Items {
		total += item.Amount
	}
	return total
}

// IdempotencyKey derives the provider-side idempotency key for the
// current authorization attempt, making provider retries safe.
func (p Payment) IdempotencyKey() string {
	return fmt.Sprintf("%s:%d", p.AppointmentID, p.AttemptNumber)
}

// OperationResult is the normalized shape every provider call reduces to.
type OperationResult struct {
	Success           bool   `bson:"success" json:"success"`
	Error             string `bson:"error,omitempty" json:"error,omitempty"`
	ProviderReference string `bson:"provider_reference,omitempty" json:"providerReference,omitempty"`
}

// CorporateCaptureContext holds the facts that decide transfer routing.
// Computed once per payment attempt, never persisted.
type CorporateCaptureContext struct {
	IsClientCorporate      bool
	IsInterpreterCorporate bool
	ClientCountry          string
	InterpreterCountry     string
	IsSameCorporateCompany bool
}

// TransferContextOptions tunes a transfer attempt. Second attempts may
// tolerate provider fee differences the first attempt would reject.
type TransferContextOptions struct {
	Prices          *PriceResult
	IsSecondAttempt bool
}

// PaymentTransitionEvent is emitted on every state transition for the
// downstream audit and notification sinks.
type PaymentTransitionEvent struct {
	PaymentID string           `bson:"payment_id" json:"paymentId"`
	FromState PaymentStatus    `bson:"from_state" json:"fromState"`
	ToState   PaymentStatus    `bson:"to_state" json:"toState"`
	Operation PaymentOperation `bson:"operation" json:"operation"`
	Result    OperationResult  `bson:"result" json:"result"`
	At        time.Time        `bson:"at" json:"at"`
}
