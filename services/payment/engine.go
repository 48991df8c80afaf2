package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	paymentRepo "interlingo/database/repository/payment"
	"interlingo/models"
)

// Engine is the production settlement engine. All mutation of a payment
// aggregate and its items goes through RunOperation; callers never touch
// the aggregate directly.
type Engine struct {
	Repo         paymentRepo.PaymentRepository
	Adapters     *AdapterRegistry
	Appointments AppointmentSource
	Aggregator   *CaptureAggregator
	Locks        *AppointmentLocks
	Events       EventSink
	WaitList     WaitLister
	Logger       *zap.Logger

	ProviderTimeout      time.Duration
	MaxTransientRetries  int
	MaxCancelAttempts    int
	PlatformFeeRate      float64
	TransferFeeTolerance float64
}

// PreparePayment creates the payment aggregate for an appointment that
// has become billable, splitting the priced amount into an interpreter
// payout item and a platform fee item.
func (e *Engine) PreparePayment(ctx context.Context, appt models.Appointment, prices *models.PriceResult) (*models.Payment, error) {
	if existing, err := e.Repo.GetByAppointmentID(ctx, appt.ID); err == nil && existing != nil {
		return existing, nil
	}

	customerType := models.CustomerIndividual
	if appt.IsCorporateBooking {
		customerType = models.CustomerCorporate
	}
	system := models.PaymentSystemCard
	if BuildCorporateCaptureContext(appt).IsSameCorporateCompany {
		system = models.PaymentSystemLedger
	}

	paymentID := uuid.New().String()
	payout := round2(prices.Price * (1 - e.PlatformFeeRate))
	fee := round2(prices.Price - payout)

	p := &models.Payment{
		ID:            paymentID,
		AppointmentID: appt.ID,
		Currency:      prices.Currency,
		CustomerType:  customerType,
		Direction:     models.DirectionIncoming,
		System:        system,
		Status:        models.PaymentPending,
		Items: []models.PaymentItem{
			{ID: uuid.New().String(), PaymentID: paymentID, Kind: models.ItemInterpreterPayout, Amount: payout, Status: models.ItemPending},
			{ID: uuid.New().String(), PaymentID: paymentID, Kind: models.ItemPlatformFee, Amount: fee, Status: models.ItemPending},
		},
		Prices:    prices,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := e.Repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return p, nil
}

// RunOperation executes one settlement operation under the appointment's
// exclusion key. Operations for one payment are strictly sequential;
// payments for different appointments run fully in parallel.
func (e *Engine) RunOperation(ctx context.Context, p *models.Payment, op models.PaymentOperation) (models.OperationResult, error) {
	unlock, err := e.Locks.Lock(ctx, p.AppointmentID)
	if err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
	defer unlock()

	switch op {
	case models.OpAuthorizePayment:
		return e.authorize(ctx, p)
	case models.OpAuthorizationCancelPayment:
		return e.cancelAuthorization(ctx, p)
	case models.OpCapturePayment:
		return e.capture(ctx, p)
	case models.OpTransferPayment:
		return e.transfer(ctx, p)
	default:
		err := fmt.Errorf("unknown payment operation %q", op)
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
}

// RetryAuthorization re-drives authorization for a wait-listed
// appointment.
func (e *Engine) RetryAuthorization(ctx context.Context, appointmentID string) (models.OperationResult, error) {
	p, err := e.Repo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
	return e.RunOperation(ctx, p, models.OpAuthorizePayment)
}

func (e *Engine) authorize(ctx context.Context, p *models.Payment) (models.OperationResult, error) {
	if err := e.setStatus(ctx, p, models.PaymentAuthorizing, models.OpAuthorizePayment, models.OperationResult{}); err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
	p.AttemptNumber++

	appt, err := e.Appointments.GetAppointmentByID(ctx, p.AppointmentID)
	if err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}

	// Same-company corporate bookings on a post-payment funding source
	// are invoiced later, not charged per session.
	cctx := BuildCorporateCaptureContext(*appt)
	if p.CustomerType == models.CustomerCorporate && cctx.IsSameCorporateCompany && p.System == models.PaymentSystemLedger {
		result := models.OperationResult{Success: true}
		if err := e.setStatus(ctx, p, models.PaymentAuthorized, models.OpAuthorizePayment, result); err != nil {
			return models.OperationResult{Success: false, Error: err.Error()}, err
		}
		return result, nil
	}

	adapter, err := e.Adapters.AdapterFor(p.System)
	if err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}

	result, err := e.callWithRetry(ctx, func(callCtx context.Context) (models.OperationResult, error) {
		return adapter.Authorize(callCtx, p.TotalAmount(), p.Currency, appt.PaymentMethod, p.IdempotencyKey())
	})
	if err != nil {
		if stErr := e.setStatus(ctx, p, models.PaymentAuthFailed, models.OpAuthorizePayment, result); stErr != nil {
			e.Logger.Error("failed to record authorization failure", zap.String("paymentId", p.ID), zap.Error(stErr))
		}
		if e.WaitList != nil {
			if wlErr := e.WaitList.Enqueue(ctx, *appt); wlErr != nil {
				e.Logger.Error("failed to wait-list appointment", zap.String("appointmentId", appt.ID), zap.Error(wlErr))
			}
		}
		return result, err
	}

	p.ProviderRef = result.ProviderReference
	if err := e.setStatus(ctx, p, models.PaymentAuthorized, models.OpAuthorizePayment, result); err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
	return result, nil
}

func (e *Engine) capture(ctx context.Context, p *models.Payment) (models.OperationResult, error) {
	if err := e.setStatus(ctx, p, models.PaymentCapturing, models.OpCapturePayment, models.OperationResult{}); err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}

	var summary CaptureSummary
	var captureErr error
	if len(p.Items) == 1 {
		summary, captureErr = e.captureSingle(ctx, p)
		if captureErr != nil && len(summary.Results) == 0 {
			return models.OperationResult{Success: false, Error: captureErr.Error()}, captureErr
		}
	} else {
		var err error
		summary, err = e.Aggregator.CaptureAll(ctx, p)
		if err != nil {
			return models.OperationResult{Success: false, Error: err.Error()}, err
		}
	}

	if !summary.AllCaptured() {
		// Captured items stay captured so reconciliation can resolve just
		// the failed subset; the payment is never reported as paid.
		result := models.OperationResult{Success: false, Error: ErrPartialCapture.Error()}
		if captureErr != nil {
			result.Error = captureErr.Error()
		}
		if stErr := e.setStatus(ctx, p, models.PaymentCaptureFailed, models.OpCapturePayment, result); stErr != nil {
			e.Logger.Error("failed to record capture failure", zap.String("paymentId", p.ID), zap.Error(stErr))
		}
		if captureErr != nil {
			// A single-item failure keeps its provider error class so
			// transient failures stay retryable at the queue level.
			return result, fmt.Errorf("payment item capture failed: %w", captureErr)
		}
		return result, fmt.Errorf("%w: captured %.2f of %.2f", ErrPartialCapture, summary.TotalCapturedAmount, p.TotalAmount())
	}

	result := models.OperationResult{Success: true, ProviderReference: p.ProviderRef}
	if err := e.setStatus(ctx, p, models.PaymentCaptured, models.OpCapturePayment, result); err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
	return result, nil
}

// captureSingle captures a one-item payment directly, without the
// fan-out machinery. The provider error, if any, is returned alongside
// the summary so the caller can keep its class.
func (e *Engine) captureSingle(ctx context.Context, p *models.Payment) (CaptureSummary, error) {
	item := &p.Items[0]
	if item.Status == models.ItemCaptured {
		result := models.OperationResult{Success: true, ProviderReference: item.ProviderRef}
		return CaptureSummary{Results: []models.OperationResult{result}, TotalCapturedAmount: item.CapturedAmount}, nil
	}

	adapter, err := e.Adapters.AdapterFor(p.System)
	if err != nil {
		return CaptureSummary{}, err
	}
	providerRef := item.ProviderRef
	if providerRef == "" {
		providerRef = p.ProviderRef
	}
	result, captureErr := e.callWithRetry(ctx, func(callCtx context.Context) (models.OperationResult, error) {
		return adapter.Capture(callCtx, item.ID, providerRef, item.Amount)
	})
	summary := CaptureSummary{Results: []models.OperationResult{result}}
	if result.Success {
		item.CapturedAmount = item.Amount
		item.Status = models.ItemCaptured
		item.ProviderRef = result.ProviderReference
		summary.TotalCapturedAmount = item.Amount
		return summary, nil
	}
	item.Status = models.ItemFailed
	e.Logger.Warn("payment item capture failed",
		zap.String("paymentId", p.ID),
		zap.String("itemId", item.ID),
		zap.Error(captureErr),
	)
	return summary, captureErr
}

func (e *Engine) cancelAuthorization(ctx context.Context, p *models.Payment) (models.OperationResult, error) {
	if p.Status.IsCaptureStarted() {
		result := models.OperationResult{Success: false, Error: ErrCannotCancelAfterCapture.Error()}
		return result, ErrCannotCancelAfterCapture
	}

	// The provider release is always attempted when a hold exists, even
	// if local state is inconsistent: an un-released hold is a
	// customer-visible defect.
	if p.ProviderRef != "" {
		adapter, err := e.Adapters.AdapterFor(p.System)
		if err != nil {
			return models.OperationResult{Success: false, Error: err.Error()}, err
		}
		attempts := e.MaxCancelAttempts
		if attempts <= 0 {
			attempts = 1
		}
		var result models.OperationResult
		for attempt := 1; attempt <= attempts; attempt++ {
			callCtx, cancel := context.WithTimeout(ctx, e.providerTimeout())
			result, err = adapter.CancelAuthorization(callCtx, p.ProviderRef)
			cancel()
			if err == nil {
				break
			}
			e.Logger.Warn("authorization release failed",
				zap.String("paymentId", p.ID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		if err != nil {
			e.Logger.Error("authorization release exhausted attempts, escalating",
				zap.String("paymentId", p.ID),
				zap.String("providerRef", p.ProviderRef),
			)
			return result, err
		}
	}

	result := models.OperationResult{Success: true, ProviderReference: p.ProviderRef}
	if err := e.setStatus(ctx, p, models.PaymentCancelled, models.OpAuthorizationCancelPayment, result); err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
	return result, nil
}

func (e *Engine) transfer(ctx context.Context, p *models.Payment) (models.OperationResult, error) {
	isSecondAttempt := p.Status == models.PaymentTransferFailed
	if err := e.setStatus(ctx, p, models.PaymentTransferring, models.OpTransferPayment, models.OperationResult{}); err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}

	appt, err := e.Appointments.GetAppointmentByID(ctx, p.AppointmentID)
	if err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}

	// Same-company corporate transfers never leave the umbrella account:
	// the payout is a ledger entry, not an external call.
	cctx := BuildCorporateCaptureContext(*appt)
	if cctx.IsSameCorporateCompany {
		result := models.OperationResult{Success: true}
		if err := e.setStatus(ctx, p, models.PaymentSettled, models.OpTransferPayment, result); err != nil {
			return models.OperationResult{Success: false, Error: err.Error()}, err
		}
		return result, nil
	}

	amount := payoutAmount(p)
	expected := round2(p.Prices.Price * (1 - e.PlatformFeeRate))
	if !amountWithinTolerance(amount, expected, e.TransferFeeTolerance, isSecondAttempt) {
		result := models.OperationResult{Success: false, Error: ErrTransferAmountMismatch.Error()}
		if stErr := e.setStatus(ctx, p, models.PaymentTransferFailed, models.OpTransferPayment, result); stErr != nil {
			e.Logger.Error("failed to record transfer failure", zap.String("paymentId", p.ID), zap.Error(stErr))
		}
		return result, fmt.Errorf("%w: payout %.2f, expected %.2f", ErrTransferAmountMismatch, amount, expected)
	}

	destination := appt.PayoutDestination
	if destination == "" {
		destination = appt.InterpreterID
	}

	adapter, err := e.Adapters.AdapterFor(p.System)
	if err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
	opts := models.TransferContextOptions{Prices: p.Prices, IsSecondAttempt: isSecondAttempt}
	result, err := e.callWithRetry(ctx, func(callCtx context.Context) (models.OperationResult, error) {
		return adapter.Transfer(callCtx, destination, amount, p.Currency, opts)
	})
	if err != nil {
		if stErr := e.setStatus(ctx, p, models.PaymentTransferFailed, models.OpTransferPayment, result); stErr != nil {
			e.Logger.Error("failed to record transfer failure", zap.String("paymentId", p.ID), zap.Error(stErr))
		}
		return result, err
	}

	if err := e.setStatus(ctx, p, models.PaymentSettled, models.OpTransferPayment, result); err != nil {
		return models.OperationResult{Success: false, Error: err.Error()}, err
	}
	return result, nil
}

// callWithRetry runs one provider call under the configured timeout,
// retrying transient failures with backoff. Definitive rejections are
// returned immediately; a timed-out call counts as a failure, never an
// unknown success, and the idempotency key makes the retry safe.
func (e *Engine) callWithRetry(ctx context.Context, call func(context.Context) (models.OperationResult, error)) (models.OperationResult, error) {
	retries := e.MaxTransientRetries
	if retries < 0 {
		retries = 0
	}
	var result models.OperationResult
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.providerTimeout())
		result, err = call(callCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrProviderUnavailable) {
			return result, err
		}
		if attempt < retries {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
			}
		}
	}
	return result, err
}

// setStatus validates and applies a state transition, persists it, and
// emits the transition event for the audit sink.
func (e *Engine) setStatus(ctx context.Context, p *models.Payment, to models.PaymentStatus, op models.PaymentOperation, result models.OperationResult) error {
	from := p.Status
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	if err := e.Repo.Update(ctx, p); err != nil {
		p.Status = from
		return fmt.Errorf("failed to persist payment transition: %w", err)
	}

	event := models.PaymentTransitionEvent{
		PaymentID: p.ID,
		FromState: from,
		ToState:   to,
		Operation: op,
		Result:    result,
		At:        time.Now(),
	}
	if err := e.Repo.AppendEvent(ctx, event); err != nil {
		e.Logger.Warn("failed to append transition event", zap.String("paymentId", p.ID), zap.Error(err))
	}
	if e.Events != nil {
		e.Events.Emit(ctx, event)
	}
	return nil
}

func (e *Engine) providerTimeout() time.Duration {
	if e.ProviderTimeout <= 0 {
		return 15 * time.Second
	}
	return e.ProviderTimeout
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
