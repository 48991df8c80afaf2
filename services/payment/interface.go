package payment

import (
	"context"

	"interlingo/models"
)

// SettlementEngine drives the multi-step payment lifecycle of an
// appointment: authorize, capture and transfer, with cancellation before
// capture.
type SettlementEngine interface {
	PreparePayment(ctx context.Context, appt models.Appointment, prices *models.PriceResult) (*models.Payment, error)
	RunOperation(ctx context.Context, p *models.Payment, op models.PaymentOperation) (models.OperationResult, error)
	RetryAuthorization(ctx context.Context, appointmentID string) (models.OperationResult, error)
}

// AppointmentSource is read-only access to booked sessions. Scheduling
// owns appointments; the engine only consumes their time span and
// billing metadata.
type AppointmentSource interface {
	GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error)
}

// WaitLister receives appointments whose authorization failed, for
// scheduled retry.
type WaitLister interface {
	Enqueue(ctx context.Context, appt models.Appointment) error
}
