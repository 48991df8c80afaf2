package payment

import (
	"context"

	"go.uber.org/zap"

	"interlingo/models"
)

// EventSink receives a PaymentTransitionEvent for every state transition.
// Downstream notification and audit consumers hang off this; the engine
// itself never delivers notifications.
type EventSink interface {
	Emit(ctx context.Context, event models.PaymentTransitionEvent)
}

// LogEventSink writes transition events to the structured log.
type LogEventSink struct {
	Logger *zap.Logger
}

func (s *LogEventSink) Emit(ctx context.Context, event models.PaymentTransitionEvent) {
	s.Logger.Info("payment transition",
		zap.String("paymentId", event.PaymentID),
		zap.String("from", string(event.FromState)),
		zap.String("to", string(event.ToState)),
		zap.String("operation", string(event.Operation)),
		zap.Bool("success", event.Result.Success),
		zap.String("providerRef", event.Result.ProviderReference),
	)
}
