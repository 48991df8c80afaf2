package waitlist

import (
	"context"
	"time"

	"go.uber.org/zap"

	"interlingo/models"
)

// PaymentDriver re-drives authorization for a wait-listed appointment.
// Implemented by the settlement engine; the coordinator and the engine
// share the same per-appointment exclusion key, so a scan never races an
// in-flight operation on the same appointment.
type PaymentDriver interface {
	RetryAuthorization(ctx context.Context, appointmentID string) (models.OperationResult, error)
}

// ScanReport summarizes one wait-list scan cycle.
type ScanReport struct {
	Processed int
	Succeeded int
	Remaining int
	Exhausted int
}

// Coordinator holds appointments whose authorization failed and
// re-drives them on a fixed scan schedule, short-time-slot entries
// first.
type Coordinator struct {
	Store              Store
	Driver             PaymentDriver
	Logger             *zap.Logger
	MaxAttempts        int
	ShortSlotThreshold time.Duration
	ScanBatchSize      int
}

// Enqueue wait-lists an appointment after a failed authorization. It is
// idempotent: an appointment already on the list keeps its entry, so
// attempt counts survive the re-enqueue that follows each failed retry.
func (c *Coordinator) Enqueue(ctx context.Context, appt models.Appointment) error {
	existing, err := c.Store.Get(ctx, appt.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	entry := models.PaymentWaitListEntry{
		Appointment:         appt,
		PaymentAttemptCount: 0,
		IsShortTimeSlot:     time.Until(appt.StartTime) < c.ShortSlotThreshold,
		EnqueuedAt:          time.Now(),
	}
	c.Logger.Info("appointment wait-listed for payment retry",
		zap.String("appointmentId", appt.ID),
		zap.Bool("shortTimeSlot", entry.IsShortTimeSlot),
	)
	return c.Store.Enqueue(ctx, entry)
}

// Scan processes due entries in priority order, incrementing each
// entry's attempt count per attempt made. Entries are removed on
// successful authorization, or removed and escalated once the maximum
// attempt count is exhausted.
func (c *Coordinator) Scan(ctx context.Context) (ScanReport, error) {
	entries, err := c.Store.Due(ctx, c.ScanBatchSize)
	if err != nil {
		return ScanReport{}, err
	}

	var report ScanReport
	for _, entry := range entries {
		report.Processed++
		apptID := entry.Appointment.ID

		entry.PaymentAttemptCount++
		if err := c.Store.Update(ctx, entry); err != nil {
			c.Logger.Error("failed to update wait-list entry", zap.String("appointmentId", apptID), zap.Error(err))
			continue
		}

		result, retryErr := c.Driver.RetryAuthorization(ctx, apptID)
		if retryErr == nil && result.Success {
			if err := c.Store.Remove(ctx, apptID); err != nil {
				c.Logger.Error("failed to remove settled wait-list entry", zap.String("appointmentId", apptID), zap.Error(err))
			}
			report.Succeeded++
			continue
		}

		if entry.PaymentAttemptCount >= c.MaxAttempts {
			if err := c.Store.Remove(ctx, apptID); err != nil {
				c.Logger.Error("failed to remove exhausted wait-list entry", zap.String("appointmentId", apptID), zap.Error(err))
			}
			c.Logger.Error("payment attempts exhausted, escalating for manual resolution",
				zap.String("appointmentId", apptID),
				zap.Int("attempts", entry.PaymentAttemptCount),
				zap.Error(ErrWaitListExhausted),
			)
			report.Exhausted++
			continue
		}

		c.Logger.Warn("payment retry failed, appointment stays wait-listed",
			zap.String("appointmentId", apptID),
			zap.Int("attempts", entry.PaymentAttemptCount),
			zap.Error(retryErr),
		)
		report.Remaining++
	}
	return report, nil
}
