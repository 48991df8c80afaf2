package waitlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"interlingo/models"
)

// fakeDriver scripts retry outcomes per appointment.
type fakeDriver struct {
	mu       sync.Mutex
	succeeds map[string]bool
	calls    []string
}

func (d *fakeDriver) RetryAuthorization(ctx context.Context, appointmentID string) (models.OperationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, appointmentID)
	if d.succeeds[appointmentID] {
		return models.OperationResult{Success: true, ProviderReference: "auth_retry"}, nil
	}
	return models.OperationResult{Success: false, Error: "declined"}, errors.New("declined")
}

func waitListAppointment(id string, startsIn time.Duration) models.Appointment {
	return models.Appointment{
		ID:        id,
		StartTime: time.Now().Add(startsIn),
		EndTime:   time.Now().Add(startsIn + time.Hour),
		Currency:  "EUR",
	}
}

func newTestCoordinator(driver *fakeDriver) *Coordinator {
	return &Coordinator{
		Store:              NewMemoryStore(),
		Driver:             driver,
		Logger:             zap.NewNop(),
		MaxAttempts:        3,
		ShortSlotThreshold: 2 * time.Hour,
		ScanBatchSize:      100,
	}
}

func TestEnqueueIsIdempotent(t *testing.T) {
	c := newTestCoordinator(&fakeDriver{})
	appt := waitListAppointment("appt-1", 24*time.Hour)

	if err := c.Enqueue(context.Background(), appt); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	entry, _ := c.Store.Get(context.Background(), appt.ID)
	entry.PaymentAttemptCount = 2
	if err := c.Store.Update(context.Background(), *entry); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// The engine re-enqueues after every failed retry; the existing entry
	// and its attempt count must survive.
	if err := c.Enqueue(context.Background(), appt); err != nil {
		t.Fatalf("second Enqueue failed: %v", err)
	}
	entry, _ = c.Store.Get(context.Background(), appt.ID)
	if entry.PaymentAttemptCount != 2 {
		t.Errorf("attempt count reset by re-enqueue, got %d", entry.PaymentAttemptCount)
	}
}

func TestShortTimeSlotFlagFixedAtEnqueue(t *testing.T) {
	c := newTestCoordinator(&fakeDriver{})

	if err := c.Enqueue(context.Background(), waitListAppointment("soon", 30*time.Minute)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := c.Enqueue(context.Background(), waitListAppointment("later", 48*time.Hour)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	soon, _ := c.Store.Get(context.Background(), "soon")
	later, _ := c.Store.Get(context.Background(), "later")
	if !soon.IsShortTimeSlot {
		t.Error("appointment inside the threshold must be a short time slot")
	}
	if later.IsShortTimeSlot {
		t.Error("appointment outside the threshold must not be a short time slot")
	}
}

func TestScanPrioritizesShortTimeSlots(t *testing.T) {
	driver := &fakeDriver{succeeds: map[string]bool{}}
	c := newTestCoordinator(driver)

	// Enqueued earlier, but not short.
	regular := waitListAppointment("regular", 72*time.Hour)
	if err := c.Enqueue(context.Background(), regular); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	short := waitListAppointment("short", time.Hour)
	if err := c.Enqueue(context.Background(), short); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if _, err := c.Scan(context.Background()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(driver.calls) != 2 {
		t.Fatalf("expected 2 retries, got %d", len(driver.calls))
	}
	if driver.calls[0] != "short" {
		t.Errorf("short-time-slot entry must be retried first, got order %v", driver.calls)
	}
}

func TestScanRemovesSucceededEntries(t *testing.T) {
	driver := &fakeDriver{succeeds: map[string]bool{"appt-ok": true}}
	c := newTestCoordinator(driver)

	if err := c.Enqueue(context.Background(), waitListAppointment("appt-ok", 24*time.Hour)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	report, err := c.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if report.Succeeded != 1 || report.Processed != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	entry, _ := c.Store.Get(context.Background(), "appt-ok")
	if entry != nil {
		t.Error("succeeded entry must leave the wait-list")
	}
}

func TestScanCountsAttemptsAndExhausts(t *testing.T) {
	driver := &fakeDriver{}
	c := newTestCoordinator(driver)

	if err := c.Enqueue(context.Background(), waitListAppointment("appt-bad", 24*time.Hour)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// Attempts 1 and 2 fail and stay on the list with a strictly
	// increasing count.
	for want := 1; want < c.MaxAttempts; want++ {
		report, err := c.Scan(context.Background())
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if report.Remaining != 1 {
			t.Fatalf("expected entry to remain after attempt %d: %+v", want, report)
		}
		entry, _ := c.Store.Get(context.Background(), "appt-bad")
		if entry.PaymentAttemptCount != want {
			t.Fatalf("expected attempt count %d, got %d", want, entry.PaymentAttemptCount)
		}
	}

	// The final attempt exhausts the entry and removes it for escalation.
	report, err := c.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if report.Exhausted != 1 {
		t.Errorf("expected exhaustion, got %+v", report)
	}
	entry, _ := c.Store.Get(context.Background(), "appt-bad")
	if entry != nil {
		t.Error("exhausted entry must leave the wait-list")
	}
	if len(driver.calls) != c.MaxAttempts {
		t.Errorf("expected exactly %d retries, got %d", c.MaxAttempts, len(driver.calls))
	}
}
