package waitlist

import (
	"context"
	"testing"
	"time"

	"interlingo/models"
)

func TestRangeStop(t *testing.T) {
	cases := []struct {
		limit int
		want  int64
	}{
		// A non-positive limit scans the whole queue, never everything
		// but the last entry.
		{0, -1},
		{-5, -1},
		{1, 0},
		{100, 99},
	}
	for _, tc := range cases {
		if got := rangeStop(tc.limit); got != tc.want {
			t.Errorf("rangeStop(%d) = %d, want %d", tc.limit, got, tc.want)
		}
	}
}

func TestMemoryStoreDueUnlimited(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		entry := models.PaymentWaitListEntry{
			Appointment: models.Appointment{ID: id},
			EnqueuedAt:  now.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Enqueue(context.Background(), entry); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	entries, err := store.Due(context.Background(), 0)
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("an unbounded scan must return every entry, got %d", len(entries))
	}
	if entries[0].Appointment.ID != "a" || entries[2].Appointment.ID != "c" {
		t.Errorf("entries must come back oldest first: %v", entries)
	}
}

func TestMemoryStoreDueLimit(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		entry := models.PaymentWaitListEntry{
			Appointment: models.Appointment{ID: id},
			EnqueuedAt:  now.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Enqueue(context.Background(), entry); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	entries, err := store.Due(context.Background(), 2)
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected the 2 highest-priority entries, got %d", len(entries))
	}
	if entries[0].Appointment.ID != "a" || entries[1].Appointment.ID != "b" {
		t.Errorf("unexpected batch order: %v", entries)
	}
}
