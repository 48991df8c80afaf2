package models

import "time"

// PaymentWaitListEntry holds an appointment whose authorization failed,
// pending scheduled retry. The entry references the appointment, it does
// not own it.
type PaymentWaitListEntry struct {
	Appointment         Appointment `bson:"appointment" json:"appointment"`
	PaymentAttemptCount int         `bson:"payment_attempt_count" json:"paymentAttemptCount"`
	// IsShortTimeSlot is computed once at enqueue time from how soon the
	// session starts; it never changes for the entry's lifetime.
	IsShortTimeSlot bool      `bson:"is_short_time_slot" json:"isShortTimeSlot"`
	EnqueuedAt      time.Time `bson:"enqueued_at" json:"enqueuedAt"`
}
