package models

import (
	"errors"
	"time"
)

// TimeInterval is the billed time span of an interpretation session.
type TimeInterval struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// Validate ensures the interval has a positive duration.
func (ti TimeInterval) Validate() error {
	if !ti.End.After(ti.Start) {
		return errors.New("interval end must be after start")
	}
	return nil
}

// Duration returns the raw span of the interval.
func (ti TimeInterval) Duration() time.Duration {
	return ti.End.Sub(ti.Start)
}

// Minutes returns the interval length in whole minutes.
func (ti TimeInterval) Minutes() int {
	return int(ti.Duration().Minutes())
}

// Appointment is the read-only view of a booked interpretation session
// consumed by the billing engine. Scheduling owns the record; billing only
// reads it.
type Appointment struct {
	ID                   string    `bson:"id" json:"id"`
	StartTime            time.Time `bson:"start_time" json:"startTime"`
	EndTime              time.Time `bson:"end_time" json:"endTime"`
	ClientID             string    `bson:"client_id" json:"clientId"`
	InterpreterID        string    `bson:"interpreter_id" json:"interpreterId"`
	IsCorporateBooking   bool      `bson:"is_corporate_booking" json:"isCorporateBooking"`
	ClientCompanyID      string    `bson:"client_company_id,omitempty" json:"clientCompanyId,omitempty"`
	InterpreterCompanyID string    `bson:"interpreter_company_id,omitempty" json:"interpreterCompanyId,omitempty"`
	ClientCountry        string    `bson:"client_country" json:"clientCountry"`
	InterpreterCountry   string    `bson:"interpreter_country" json:"interpreterCountry"`
	PaymentMethod        string    `bson:"payment_method" json:"paymentMethod"`
	PayoutDestination    string    `bson:"payout_destination" json:"payoutDestination"`
	Currency             string    `bson:"currency" json:"currency"`
}

// Interval returns the appointment's billed time span.
func (a Appointment) Interval() TimeInterval {
	return TimeInterval{Start: a.StartTime, End: a.EndTime}
}
