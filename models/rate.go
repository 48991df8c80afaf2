package models

import "fmt"

// RateQualifier selects which rate table applies to a priced sub-interval.
type RateQualifier string

const (
	QualifierStandardHours RateQualifier = "STANDARD_HOURS"
	QualifierAfterHours    RateQualifier = "AFTER_HOURS"
	QualifierWorkingDay    RateQualifier = "WORKING_DAY"
)

// ParseRateQualifier converts a raw tag into a RateQualifier.
func ParseRateQualifier(raw string) (RateQualifier, error) {
	switch RateQualifier(raw) {
	case QualifierStandardHours:
		return QualifierStandardHours, nil
	case QualifierAfterHours:
		return QualifierAfterHours, nil
	case QualifierWorkingDay:
		return QualifierWorkingDay, nil
	default:
		return "", fmt.Errorf("unknown rate qualifier %q", raw)
	}
}

// TimeCalculationMode describes how an interval was priced.
type TimeCalculationMode string

const (
	ModeNormal TimeCalculationMode = "NORMAL"
	ModePeak   TimeCalculationMode = "PEAK"
	// ModeCrossBoundary marks an interval that spans a qualifier boundary
	// and was split before pricing.
	ModeCrossBoundary TimeCalculationMode = "CROSS_BOUNDARY"
)

// PriceBlock is one contiguous priced sub-segment of a billed session.
type PriceBlock struct {
	Qualifier       RateQualifier `bson:"qualifier" json:"qualifier"`
	Price           float64       `bson:"price" json:"price"`
	DurationMinutes int           `bson:"duration_minutes" json:"durationMinutes"`
}

// PriceResult is the itemized outcome of pricing one session interval.
// The block breakdown is returned so clients and interpreters can see the
// rate justification per segment.
type PriceResult struct {
	Price                                float64             `bson:"price" json:"price"`
	Currency                             string              `bson:"currency" json:"currency"`
	Mode                                 TimeCalculationMode `bson:"mode" json:"mode"`
	PriceByBlocks                        []PriceBlock        `bson:"price_by_blocks" json:"priceByBlocks"`
	AddedDurationToLastBlockWhenRounding int                 `bson:"added_duration_to_last_block_when_rounding" json:"addedDurationToLastBlockWhenRounding"`
}

// BilledMinutes returns the total billed duration across blocks.
func (pr PriceResult) BilledMinutes() int {
	total := 0
	for _, b := range pr.PriceByBlocks {
		total += b.DurationMinutes
	}
	return total
}

// RateSchedule maps qualifiers to per-minute rates and carries the
// boundary definitions needed to detect cross-boundary intervals.
type RateSchedule struct {
	// Rates holds the per-minute monetary rate for each qualifier. A
	// missing entry is an error at pricing time, never a silent default.
	Rates    map[RateQualifier]float64 `bson:"rates" json:"rates"`
	Currency string                    `bson:"currency" json:"currency"`

	// AfterHoursStartMinute is the minute-of-day after which the
	// after-hours rate applies (e.g. 1320 for 22:00).
	AfterHoursStartMinute int `bson:"after_hours_start_minute" json:"afterHoursStartMinute"`
	// WorkingDayStartMinute is the minute-of-day at which standard hours
	// begin (e.g. 480 for 08:00).
	WorkingDayStartMinute int `bson:"working_day_start_minute" json:"workingDayStartMinute"`

	// BillingIncrementMinutes is the rounding increment for billed
	// duration. Totals are rounded up to the nearest multiple.
	BillingIncrementMinutes int `bson:"billing_increment_minutes" json:"billingIncrementMinutes"`

	// NextDayQualifier fixes which qualifier applies to the portion of a
	// session that crosses midnight, until standard hours resume.
	NextDayQualifier RateQualifier `bson:"next_day_qualifier" json:"nextDayQualifier"`
}
