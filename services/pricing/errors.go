package pricing

import "fmt"

// PricingError is a typed pricing failure. Pricing errors are fatal for
// the appointment's billing attempt and are surfaced for human
// resolution, never silently defaulted.
type PricingError struct {
	Code    string
	Message string
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	// ErrInvalidInterval is returned for zero or negative duration intervals.
	ErrInvalidInterval = &PricingError{Code: "invalidInterval", Message: "interval must have a positive duration"}
	// ErrMissingRate is returned when the rate table has no entry for a
	// required qualifier.
	ErrMissingRate = &PricingError{Code: "missingRate", Message: "rate table has no entry for required qualifier"}
)
