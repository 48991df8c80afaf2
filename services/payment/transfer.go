package payment

import (
	"math"

	"interlingo/models"
)

// BuildCorporateCaptureContext derives the transfer-routing facts for one
// payment attempt from the appointment's corporate metadata.
func BuildCorporateCaptureContext(appt models.Appointment) models.CorporateCaptureContext {
	sameCompany := appt.ClientCompanyID != "" &&
		appt.ClientCompanyID == appt.InterpreterCompanyID
	return models.CorporateCaptureContext{
		IsClientCorporate:      appt.ClientCompanyID != "",
		IsInterpreterCorporate: appt.InterpreterCompanyID != "",
		ClientCountry:          appt.ClientCountry,
		InterpreterCountry:     appt.InterpreterCountry,
		IsSameCorporateCompany: sameCompany,
	}
}

// amountWithinTolerance checks a transfer amount against the captured
// payout. First attempts require an exact match; second attempts relax
// the match by the fee tolerance, since provider fees can differ between
// the first and the retried attempt.
func amountWithinTolerance(requested, captured, feeTolerance float64, isSecondAttempt bool) bool {
	diff := math.Abs(requested - captured)
	if !isSecondAttempt {
		return diff < 0.01
	}
	return diff <= captured*feeTolerance
}

// payoutAmount returns the captured interpreter payout of the payment.
func payoutAmount(p *models.Payment) float64 {
	for _, item := range p.Items {
		if item.Kind == models.ItemInterpreterPayout {
			return item.CapturedAmount
		}
	}
	// Single-item payments pay the whole captured amount out.
	total := 0.0
	for _, item := range p.Items {
		total += item.CapturedAmount
	}
	return total
}
