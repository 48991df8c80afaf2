package pricing

import (
	"fmt"

	"interlingo/config"
	"interlingo/models"
)

// ScheduleSource supplies the rate schedule used to price a session.
type ScheduleSource interface {
	ScheduleFor(currency string) (models.RateSchedule, error)
}

// ConfigScheduleSource builds the rate schedule from application config.
type ConfigScheduleSource struct{}

func (ConfigScheduleSource) ScheduleFor(currency string) (models.RateSchedule, error) {
	cfg := config.AppConfig
	nextDay, err := models.ParseRateQualifier(cfg.NextDayQualifier)
	if err != nil {
		return models.RateSchedule{}, fmt.Errorf("invalid next-day qualifier in config: %w", err)
	}
	if currency == "" {
		currency = cfg.Currency
	}
	return models.RateSchedule{
		Rates: map[models.RateQualifier]float64{
			models.QualifierStandardHours: cfg.RateStandardHours,
			models.QualifierAfterHours:    cfg.RateAfterHours,
			models.QualifierWorkingDay:    cfg.RateWorkingDay,
		},
		Currency:                currency,
		AfterHoursStartMinute:   cfg.AfterHoursStartMinute,
		WorkingDayStartMinute:   cfg.WorkingDayStartMinute,
		BillingIncrementMinutes: cfg.BillingIncrementMinutes,
		NextDayQualifier:        nextDay,
	}, nil
}
