package pricing

import (
	"fmt"
	"time"

	"interlingo/models"
)

// ComputePrice converts a session's time span into a monetary amount
// using the qualifier boundaries and rate table of the given schedule.
// It is pure and deterministic: no side effects, no I/O.
//
// The interval is split at every qualifier boundary it crosses
// (working-day start, after-hours cutoff, midnight), each sub-interval is
// priced at its own qualifier's rate, and the total duration is rounded
// up to the schedule's billing increment. The rounding remainder is never
// discarded and never creates a new block: it is folded into the last
// block at that block's own rate.
func ComputePrice(interval models.TimeInterval, schedule models.RateSchedule) (*models.PriceResult, error) {
	if err := interval.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, err)
	}
	if interval.Duration() < time.Minute {
		return nil, fmt.Errorf("%w: interval shorter than one minute", ErrInvalidInterval)
	}

	var blocks []models.PriceBlock
	cur := interval.Start
	startOffset := 0
	for cur.Before(interval.End) {
		qualifier := qualifierAt(cur, interval.Start, schedule)
		boundary := nextBoundary(cur, schedule)
		if boundary.After(interval.End) {
			boundary = interval.End
		}
		rate, ok := schedule.Rates[qualifier]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRate, qualifier)
		}
		// Block minutes come from cumulative offsets against the interval
		// start, so a sub-minute boundary fraction carries into the next
		// block instead of being truncated per block. Block durations
		// always sum to the interval's whole-minute duration.
		endOffset := int(boundary.Sub(interval.Start).Minutes())
		if minutes := endOffset - startOffset; minutes > 0 {
			blocks = append(blocks, models.PriceBlock{
				Qualifier:       qualifier,
				Price:           float64(minutes) * rate,
				DurationMinutes: minutes,
			})
		}
		startOffset = endOffset
		cur = boundary
	}

	mode := models.ModeNormal
	if len(blocks) > 1 {
		mode = models.ModeCrossBoundary
	}

	added, err := roundUpLastBlock(blocks, schedule)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, b := range blocks {
		total += b.Price
	}

	return &models.PriceResult{
		Price:                                total,
		Currency:                             schedule.Currency,
		Mode:                                 mode,
		PriceByBlocks:                        blocks,
		AddedDurationToLastBlockWhenRounding: added,
	}, nil
}

// roundUpLastBlock rounds the total billed duration up to the billing
// increment by extending the last block only. The extension is priced at
// the last block's own qualifier rate, keeping the block count invariant.
func roundUpLastBlock(blocks []models.PriceBlock, schedule models.RateSchedule) (int, error) {
	increment := schedule.BillingIncrementMinutes
	if increment <= 1 || len(blocks) == 0 {
		return 0, nil
	}
	total := 0
	for _, b := range blocks {
		total += b.DurationMinutes
	}
	remainder := total % increment
	if remainder == 0 {
		return 0, nil
	}
	added := increment - remainder
	last := &blocks[len(blocks)-1]
	rate, ok := schedule.Rates[last.Qualifier]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingRate, last.Qualifier)
	}
	last.DurationMinutes += added
	last.Price += float64(added) * rate
	return added, nil
}

// qualifierAt resolves the rate qualifier in effect at instant t. For
// portions of a session past midnight the schedule's next-day qualifier
// applies until standard hours resume.
func qualifierAt(t, intervalStart time.Time, schedule models.RateSchedule) models.RateQualifier {
	minute := t.Hour()*60 + t.Minute()
	nextDay := dateOf(t) != dateOf(intervalStart)
	if nextDay && minute < schedule.WorkingDayStartMinute {
		return schedule.NextDayQualifier
	}
	if minute >= schedule.AfterHoursStartMinute || minute < schedule.WorkingDayStartMinute {
		return models.QualifierAfterHours
	}
	return models.QualifierStandardHours
}

// nextBoundary returns the earliest qualifier boundary strictly after t:
// the working-day start, the after-hours cutoff, or midnight.
func nextBoundary(t time.Time, schedule models.RateSchedule) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	candidates := []time.Time{
		midnight.Add(time.Duration(schedule.WorkingDayStartMinute) * time.Minute),
		midnight.Add(time.Duration(schedule.AfterHoursStartMinute) * time.Minute),
		midnight.AddDate(0, 0, 1),
	}
	boundary := midnight.AddDate(0, 0, 1)
	for _, c := range candidates {
		if c.After(t) && !c.After(boundary) {
			boundary = c
		}
	}
	return boundary
}

func dateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
