package pricing

import (
	"errors"
	"testing"
	"time"

	"interlingo/models"
)

func testSchedule() models.RateSchedule {
	return models.RateSchedule{
		Rates: map[models.RateQualifier]float64{
			models.QualifierStandardHours: 1.0,
			models.QualifierAfterHours:    2.0,
			models.QualifierWorkingDay:    1.5,
		},
		Currency:                "EUR",
		AfterHoursStartMinute:   22 * 60,
		WorkingDayStartMinute:   8 * 60,
		BillingIncrementMinutes: 15,
		NextDayQualifier:        models.QualifierWorkingDay,
	}
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestComputePriceSingleBlock(t *testing.T) {
	result, err := ComputePrice(models.TimeInterval{Start: at(10, 0), End: at(11, 0)}, testSchedule())
	if err != nil {
		t.Fatalf("ComputePrice failed: %v", err)
	}
	if len(result.PriceByBlocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(result.PriceByBlocks))
	}
	if result.Mode != models.ModeNormal {
		t.Errorf("expected mode NORMAL, got %s", result.Mode)
	}
	if result.PriceByBlocks[0].Qualifier != models.QualifierStandardHours {
		t.Errorf("expected STANDARD_HOURS, got %s", result.PriceByBlocks[0].Qualifier)
	}
	if result.Price != 60.0 {
		t.Errorf("expected price 60.0, got %v", result.Price)
	}
	if result.AddedDurationToLastBlockWhenRounding != 0 {
		t.Errorf("expected no rounding adjustment, got %d", result.AddedDurationToLastBlockWhenRounding)
	}
}

func TestComputePriceCrossesAfterHoursCutoff(t *testing.T) {
	result, err := ComputePrice(models.TimeInterval{Start: at(21, 0), End: at(23, 0)}, testSchedule())
	if err != nil {
		t.Fatalf("ComputePrice failed: %v", err)
	}
	if result.Mode != models.ModeCrossBoundary {
		t.Errorf("expected CROSS_BOUNDARY, got %s", result.Mode)
	}
	if len(result.PriceByBlocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.PriceByBlocks))
	}
	first, second := result.PriceByBlocks[0], result.PriceByBlocks[1]
	if first.Qualifier != models.QualifierStandardHours || first.DurationMinutes != 60 {
		t.Errorf("unexpected first block: %+v", first)
	}
	if second.Qualifier != models.QualifierAfterHours || second.DurationMinutes != 60 {
		t.Errorf("unexpected second block: %+v", second)
	}
	if result.Price != 60.0*1.0+60.0*2.0 {
		t.Errorf("expected price 180.0, got %v", result.Price)
	}
}

func TestComputePriceCrossesMidnight(t *testing.T) {
	// 23:00 to 01:00 stays two blocks even though both sides are priced
	// off-hours: the midnight split switches the post-midnight portion to
	// the next-day qualifier.
	result, err := ComputePrice(models.TimeInterval{Start: at(23, 0), End: at(23, 0).Add(2 * time.Hour)}, testSchedule())
	if err != nil {
		t.Fatalf("ComputePrice failed: %v", err)
	}
	if result.Mode != models.ModeCrossBoundary {
		t.Errorf("expected CROSS_BOUNDARY, got %s", result.Mode)
	}
	if len(result.PriceByBlocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.PriceByBlocks))
	}
	if result.PriceByBlocks[0].Qualifier != models.QualifierAfterHours {
		t.Errorf("expected AFTER_HOURS before midnight, got %s", result.PriceByBlocks[0].Qualifier)
	}
	if result.PriceByBlocks[1].Qualifier != models.QualifierWorkingDay {
		t.Errorf("expected WORKING_DAY after midnight, got %s", result.PriceByBlocks[1].Qualifier)
	}
	if result.BilledMinutes() != 120 {
		t.Errorf("expected 120 billed minutes, got %d", result.BilledMinutes())
	}
}

func TestComputePriceRoundsUpLastBlock(t *testing.T) {
	// 50 minutes rounds up to 60; the 10-minute remainder extends the only
	// block at its own rate without creating a new one.
	result, err := ComputePrice(models.TimeInterval{Start: at(10, 0), End: at(10, 50)}, testSchedule())
	if err != nil {
		t.Fatalf("ComputePrice failed: %v", err)
	}
	if len(result.PriceByBlocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(result.PriceByBlocks))
	}
	if result.AddedDurationToLastBlockWhenRounding != 10 {
		t.Errorf("expected 10 added minutes, got %d", result.AddedDurationToLastBlockWhenRounding)
	}
	if result.BilledMinutes() != 60 {
		t.Errorf("expected 60 billed minutes, got %d", result.BilledMinutes())
	}
	if result.Price != 60.0 {
		t.Errorf("expected price 60.0, got %v", result.Price)
	}
}

func TestComputePriceRoundingUsesLastBlockRate(t *testing.T) {
	// 21:30 to 22:10: 30 std + 10 after-hours, rounded to 45 total. The 5
	// extra minutes are billed at the after-hours rate of the last block.
	result, err := ComputePrice(models.TimeInterval{Start: at(21, 30), End: at(22, 10)}, testSchedule())
	if err != nil {
		t.Fatalf("ComputePrice failed: %v", err)
	}
	if len(result.PriceByBlocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.PriceByBlocks))
	}
	if result.AddedDurationToLastBlockWhenRounding != 5 {
		t.Errorf("expected 5 added minutes, got %d", result.AddedDurationToLastBlockWhenRounding)
	}
	last := result.PriceByBlocks[1]
	if last.DurationMinutes != 15 {
		t.Errorf("expected last block extended to 15 minutes, got %d", last.DurationMinutes)
	}
	if result.Price != 30.0*1.0+15.0*2.0 {
		t.Errorf("expected price 60.0, got %v", result.Price)
	}
}

func TestComputePriceSubMinuteEndpointsLoseNoDuration(t *testing.T) {
	// 23:00:30 to 01:00:30 crosses midnight with a 30-second offset on
	// both endpoints. Per-block truncation would bill 119 of the 120 raw
	// minutes; the cumulative split must keep all 120.
	start := time.Date(2026, 3, 10, 23, 0, 30, 0, time.UTC)
	result, err := ComputePrice(models.TimeInterval{Start: start, End: start.Add(2 * time.Hour)}, testSchedule())
	if err != nil {
		t.Fatalf("ComputePrice failed: %v", err)
	}
	if len(result.PriceByBlocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.PriceByBlocks))
	}
	if result.AddedDurationToLastBlockWhenRounding != 0 {
		t.Errorf("120 minutes needs no rounding, got %d added", result.AddedDurationToLastBlockWhenRounding)
	}
	if result.BilledMinutes() != 120 {
		t.Errorf("block durations must sum to the raw 120 minutes, got %d", result.BilledMinutes())
	}
	if result.PriceByBlocks[0].DurationMinutes != 59 || result.PriceByBlocks[1].DurationMinutes != 61 {
		t.Errorf("boundary fraction must carry into the next block, got %d/%d",
			result.PriceByBlocks[0].DurationMinutes, result.PriceByBlocks[1].DurationMinutes)
	}
}

func TestComputePriceInvalidIntervals(t *testing.T) {
	schedule := testSchedule()
	cases := []struct {
		name     string
		interval models.TimeInterval
	}{
		{"end before start", models.TimeInterval{Start: at(11, 0), End: at(10, 0)}},
		{"zero length", models.TimeInterval{Start: at(10, 0), End: at(10, 0)}},
		{"sub-minute", models.TimeInterval{Start: at(10, 0), End: at(10, 0).Add(30 * time.Second)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ComputePrice(tc.interval, schedule); !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}
}

func TestComputePriceMissingRate(t *testing.T) {
	schedule := testSchedule()
	delete(schedule.Rates, models.QualifierAfterHours)
	_, err := ComputePrice(models.TimeInterval{Start: at(21, 0), End: at(23, 0)}, schedule)
	if !errors.Is(err, ErrMissingRate) {
		t.Fatalf("expected ErrMissingRate, got %v", err)
	}
}

func TestComputePriceBilledDurationIsIncrementMultiple(t *testing.T) {
	schedule := testSchedule()
	durations := []time.Duration{17 * time.Minute, 44 * time.Minute, 2*time.Hour + 3*time.Minute}
	for _, d := range durations {
		result, err := ComputePrice(models.TimeInterval{Start: at(9, 7), End: at(9, 7).Add(d)}, schedule)
		if err != nil {
			t.Fatalf("ComputePrice(%v) failed: %v", d, err)
		}
		if result.BilledMinutes()%schedule.BillingIncrementMinutes != 0 {
			t.Errorf("billed minutes %d not a multiple of %d for duration %v",
				result.BilledMinutes(), schedule.BillingIncrementMinutes, d)
		}
		if result.AddedDurationToLastBlockWhenRounding < 0 {
			t.Errorf("negative rounding adjustment for duration %v", d)
		}
	}
}
