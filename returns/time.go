package returns

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE MATH - Single source of truth for elapsed-time calculation
// =============================================================================
// The source system mixed 365 and 365.25 day bases freely. Here the basis is
// pinned once: elapsed whole years and partial-year proration both use 365.25
// days per year. The only place 365 appears is the display-only daily
// interest figure, which is specified on a 365-day year.

var (
	daysPerYear     = decimal.NewFromFloat(365.25) // elapsed-year and proration basis
	displayYearDays = decimal.NewFromInt(365)      // daily-rate display basis
	hundred         = decimal.NewFromInt(100)
)

// Date constructs a UTC calendar date (midnight).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates a time to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole calendar days from one date to another.
// Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// ElapsedYears converts the span between two dates into completed whole
// years plus the fractional progress of the year in flight.
//
//	completed = floor(days / 365.25)
//	progress  = (days mod 365.25) / 365.25, in [0, 1)
//
// An asOf before start clamps to (0, 0): a future-dated investment is a
// plausible data-entry state, not an error.
func ElapsedYears(start, asOf time.Time) (completed int, progress decimal.Decimal) {
	days := DaysBetween(start, asOf)
	if days <= 0 {
		return 0, decimal.Zero
	}
	elapsed := decimal.NewFromInt(int64(days))
	completed = int(elapsed.Div(daysPerYear).IntPart())
	remainder := elapsed.Sub(daysPerYear.Mul(decimal.NewFromInt(int64(completed))))
	return completed, remainder.Div(daysPerYear)
}
