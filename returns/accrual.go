/*
accrual.go - Accrued-to-date interest and bonus calculation

PURPOSE:
  Computes how much interest an investment has earned "on paper" as of an
  evaluation date, independent of whether any of it has been paid out.

ALGORITHM:
  1. Split elapsed time into completed whole years + partial-year progress
     (single 365.25-day basis, see time.go).
  2. Credit each completed year's full interest: principal * rate(y) / 100.
  3. Credit the year in flight linearly: full-year interest * progress.
  4. Credit milestone bonuses for every milestone year that has COMPLETED.
     Bonuses are all-or-nothing - never prorated.

CLAMPING:
  asOf before startDate is treated as zero elapsed time, not an error.
  Invalid principal (<= 0) IS an error - see errors.go.

SEE ALSO:
  - projection.go: the forward-looking (full-term) counterpart
  - disburse.go: which of these accrued years are due for payout
*/
package returns

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccrualResult is the accrued-to-date view of a single investment.
// All amounts are plain decimals; currency formatting is the caller's job.
type AccrualResult struct {
	Principal decimal.Decimal
	StartDate time.Time
	AsOf      time.Time

	// CompletedYears is floor-elapsed whole years, capped at the term.
	CompletedYears int

	// CurrentYear is the 1-based year in progress (capped at the term).
	CurrentYear int

	// CurrentRate is the interest percent applying to CurrentYear.
	CurrentRate decimal.Decimal

	// YearProgress is the fraction of CurrentYear elapsed, in [0, 1).
	// Zero once the investment has matured.
	YearProgress decimal.Decimal

	// InterestAccrued is full-year credits plus the prorated current year.
	InterestAccrued decimal.Decimal

	// BonusAccrued is the sum of milestone bonuses for completed years.
	BonusAccrued decimal.Decimal

	// DailyInterest is the display-only per-day interest at the current
	// rate, on a 365-day year.
	DailyInterest decimal.Decimal

	// Matured is true once the full term has completed.
	Matured bool
}

// TotalAccrued returns interest plus milestone bonuses.
func (r AccrualResult) TotalAccrued() decimal.Decimal {
	return r.InterestAccrued.Add(r.BonusAccrued)
}

// Accrue computes accrued interest and bonuses for a principal invested at
// start, evaluated at asOf. Referentially transparent: no clocks, no I/O.
func (p Policy) Accrue(principal decimal.Decimal, start, asOf time.Time) (AccrualResult, error) {
	if !principal.IsPositive() {
		return AccrualResult{}, fmt.Errorf("%w: got %s", ErrInvalidPrincipal, principal)
	}
	if start.IsZero() {
		return AccrualResult{}, ErrInvalidStartDate
	}

	completed, progress := ElapsedYears(start, asOf)
	matured := completed >= p.TermYears
	if matured {
		completed = p.TermYears
		progress = decimal.Zero
	}

	interest := decimal.Zero
	for year := 1; year <= completed; year++ {
		interest = interest.Add(p.YearDividend(principal, year))
	}

	currentYear := completed + 1
	if currentYear > p.TermYears {
		currentYear = p.TermYears
	}

	// Prorate the year in flight. Only applies while the term is running.
	if !matured && progress.IsPositive() {
		interest = interest.Add(p.YearDividend(principal, currentYear).Mul(progress))
	}

	bonus := decimal.Zero
	for year := range p.Bonuses {
		if year <= completed {
			bonus = bonus.Add(p.YearBonus(principal, year))
		}
	}

	currentRate := p.Rates[currentYear]

	return AccrualResult{
		Principal:       principal,
		StartDate:       DateOnly(start),
		AsOf:            DateOnly(asOf),
		CompletedYears:  completed,
		CurrentYear:     currentYear,
		CurrentRate:     currentRate,
		YearProgress:    progress,
		InterestAccrued: interest,
		BonusAccrued:    bonus,
		DailyInterest:   principal.Mul(currentRate).Div(hundred).Div(displayYearDays),
		Matured:         matured,
	}, nil
}
