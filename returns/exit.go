/*
exit.go - Early-exit eligibility gate

PURPOSE:
  Gates the "early exit value" an investor may redeem before maturity.
  Eligible once the lock-in period (default 3 completed years, floor-year
  semantics) has elapsed. The exit value is principal plus interest accrued
  to date - milestone bonuses are NOT included in an early exit.

  When ineligible the quote carries Available=false; callers must render
  "not available", never coerce the value to zero.
*/
package returns

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ExitQuote is the result of an early-exit evaluation.
type ExitQuote struct {
	// Available is false while the investment is still locked in.
	// Value is meaningless (zero) when Available is false.
	Available bool

	// Value is principal + interest accrued to date. No bonuses.
	Value decimal.Decimal

	// CompletedYears at the evaluation date.
	CompletedYears int

	// LockInYears of the governing policy, for display.
	LockInYears int

	// EligibleOn is the first date the lock-in gate opens. Populated
	// whether or not the quote is available.
	EligibleOn time.Time
}

// EarlyExit evaluates the lock-in gate for an investment as of a date.
func (p Policy) EarlyExit(principal decimal.Decimal, start, asOf time.Time) (ExitQuote, error) {
	accrual, err := p.Accrue(principal, start, asOf)
	if err != nil {
		return ExitQuote{}, err
	}

	// First day on which floor(days/365.25) reaches the lock-in.
	eligibleDays := int(math.Ceil(float64(p.LockInYears) * 365.25))
	quote := ExitQuote{
		CompletedYears: accrual.CompletedYears,
		LockInYears:    p.LockInYears,
		EligibleOn:     DateOnly(start).AddDate(0, 0, eligibleDays),
	}

	if accrual.CompletedYears < p.LockInYears {
		return quote, nil
	}

	quote.Available = true
	quote.Value = principal.Add(accrual.InterestAccrued)
	return quote, nil
}
