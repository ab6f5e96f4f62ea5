/*
Package returns implements the debenture returns calculation engine.

PURPOSE:
  This package contains the pure arithmetic core of the investor platform:
  interest accrual over a fixed 10-year rate schedule, milestone bonus
  crediting, disbursement date scheduling, forward projections, and the
  early-exit lock-in gate. Everything here is a deterministic function of
  (policy, principal, start date, evaluation date) - no I/O, no clocks.

KEY CONCEPTS IN THIS FILE (policy.go):
  - RateSchedule: year number (1..term) -> annual interest percent
  - MilestoneBonusPolicy: year number -> one-time bonus percent of principal
  - Policy: the complete ruleset an investment is evaluated under

DESIGN PRINCIPLES:
  1. Precision: all money math uses decimal.Decimal, never float64
  2. Purity: callers pass the evaluation date; the engine never calls time.Now
  3. Explicit policy: the rate table, bonus magnitudes, lock-in and date
     conventions are configuration, not scattered constants

SEE ALSO:
  - accrual.go: accrued-to-date calculation
  - disburse.go: disbursement date scheduling
  - projection.go: full-term forward projection
*/
package returns

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE SCHEDULE - Fixed per-year interest percentages
// =============================================================================

// RateSchedule maps a year number (1-based) to its annual interest percent.
// A valid schedule covers years 1..term contiguously with non-negative rates.
type RateSchedule map[int]decimal.Decimal

// MilestoneBonusPolicy maps a year number to a one-time bonus, expressed as
// a percent of principal, credited when that year completes in full.
type MilestoneBonusPolicy map[int]decimal.Decimal

// =============================================================================
// POLICY - Rules governing an investment's returns
// =============================================================================

// Policy defines how returns are computed for every investment on the
// platform. There is a single platform-wide policy; it is loaded from
// configuration at startup (see the config package) and treated as
// immutable afterwards.
type Policy struct {
	// Rates is the per-year interest schedule.
	Rates RateSchedule

	// Bonuses holds the milestone bonus years and magnitudes.
	// Bonus years must fall within 1..TermYears.
	Bonuses MilestoneBonusPolicy

	// TermYears is the total investment term. Interest stops accruing and
	// principal is returned once this many years complete.
	TermYears int

	// LockInYears is the minimum number of completed years before an
	// early exit is permitted.
	LockInYears int

	// Scheduled determines the calendar date an accrued year's payout is
	// scheduled for (shown to investors, used by NextPending).
	Scheduled DateStrategy

	// Booking determines the value date stamped on ledger transactions
	// when an accrued year is materialized by the reconciler. The source
	// system used the exact anniversary here, distinct from Scheduled.
	Booking DateStrategy
}

// DefaultPolicy returns the production policy: zero interest in the first
// and final years, stepping up to 18% in between, with 5%/10% milestone
// bonuses at years 5 and 10, a 3-year lock-in over a 10-year term.
func DefaultPolicy() Policy {
	return Policy{
		Rates: RateSchedule{
			1: decimal.Zero,
			2: decimal.NewFromInt(6),
			3: decimal.NewFromInt(9),
			4: decimal.NewFromInt(12),
			5: decimal.NewFromInt(18),
			6: decimal.NewFromInt(18),
			7: decimal.NewFromInt(18),
			8: decimal.NewFromInt(18),
			9: decimal.NewFromInt(18),
			10: decimal.Zero,
		},
		Bonuses: MilestoneBonusPolicy{
			5:  decimal.NewFromInt(5),
			10: decimal.NewFromInt(10),
		},
		TermYears:   10,
		LockInYears: 3,
		Scheduled:   StrategyMonthFollowing24,
		Booking:     StrategyAnniversary,
	}
}

// Rate returns the interest percent for a year of the term.
// Years outside 1..TermYears are an error, never a silent zero.
func (p Policy) Rate(year int) (decimal.Decimal, error) {
	rate, ok := p.Rates[year]
	if !ok || year < 1 || year > p.TermYears {
		return decimal.Decimal{}, fmt.Errorf("%w: year %d (term is %d years)", ErrYearOutOfRange, year, p.TermYears)
	}
	return rate, nil
}

// BonusPercent returns the milestone bonus percent for a year, or zero for
// non-milestone years.
func (p Policy) BonusPercent(year int) decimal.Decimal {
	if pct, ok := p.Bonuses[year]; ok {
		return pct
	}
	return decimal.Zero
}

// IsMilestoneYear reports whether completing the given year credits a bonus.
func (p Policy) IsMilestoneYear(year int) bool {
	return p.BonusPercent(year).IsPositive()
}

// Validate checks the structural invariants of the policy:
// a contiguous rate schedule over 1..TermYears with non-negative rates,
// bonus years inside the term, and a lock-in no longer than the term.
func (p Policy) Validate() error {
	if p.TermYears < 1 {
		return fmt.Errorf("%w: term must be at least 1 year, got %d", ErrInvalidPolicy, p.TermYears)
	}
	if len(p.Rates) != p.TermYears {
		return fmt.Errorf("%w: rate schedule has %d entries, term is %d years", ErrInvalidPolicy, len(p.Rates), p.TermYears)
	}
	for year := 1; year <= p.TermYears; year++ {
		rate, ok := p.Rates[year]
		if !ok {
			return fmt.Errorf("%w: rate schedule missing year %d", ErrInvalidPolicy, year)
		}
		if rate.IsNegative() {
			return fmt.Errorf("%w: rate for year %d is negative (%s)", ErrInvalidPolicy, year, rate)
		}
	}
	for year, pct := range p.Bonuses {
		if year < 1 || year > p.TermYears {
			return fmt.Errorf("%w: bonus year %d outside term 1..%d", ErrInvalidPolicy, year, p.TermYears)
		}
		if pct.IsNegative() {
			return fmt.Errorf("%w: bonus for year %d is negative (%s)", ErrInvalidPolicy, year, pct)
		}
	}
	if p.LockInYears < 0 || p.LockInYears > p.TermYears {
		return fmt.Errorf("%w: lock-in of %d years outside term of %d", ErrInvalidPolicy, p.LockInYears, p.TermYears)
	}
	if !p.Scheduled.valid() {
		return fmt.Errorf("%w: unknown scheduled date strategy %q", ErrInvalidPolicy, p.Scheduled)
	}
	if !p.Booking.valid() {
		return fmt.Errorf("%w: unknown booking date strategy %q", ErrInvalidPolicy, p.Booking)
	}
	return nil
}

// YearDividend is the full (non-prorated) interest for one completed year.
func (p Policy) YearDividend(principal decimal.Decimal, year int) decimal.Decimal {
	rate, ok := p.Rates[year]
	if !ok {
		return decimal.Zero
	}
	return principal.Mul(rate).Div(hundred)
}

// YearBonus is the milestone bonus amount for a year (zero if none).
func (p Policy) YearBonus(principal decimal.Decimal, year int) decimal.Decimal {
	return principal.Mul(p.BonusPercent(year)).Div(hundred)
}

// =============================================================================
// INVESTMENT - The record the engine is evaluated against
// =============================================================================

// Investment is the core record: a principal amount locked in from a start
// date. Immutable once created; deleted only when its investor is deleted.
type Investment struct {
	ID         string
	InvestorID string
	Principal  decimal.Decimal
	StartDate  time.Time
	CreatedAt  time.Time
}
