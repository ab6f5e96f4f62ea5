/*
disburse.go - Disbursement date scheduling and due-year resolution

PURPOSE:
  Maps an investment's anniversaries onto concrete calendar payout dates
  and decides which years are due, disbursed, or still pending. The date
  rules are named strategies because the source system carried TWO
  conventions side by side:

    month_following_24: anniversary -> 1st of the following month -> day 24.
        Used for the dates shown to investors and for NextPending.
        Example: start 2023-03-05, year 1 -> anniversary 2024-03-05 ->
        April 2024 -> 2024-04-24.

    anniversary: the exact calendar anniversary (start + year years).
        Used as the value date when the reconciler books ledger rows.

  The "advance one month" step of month_following_24 always applies, even
  when the anniversary's own day-of-month is 24 or earlier. Day 24 exists
  in every month, so no end-of-month clamping is needed.

NEXT-PENDING SEMANTICS:
  NextPending reports the next UPCOMING payout: the first year whose
  scheduled date is strictly after today and which has no ledger record
  yet. A year that is overdue but never materialized is skipped, not
  surfaced. That mirrors the source system; the reconciler is what sweeps
  up overdue years.

SEE ALSO:
  - accrual.go: per-year amounts
  - ledger/reconcile.go: materializes due years into transactions
*/
package returns

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE STRATEGY - Named disbursement date conventions
// =============================================================================

// DateStrategy names a rule for turning (start date, year number) into a
// calendar date.
type DateStrategy string

const (
	// StrategyMonthFollowing24 schedules the 24th of the month following
	// the anniversary.
	StrategyMonthFollowing24 DateStrategy = "month_following_24"

	// StrategyAnniversary uses the exact anniversary date.
	StrategyAnniversary DateStrategy = "anniversary"
)

// disbursementDay is the fixed day-of-month for month_following_24.
// Valid in every month, so the construction never needs clamping.
const disbursementDay = 24

func (s DateStrategy) valid() bool {
	return s == StrategyMonthFollowing24 || s == StrategyAnniversary
}

// DateForYear maps an investment start date and a year number onto the
// calendar date that year's payout carries under this strategy.
func (s DateStrategy) DateForYear(start time.Time, year int) time.Time {
	anniversary := DateOnly(start).AddDate(year, 0, 0)
	if s == StrategyAnniversary {
		return anniversary
	}
	// Advance to the 1st of the following month, then fix the day at 24.
	// This happens unconditionally, even when the anniversary day is <= 24.
	firstOfNext := Date(anniversary.Year(), anniversary.Month(), 1).AddDate(0, 1, 0)
	return Date(firstOfNext.Year(), firstOfNext.Month(), disbursementDay)
}

// IsDue reports whether a scheduled date has arrived.
func IsDue(scheduled, today time.Time) bool {
	return !DateOnly(scheduled).After(DateOnly(today))
}

// =============================================================================
// EXISTING-TRANSACTION SET - What the ledger already holds
// =============================================================================

// DisbursementKind distinguishes the payout categories a ledger row can
// materialize. The ledger package's transaction types share these values.
type DisbursementKind string

const (
	KindDividend DisbursementKind = "dividend_disbursement"
	KindBonus    DisbursementKind = "bonus_disbursement"
	KindMaturity DisbursementKind = "maturity_disbursement"
)

// ExistingKey identifies one materialized payout: a (year, kind) pair
// within a single investment.
type ExistingKey struct {
	Year int
	Kind DisbursementKind
}

// ExistingSet is the engine's view of which payouts the ledger already
// holds for an investment. Built once per investment to avoid repeated
// store lookups inside the year loop.
type ExistingSet map[ExistingKey]bool

// Has reports whether a payout of the given kind exists for the year.
func (s ExistingSet) Has(year int, kind DisbursementKind) bool {
	return s[ExistingKey{Year: year, Kind: kind}]
}

// HasAny reports whether any payout kind exists for the year.
func (s ExistingSet) HasAny(year int) bool {
	return s.Has(year, KindDividend) || s.Has(year, KindBonus) || s.Has(year, KindMaturity)
}

// =============================================================================
// NEXT PENDING DISBURSEMENT
// =============================================================================

// PendingDisbursement describes the next upcoming payout for an investment.
type PendingDisbursement struct {
	Year   int
	Amount decimal.Decimal // full-year interest + milestone bonus, if any
	Date   time.Time       // scheduled under the Scheduled strategy
}

// NextPending scans years 1..term in order and returns the first year whose
// scheduled date lies strictly in the future AND which has no existing
// ledger record. Years whose total payout is zero (year 1 under the default
// schedule) are never surfaced. Returns nil when nothing is upcoming.
func (p Policy) NextPending(principal decimal.Decimal, start, today time.Time, existing ExistingSet) *PendingDisbursement {
	for year := 1; year <= p.TermYears; year++ {
		amount := p.YearDividend(principal, year).Add(p.YearBonus(principal, year))
		if !amount.IsPositive() {
			continue
		}
		date := p.Scheduled.DateForYear(start, year)
		if !date.After(DateOnly(today)) {
			// Overdue years are skipped here, not surfaced.
			continue
		}
		if existing.HasAny(year) {
			continue
		}
		return &PendingDisbursement{Year: year, Amount: amount, Date: date}
	}
	return nil
}

// =============================================================================
// SCHEDULE TABLE - Derived per-year status view
// =============================================================================

// EventStatus classifies a scheduled year relative to today and the ledger.
type EventStatus string

const (
	// StatusDisbursed: a ledger transaction exists for the year.
	StatusDisbursed EventStatus = "disbursed"
	// StatusAccrued: the year has completed but is not yet materialized.
	StatusAccrued EventStatus = "accrued"
	// StatusPending: the year has not completed yet.
	StatusPending EventStatus = "pending"
)

// DisbursementEvent is one row of the schedule table: a year of the term
// with its scheduled date, amounts, and current status. Derived, never
// stored - the ledger holds the materialized form.
type DisbursementEvent struct {
	Year          int
	ScheduledDate time.Time
	Interest      decimal.Decimal
	Bonus         decimal.Decimal
	Status        EventStatus
}

// Schedule produces the full per-year disbursement table for an investment
// as of a given date, annotated against the existing ledger records.
func (p Policy) Schedule(principal decimal.Decimal, start, asOf time.Time, existing ExistingSet) ([]DisbursementEvent, error) {
	if !principal.IsPositive() {
		return nil, ErrInvalidPrincipal
	}
	completed, _ := ElapsedYears(start, asOf)

	events := make([]DisbursementEvent, 0, p.TermYears)
	for year := 1; year <= p.TermYears; year++ {
		status := StatusPending
		switch {
		case existing.HasAny(year):
			status = StatusDisbursed
		case year <= completed:
			status = StatusAccrued
		}
		events = append(events, DisbursementEvent{
			Year:          year,
			ScheduledDate: p.Scheduled.DateForYear(start, year),
			Interest:      p.YearDividend(principal, year),
			Bonus:         p.YearBonus(principal, year),
			Status:        status,
		})
	}
	return events, nil
}
