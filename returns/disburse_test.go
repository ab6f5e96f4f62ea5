package returns_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivesh/debenture-engine/returns"
)

// =============================================================================
// DATE STRATEGY TESTS
// =============================================================================

func TestDateForYear_MonthFollowing24(t *testing.T) {
	s := returns.StrategyMonthFollowing24

	t.Run("anniversary mid-month", func(t *testing.T) {
		// start 2023-03-05, year 1 -> anniversary 2024-03-05 -> April -> 24th
		got := s.DateForYear(returns.Date(2023, time.March, 5), 1)
		assert.Equal(t, returns.Date(2024, time.April, 24), got)
	})

	t.Run("advance applies even when anniversary day is before the 24th", func(t *testing.T) {
		// Day 1 is well before the 24th but the payout still moves to the
		// following month.
		got := s.DateForYear(returns.Date(2023, time.January, 1), 2)
		assert.Equal(t, returns.Date(2025, time.February, 24), got)
	})

	t.Run("December anniversary rolls into January", func(t *testing.T) {
		got := s.DateForYear(returns.Date(2022, time.December, 15), 1)
		assert.Equal(t, returns.Date(2024, time.January, 24), got)
	})

	t.Run("leap day start", func(t *testing.T) {
		// 2024-02-29 + 1 year normalizes to 2025-03-01 -> April
		got := s.DateForYear(returns.Date(2024, time.February, 29), 1)
		assert.Equal(t, returns.Date(2025, time.April, 24), got)
	})
}

func TestDateForYear_Anniversary(t *testing.T) {
	s := returns.StrategyAnniversary

	got := s.DateForYear(returns.Date(2023, time.March, 5), 3)
	assert.Equal(t, returns.Date(2026, time.March, 5), got)
}

func TestIsDue(t *testing.T) {
	scheduled := returns.Date(2025, time.April, 24)

	assert.False(t, returns.IsDue(scheduled, returns.Date(2025, time.April, 23)))
	assert.True(t, returns.IsDue(scheduled, returns.Date(2025, time.April, 24)), "due on the day itself")
	assert.True(t, returns.IsDue(scheduled, returns.Date(2025, time.May, 1)))
}

// =============================================================================
// NEXT PENDING DISBURSEMENT TESTS
// =============================================================================

func TestNextPending_SkipsZeroAmountFirstYear(t *testing.T) {
	// GIVEN: A fresh investment (year 1 pays 0%)
	// WHEN: Asking for the next pending payout
	// THEN: Year 2 is surfaced, year 1 never appears

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)
	start := returns.Date(2024, time.January, 1)

	next := p.NextPending(principal, start, returns.Date(2024, time.June, 1), nil)
	require.NotNil(t, next)

	assert.Equal(t, 2, next.Year)
	assert.True(t, next.Amount.Equal(decimal.NewFromInt(60000)))
	assert.Equal(t, returns.Date(2026, time.February, 24), next.Date)
}

func TestNextPending_SkipsOverdueYears(t *testing.T) {
	// GIVEN: An investment whose year-2 and year-3 payout dates have passed
	//        without being materialized
	// WHEN: Asking for the next pending payout
	// THEN: The overdue years are skipped; only the next UPCOMING date is
	//       surfaced (the reconciler, not this view, sweeps up arrears)

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)
	start := returns.Date(2021, time.January, 1)
	// year 2 -> 2023-02-24, year 3 -> 2024-02-24, year 4 -> 2025-02-24
	today := returns.Date(2024, time.June, 1)

	next := p.NextPending(principal, start, today, nil)
	require.NotNil(t, next)

	assert.Equal(t, 4, next.Year)
	assert.Equal(t, returns.Date(2025, time.February, 24), next.Date)
}

func TestNextPending_ScheduledTodayIsNotUpcoming(t *testing.T) {
	// GIVEN: Today IS a year's scheduled date
	// THEN: That year is not "upcoming" - strictly future dates only

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)
	start := returns.Date(2021, time.January, 1)

	next := p.NextPending(principal, start, returns.Date(2023, time.February, 24), nil)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Year)
}

func TestNextPending_SkipsMaterializedYears(t *testing.T) {
	// GIVEN: Year 2's dividend already sits in the ledger
	// THEN: Year 3 is the next pending payout

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)
	start := returns.Date(2024, time.January, 1)

	existing := returns.ExistingSet{
		{Year: 2, Kind: returns.KindDividend}: true,
	}

	next := p.NextPending(principal, start, returns.Date(2024, time.June, 1), existing)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Year)
}

func TestNextPending_MilestoneYearIncludesBonus(t *testing.T) {
	// GIVEN: Year 5 is next (18% + 5% bonus)
	// THEN: The pending amount is dividend + bonus combined

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)
	start := returns.Date(2020, time.January, 1)
	// years 2..4 already paid out
	existing := returns.ExistingSet{
		{Year: 2, Kind: returns.KindDividend}: true,
		{Year: 3, Kind: returns.KindDividend}: true,
		{Year: 4, Kind: returns.KindDividend}: true,
	}

	next := p.NextPending(principal, start, returns.Date(2024, time.June, 1), existing)
	require.NotNil(t, next)

	assert.Equal(t, 5, next.Year)
	assert.True(t, next.Amount.Equal(decimal.NewFromInt(230000)), "18%% + 5%% of 10,00,000")
}

func TestNextPending_NothingUpcoming(t *testing.T) {
	// GIVEN: Every payable year is already materialized
	// THEN: Nil - there is no upcoming payout

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)
	start := returns.Date(2010, time.January, 1)

	existing := make(returns.ExistingSet)
	for year := 2; year <= 9; year++ {
		existing[returns.ExistingKey{Year: year, Kind: returns.KindDividend}] = true
	}
	existing[returns.ExistingKey{Year: 5, Kind: returns.KindBonus}] = true
	existing[returns.ExistingKey{Year: 10, Kind: returns.KindBonus}] = true

	next := p.NextPending(principal, start, returns.Date(2025, time.January, 1), existing)
	assert.Nil(t, next)
}

// =============================================================================
// SCHEDULE TABLE TESTS
// =============================================================================

func TestSchedule_Statuses(t *testing.T) {
	// GIVEN: An investment 2.5 years in, with year 2 materialized
	// THEN: year 2 disbursed, years 1 (and any unmaterialized completed
	//       year) accrued, future years pending

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)
	start := returns.Date(2023, time.January, 1)
	asOf := returns.Date(2025, time.July, 2)

	existing := returns.ExistingSet{
		{Year: 2, Kind: returns.KindDividend}: true,
	}

	events, err := p.Schedule(principal, start, asOf, existing)
	require.NoError(t, err)
	require.Len(t, events, 10)

	assert.Equal(t, returns.StatusAccrued, events[0].Status, "year 1 completed, nothing in ledger")
	assert.Equal(t, returns.StatusDisbursed, events[1].Status)
	assert.Equal(t, returns.StatusPending, events[2].Status, "year 3 still in flight")
	assert.Equal(t, returns.StatusPending, events[9].Status)

	// Amounts and dates on a sample row
	y2 := events[1]
	assert.True(t, y2.Interest.Equal(decimal.NewFromInt(60000)))
	assert.True(t, y2.Bonus.IsZero())
	assert.Equal(t, returns.Date(2025, time.February, 24), y2.ScheduledDate)
}

func TestSchedule_InvalidPrincipal(t *testing.T) {
	p := returns.DefaultPolicy()

	_, err := p.Schedule(decimal.Zero, returns.Date(2024, time.January, 1), returns.Date(2025, time.January, 1), nil)
	assert.ErrorIs(t, err, returns.ErrInvalidPrincipal)
}
