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
// ELAPSED-TIME TESTS
// =============================================================================

func TestElapsedYears(t *testing.T) {
	t.Run("913 days is 2 completed years", func(t *testing.T) {
		// 2023-01-01 -> 2025-07-02 spans 913 days; floor(913/365.25) = 2
		completed, progress := returns.ElapsedYears(
			returns.Date(2023, time.January, 1),
			returns.Date(2025, time.July, 2),
		)
		assert.Equal(t, 2, completed)
		// 182.5 days into year 3
		expected := decimal.NewFromFloat(182.5).Div(decimal.NewFromFloat(365.25))
		assert.True(t, progress.Equal(expected), "got %s", progress)
	})

	t.Run("asOf before start clamps to zero", func(t *testing.T) {
		completed, progress := returns.ElapsedYears(
			returns.Date(2025, time.June, 1),
			returns.Date(2024, time.June, 1),
		)
		assert.Equal(t, 0, completed)
		assert.True(t, progress.IsZero())
	})

	t.Run("same day is zero elapsed", func(t *testing.T) {
		d := returns.Date(2024, time.March, 5)
		completed, progress := returns.ElapsedYears(d, d)
		assert.Equal(t, 0, completed)
		assert.True(t, progress.IsZero())
	})
}

// =============================================================================
// ACCRUAL TESTS
// =============================================================================

func TestAccrue_TwoAndAHalfYears(t *testing.T) {
	// GIVEN: 20,00,000 invested 2023-01-01
	// WHEN: Evaluated 2025-07-02 (913 days in)
	// THEN: 2 full years credited (0% + 6% = 1,20,000), year 3 at 9%
	//       prorated by 182.5/365.25 days, total 2,09,938.40

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(2000000)

	result, err := p.Accrue(principal, returns.Date(2023, time.January, 1), returns.Date(2025, time.July, 2))
	require.NoError(t, err)

	assert.Equal(t, 2, result.CompletedYears)
	assert.Equal(t, 3, result.CurrentYear)
	assert.True(t, result.CurrentRate.Equal(decimal.NewFromInt(9)))
	assert.False(t, result.Matured)

	assert.Equal(t, "209938.40", result.InterestAccrued.StringFixed(2))
	assert.True(t, result.BonusAccrued.IsZero(), "no milestone completed yet")
	assert.Equal(t, "209938.40", result.TotalAccrued().StringFixed(2))
}

func TestAccrue_MilestoneBonusAtYearFive(t *testing.T) {
	// GIVEN: 60,00,000 invested 2019-07-01
	// WHEN: Evaluated 2024-07-01 (1,827 days: two leap years in the span)
	// THEN: 5 years complete and the year-5 bonus of exactly 3,00,000
	//       (5% of principal) is credited, all at once, never prorated

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(6000000)

	result, err := p.Accrue(principal, returns.Date(2019, time.July, 1), returns.Date(2024, time.July, 1))
	require.NoError(t, err)

	assert.Equal(t, 5, result.CompletedYears)
	assert.True(t, result.BonusAccrued.Equal(decimal.NewFromInt(300000)),
		"expected 300000, got %s", result.BonusAccrued)

	// Full years 1-5: (0+6+9+12+18)% of 60,00,000 = 27,00,000, plus a
	// sliver of year 6.
	assert.True(t, result.InterestAccrued.GreaterThanOrEqual(decimal.NewFromInt(2700000)))
}

func TestAccrue_BonusNotCreditedBeforeYearCompletes(t *testing.T) {
	// GIVEN: An investment one day short of 5 elapsed years on the
	//        365.25-day basis
	// THEN: No bonus is credited

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)
	start := returns.Date(2019, time.July, 1)

	result, err := p.Accrue(principal, start, start.AddDate(0, 0, 1826))
	require.NoError(t, err)

	assert.Equal(t, 4, result.CompletedYears)
	assert.True(t, result.BonusAccrued.IsZero())
}

func TestAccrue_Matured(t *testing.T) {
	// GIVEN: An investment past its full 10-year term
	// THEN: Accrual caps at the term; interest is the sum of all full
	//       years, both bonuses are credited, and nothing keeps growing

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)

	result, err := p.Accrue(principal, returns.Date(2010, time.January, 1), returns.Date(2025, time.January, 1))
	require.NoError(t, err)

	assert.True(t, result.Matured)
	assert.Equal(t, 10, result.CompletedYears)
	assert.True(t, result.YearProgress.IsZero())

	// (0+6+9+12+18*5+0)% = 105% interest, (5+10)% bonuses
	assert.True(t, result.InterestAccrued.Equal(decimal.NewFromInt(1050000)))
	assert.True(t, result.BonusAccrued.Equal(decimal.NewFromInt(150000)))
	assert.True(t, result.TotalAccrued().Equal(decimal.NewFromInt(1200000)))
}

func TestAccrue_BeforeStart(t *testing.T) {
	// GIVEN: An evaluation date before the investment starts
	// THEN: Zero accrued, not an error

	p := returns.DefaultPolicy()

	result, err := p.Accrue(decimal.NewFromInt(500000),
		returns.Date(2026, time.January, 1), returns.Date(2025, time.January, 1))
	require.NoError(t, err)

	assert.Equal(t, 0, result.CompletedYears)
	assert.True(t, result.InterestAccrued.IsZero())
	assert.True(t, result.BonusAccrued.IsZero())
}

func TestAccrue_InvalidInputs(t *testing.T) {
	p := returns.DefaultPolicy()
	asOf := returns.Date(2025, time.January, 1)

	t.Run("zero principal", func(t *testing.T) {
		_, err := p.Accrue(decimal.Zero, returns.Date(2024, time.January, 1), asOf)
		assert.ErrorIs(t, err, returns.ErrInvalidPrincipal)
		assert.True(t, returns.IsClientError(err))
	})

	t.Run("negative principal", func(t *testing.T) {
		_, err := p.Accrue(decimal.NewFromInt(-100), returns.Date(2024, time.January, 1), asOf)
		assert.ErrorIs(t, err, returns.ErrInvalidPrincipal)
	})

	t.Run("zero start date", func(t *testing.T) {
		_, err := p.Accrue(decimal.NewFromInt(100), time.Time{}, asOf)
		assert.ErrorIs(t, err, returns.ErrInvalidStartDate)
	})
}

func TestAccrue_DailyInterestUses365(t *testing.T) {
	// GIVEN: 36,50,000 in a 9% year
	// THEN: Daily interest displays as principal*9%/365 = 900 exactly

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(3650000)

	// 913 days in: year 3 at 9%
	result, err := p.Accrue(principal, returns.Date(2023, time.January, 1), returns.Date(2025, time.July, 2))
	require.NoError(t, err)

	assert.Equal(t, "900.00", result.DailyInterest.StringFixed(2))
}
