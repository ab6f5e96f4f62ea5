package returns_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivesh/debenture-engine/returns"
)

// =============================================================================
// RATE SCHEDULE TESTS
// =============================================================================

func TestDefaultPolicy_RateSchedule(t *testing.T) {
	// GIVEN: The production policy
	// THEN: The rate table is exactly 0,6,9,12,18,18,18,18,18,0

	p := returns.DefaultPolicy()
	expected := map[int]int64{1: 0, 2: 6, 3: 9, 4: 12, 5: 18, 6: 18, 7: 18, 8: 18, 9: 18, 10: 0}

	for year, pct := range expected {
		rate, err := p.Rate(year)
		require.NoError(t, err, "year %d", year)
		assert.True(t, rate.Equal(decimal.NewFromInt(pct)),
			"year %d: expected %d, got %s", year, pct, rate)
	}
}

func TestPolicy_Rate_OutOfRange(t *testing.T) {
	// GIVEN: The production 10-year policy
	// WHEN: Asking for a rate outside years 1..10
	// THEN: An error is returned, never a silent zero

	p := returns.DefaultPolicy()

	for _, year := range []int{0, -1, 11, 100} {
		_, err := p.Rate(year)
		assert.Error(t, err, "year %d should be out of range", year)
		assert.ErrorIs(t, err, returns.ErrYearOutOfRange)
		assert.True(t, returns.IsClientError(err))
	}
}

func TestDefaultPolicy_MilestoneBonuses(t *testing.T) {
	// GIVEN: The production policy
	// THEN: Years 5 and 10 are milestones (5% and 10%), nothing else

	p := returns.DefaultPolicy()

	assert.True(t, p.IsMilestoneYear(5))
	assert.True(t, p.IsMilestoneYear(10))
	assert.True(t, p.BonusPercent(5).Equal(decimal.NewFromInt(5)))
	assert.True(t, p.BonusPercent(10).Equal(decimal.NewFromInt(10)))

	for _, year := range []int{1, 2, 3, 4, 6, 7, 8, 9} {
		assert.False(t, p.IsMilestoneYear(year), "year %d should not be a milestone", year)
		assert.True(t, p.BonusPercent(year).IsZero())
	}
}

func TestDefaultPolicy_Validate(t *testing.T) {
	assert.NoError(t, returns.DefaultPolicy().Validate())
}

// =============================================================================
// POLICY VALIDATION TESTS
// =============================================================================

func TestPolicy_Validate_Rejects(t *testing.T) {
	base := returns.DefaultPolicy()

	t.Run("missing rate year", func(t *testing.T) {
		p := base
		p.Rates = returns.RateSchedule{1: decimal.Zero}
		assert.Error(t, p.Validate())
	})

	t.Run("negative rate", func(t *testing.T) {
		p := base
		rates := make(returns.RateSchedule, len(base.Rates))
		for y, r := range base.Rates {
			rates[y] = r
		}
		rates[3] = decimal.NewFromInt(-1)
		p.Rates = rates
		assert.Error(t, p.Validate())
	})

	t.Run("bonus year outside term", func(t *testing.T) {
		p := base
		p.Bonuses = returns.MilestoneBonusPolicy{11: decimal.NewFromInt(10)}
		assert.Error(t, p.Validate())
	})

	t.Run("lock-in longer than term", func(t *testing.T) {
		p := base
		p.LockInYears = 11
		assert.Error(t, p.Validate())
	})

	t.Run("unknown date strategy", func(t *testing.T) {
		p := base
		p.Scheduled = returns.DateStrategy("end_of_quarter")
		assert.Error(t, p.Validate())
	})
}

// =============================================================================
// YEAR AMOUNT HELPERS
// =============================================================================

func TestPolicy_YearDividend(t *testing.T) {
	// GIVEN: 10,00,000 principal
	// THEN: Year 3 at 9% yields exactly 90,000

	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)

	assert.True(t, p.YearDividend(principal, 3).Equal(decimal.NewFromInt(90000)))
	assert.True(t, p.YearDividend(principal, 1).IsZero(), "year 1 pays nothing")
	assert.True(t, p.YearDividend(principal, 10).IsZero(), "final year pays nothing")
	assert.True(t, p.YearDividend(principal, 42).IsZero(), "unknown year contributes nothing")
}

func TestPolicy_YearBonus(t *testing.T) {
	p := returns.DefaultPolicy()
	principal := decimal.NewFromInt(1000000)

	assert.True(t, p.YearBonus(principal, 5).Equal(decimal.NewFromInt(50000)))
	assert.True(t, p.YearBonus(principal, 10).Equal(decimal.NewFromInt(100000)))
	assert.True(t, p.YearBonus(principal, 4).IsZero())
}
