/*
Package config loads the platform returns policy from a YAML file.

PURPOSE:
  The rate schedule, milestone bonuses, lock-in, term, and disbursement
  date conventions are policy, not code. Operators adjust them in a YAML
  file; the engine consumes a validated returns.Policy.

EXAMPLE FILE:

  term_years: 10
  lock_in_years: 3
  rate_schedule:
    1: 0
    2: 6
    3: 9
    4: 12
    5: 18
    6: 18
    7: 18
    8: 18
    9: 18
    10: 0
  milestone_bonuses:
    5: 5
    10: 10
  scheduled_date_strategy: month_following_24
  booking_date_strategy: anniversary

Every field is optional; omitted fields fall back to the production
defaults (returns.DefaultPolicy). The loaded policy is validated before
being returned - a malformed file never reaches the engine.
*/
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/nivesh/debenture-engine/returns"
)

// File is the YAML shape of a policy configuration.
type File struct {
	TermYears        int             `yaml:"term_years"`
	LockInYears      *int            `yaml:"lock_in_years"`
	RateSchedule     map[int]float64 `yaml:"rate_schedule"`
	MilestoneBonuses map[int]float64 `yaml:"milestone_bonuses"`
	ScheduledDate    string          `yaml:"scheduled_date_strategy"`
	BookingDate      string          `yaml:"booking_date_strategy"`
}

// Load reads and validates a policy file. An empty path returns the
// production defaults.
func Load(path string) (returns.Policy, error) {
	if path == "" {
		return returns.DefaultPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return returns.Policy{}, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated policy.
func Parse(data []byte) (returns.Policy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return returns.Policy{}, fmt.Errorf("failed to parse policy YAML: %w", err)
	}

	policy := f.toPolicy()
	if err := policy.Validate(); err != nil {
		return returns.Policy{}, fmt.Errorf("policy validation failed: %w", err)
	}
	return policy, nil
}

// toPolicy overlays the file onto the production defaults.
func (f File) toPolicy() returns.Policy {
	policy := returns.DefaultPolicy()

	if f.TermYears > 0 {
		policy.TermYears = f.TermYears
	}
	if f.LockInYears != nil {
		policy.LockInYears = *f.LockInYears
	}
	if len(f.RateSchedule) > 0 {
		rates := make(returns.RateSchedule, len(f.RateSchedule))
		for year, pct := range f.RateSchedule {
			rates[year] = decimal.NewFromFloat(pct)
		}
		policy.Rates = rates
	}
	if f.MilestoneBonuses != nil {
		bonuses := make(returns.MilestoneBonusPolicy, len(f.MilestoneBonuses))
		for year, pct := range f.MilestoneBonuses {
			bonuses[year] = decimal.NewFromFloat(pct)
		}
		policy.Bonuses = bonuses
	}
	if f.ScheduledDate != "" {
		policy.Scheduled = returns.DateStrategy(f.ScheduledDate)
	}
	if f.BookingDate != "" {
		policy.Booking = returns.DateStrategy(f.BookingDate)
	}
	return policy
}
