/*
projection.go - Full-term forward projection

PURPOSE:
  Produces the 10-year returns table shown to prospective and current
  investors. Unlike the accrual calculator this ignores elapsed time
  entirely: every year is credited in full, making it a forward-looking
  projection rather than an accrued-to-date report.

INVARIANT:
  Summary.MaturityValue == Principal + TotalDividends + TotalBonuses,
  exactly, by construction.
*/
package returns

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// YearReturn is one row of the projection table.
type YearReturn struct {
	Year        int
	RatePercent decimal.Decimal
	Dividend    decimal.Decimal
	Bonus       decimal.Decimal
	Total       decimal.Decimal
	DisbursesOn time.Time // under the Scheduled strategy
}

// ProjectionSummary aggregates the table.
type ProjectionSummary struct {
	Principal      decimal.Decimal
	TotalDividends decimal.Decimal
	TotalBonuses   decimal.Decimal
	MaturityValue  decimal.Decimal
}

// Projection is the read-only computed view for reports and the UI.
type Projection struct {
	Years   []YearReturn
	Summary ProjectionSummary
}

// Project computes the full-term projection for a principal invested at
// start. Elapsed time plays no part; partial years never appear here.
func (p Policy) Project(principal decimal.Decimal, start time.Time) (Projection, error) {
	if !principal.IsPositive() {
		return Projection{}, fmt.Errorf("%w: got %s", ErrInvalidPrincipal, principal)
	}
	if start.IsZero() {
		return Projection{}, ErrInvalidStartDate
	}

	years := make([]YearReturn, 0, p.TermYears)
	totalDividends := decimal.Zero
	totalBonuses := decimal.Zero

	for year := 1; year <= p.TermYears; year++ {
		dividend := p.YearDividend(principal, year)
		bonus := p.YearBonus(principal, year)
		years = append(years, YearReturn{
			Year:        year,
			RatePercent: p.Rates[year],
			Dividend:    dividend,
			Bonus:       bonus,
			Total:       dividend.Add(bonus),
			DisbursesOn: p.Scheduled.DateForYear(start, year),
		})
		totalDividends = totalDividends.Add(dividend)
		totalBonuses = totalBonuses.Add(bonus)
	}

	return Projection{
		Years: years,
		Summary: ProjectionSummary{
			Principal:      principal,
			TotalDividends: totalDividends,
			TotalBonuses:   totalBonuses,
			MaturityValue:  principal.Add(totalDividends).Add(totalBonuses),
		},
	}, nil
}
