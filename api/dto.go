/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  Amounts travel twice: a machine field carrying the decimal string
  ("209938.40") and a *_display field with Indian digit grouping
  ("2,09,938.40") so the frontend never re-implements lakh/crore
  formatting.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - inr/inr.go: Display formatting
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nivesh/debenture-engine/inr"
	"github.com/nivesh/debenture-engine/ledger"
	"github.com/nivesh/debenture-engine/returns"
	"github.com/nivesh/debenture-engine/store/sqlite"
)

const dateLayout = "2006-01-02"

// =============================================================================
// INVESTOR TYPES
// =============================================================================

// InvestorDTO represents an investor in API responses.
type InvestorDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateInvestorRequest is the request to register an investor.
type CreateInvestorRequest struct {
	ID    string `json:"id,omitempty"` // generated when omitted
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// =============================================================================
// INVESTMENT TYPES
// =============================================================================

// InvestmentDTO represents an investment in API responses.
type InvestmentDTO struct {
	ID               string `json:"id"`
	InvestorID       string `json:"investor_id"`
	Principal        string `json:"principal"`
	PrincipalDisplay string `json:"principal_display"`
	StartDate        string `json:"start_date"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// CreateInvestmentRequest is the request to record an investment.
type CreateInvestmentRequest struct {
	ID         string `json:"id,omitempty"` // generated when omitted
	InvestorID string `json:"investor_id"`
	Principal  string `json:"principal"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD
}

// =============================================================================
// ACCRUAL / PROJECTION / EXIT TYPES
// =============================================================================

// AccrualDTO is the accrued-to-date summary for an investment.
type AccrualDTO struct {
	InvestmentID    string `json:"investment_id"`
	AsOf            string `json:"as_of"`
	CompletedYears  int    `json:"completed_years"`
	CurrentYear     int    `json:"current_year"`
	CurrentRate     string `json:"current_rate"`
	YearProgress    string `json:"year_progress"`
	InterestAccrued string `json:"interest_accrued"`
	BonusAccrued    string `json:"bonus_accrued"`
	TotalAccrued    string `json:"total_accrued"`
	TotalDisplay    string `json:"total_display"`
	DailyInterest   string `json:"daily_interest"`
	Matured         bool   `json:"matured"`
}

// YearReturnDTO is one row of a projection table.
type YearReturnDTO struct {
	Year        int    `json:"year"`
	RatePercent string `json:"rate_percent"`
	Dividend    string `json:"dividend"`
	Bonus       string `json:"bonus"`
	Total       string `json:"total"`
	DisbursesOn string `json:"disburses_on"`
}

// ProjectionDTO is the full-term projection for a principal.
type ProjectionDTO struct {
	Principal            string          `json:"principal"`
	StartDate            string          `json:"start_date"`
	Years                []YearReturnDTO `json:"years"`
	TotalDividends       string          `json:"total_dividends"`
	TotalBonuses         string          `json:"total_bonuses"`
	MaturityValue        string          `json:"maturity_value"`
	MaturityValueDisplay string          `json:"maturity_value_display"`
}

// ExitQuoteDTO is the early-exit availability and value for an investment.
type ExitQuoteDTO struct {
	InvestmentID   string `json:"investment_id"`
	Available      bool   `json:"available"`
	Value          string `json:"value,omitempty"`
	ValueDisplay   string `json:"value_display,omitempty"`
	CompletedYears int    `json:"completed_years"`
	LockInYears    int    `json:"lock_in_years"`
	EligibleOn     string `json:"eligible_on"`
	Message        string `json:"message,omitempty"`
}

// =============================================================================
// SCHEDULE / DISBURSEMENT TYPES
// =============================================================================

// DisbursementEventDTO is one row of the per-year schedule table.
type DisbursementEventDTO struct {
	Year          int    `json:"year"`
	ScheduledDate string `json:"scheduled_date"`
	Interest      string `json:"interest"`
	Bonus         string `json:"bonus"`
	Status        string `json:"status"`
}

// NextDisbursementDTO is the next upcoming payout, if any.
type NextDisbursementDTO struct {
	InvestmentID  string `json:"investment_id"`
	Year          int    `json:"year,omitempty"`
	Amount        string `json:"amount,omitempty"`
	AmountDisplay string `json:"amount_display,omitempty"`
	Date          string `json:"date,omitempty"`
	Upcoming      bool   `json:"upcoming"`
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// TransactionDTO represents a ledger transaction.
type TransactionDTO struct {
	ID            string `json:"id"`
	InvestmentID  string `json:"investment_id"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	Date          string `json:"date"`
	YearCovered   int    `json:"year_covered,omitempty"`
	RatePercent   string `json:"rate_percent,omitempty"`
	Note          string `json:"note,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// =============================================================================
// RECONCILIATION TYPES
// =============================================================================

// ReconcileResultDTO reports one investment's reconciliation.
type ReconcileResultDTO struct {
	InvestmentID string           `json:"investment_id"`
	Created      []TransactionDTO `json:"created"`
	Skipped      int              `json:"skipped"`
	Errors       []string         `json:"errors,omitempty"`
}

// BatchResultDTO aggregates a reconcile-all run.
type BatchResultDTO struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// ReconciliationRunDTO is one audit-log entry.
type ReconciliationRunDTO struct {
	ID          string `json:"id"`
	TriggeredBy string `json:"triggered_by"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Processed   int    `json:"processed"`
	Created     int    `json:"created"`
	Skipped     int    `json:"skipped"`
	ErrorCount  int    `json:"error_count"`
	ErrorDetail string `json:"error_detail,omitempty"`
	Status      string `json:"status"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toInvestorDTO(inv sqlite.Investor) InvestorDTO {
	return InvestorDTO{
		ID:        inv.ID,
		Name:      inv.Name,
		Email:     inv.Email,
		Phone:     inv.Phone,
		CreatedAt: inv.CreatedAt.Format(time.RFC3339),
	}
}

func toInvestmentDTO(inv returns.Investment) InvestmentDTO {
	return InvestmentDTO{
		ID:               inv.ID,
		InvestorID:       inv.InvestorID,
		Principal:        inv.Principal.String(),
		PrincipalDisplay: inr.Format(inv.Principal),
		StartDate:        inv.StartDate.Format(dateLayout),
		CreatedAt:        inv.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:            tx.ID,
		InvestmentID:  tx.InvestmentID,
		Type:          string(tx.Type),
		Status:        string(tx.Status),
		Amount:        tx.Amount.String(),
		AmountDisplay: inr.Format(tx.Amount),
		Date:          tx.Date.Format(dateLayout),
		YearCovered:   tx.YearCovered,
		Note:          tx.Note,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.RatePercent.IsPositive() {
		dto.RatePercent = tx.RatePercent.String()
	}
	return dto
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toAccrualDTO(investmentID string, a returns.AccrualResult) AccrualDTO {
	total := a.TotalAccrued()
	return AccrualDTO{
		InvestmentID:    investmentID,
		AsOf:            a.AsOf.Format(dateLayout),
		CompletedYears:  a.CompletedYears,
		CurrentYear:     a.CurrentYear,
		CurrentRate:     a.CurrentRate.String(),
		YearProgress:    a.YearProgress.StringFixed(4),
		InterestAccrued: a.InterestAccrued.StringFixed(2),
		BonusAccrued:    a.BonusAccrued.StringFixed(2),
		TotalAccrued:    total.StringFixed(2),
		TotalDisplay:    inr.Format(total),
		DailyInterest:   a.DailyInterest.StringFixed(2),
		Matured:         a.Matured,
	}
}

func toProjectionDTO(proj returns.Projection, start time.Time) ProjectionDTO {
	years := make([]YearReturnDTO, len(proj.Years))
	for i, y := range proj.Years {
		years[i] = YearReturnDTO{
			Year:        y.Year,
			RatePercent: y.RatePercent.String(),
			Dividend:    y.Dividend.StringFixed(2),
			Bonus:       y.Bonus.StringFixed(2),
			Total:       y.Total.StringFixed(2),
			DisbursesOn: y.DisbursesOn.Format(dateLayout),
		}
	}
	return ProjectionDTO{
		Principal:            proj.Summary.Principal.String(),
		StartDate:            start.Format(dateLayout),
		Years:                years,
		TotalDividends:       proj.Summary.TotalDividends.StringFixed(2),
		TotalBonuses:         proj.Summary.TotalBonuses.StringFixed(2),
		MaturityValue:        proj.Summary.MaturityValue.StringFixed(2),
		MaturityValueDisplay: inr.Format(proj.Summary.MaturityValue),
	}
}

func toExitQuoteDTO(investmentID string, q returns.ExitQuote) ExitQuoteDTO {
	dto := ExitQuoteDTO{
		InvestmentID:   investmentID,
		Available:      q.Available,
		CompletedYears: q.CompletedYears,
		LockInYears:    q.LockInYears,
		EligibleOn:     q.EligibleOn.Format(dateLayout),
	}
	if q.Available {
		dto.Value = q.Value.StringFixed(2)
		dto.ValueDisplay = inr.Format(q.Value)
	} else {
		// Lock-in not met: say so explicitly, never report a zero value.
		dto.Message = "not available until " + q.EligibleOn.Format(dateLayout)
	}
	return dto
}

func toBatchResultDTO(res ledger.BatchResult) BatchResultDTO {
	dto := BatchResultDTO{
		Processed: res.Processed,
		Created:   res.Created,
		Skipped:   res.Skipped,
	}
	for _, e := range res.Errors {
		dto.Errors = append(dto.Errors, e.Error())
	}
	return dto
}

func toReconcileResultDTO(res ledger.ReconcileResult) ReconcileResultDTO {
	dto := ReconcileResultDTO{
		InvestmentID: res.InvestmentID,
		Created:      toTransactionDTOs(res.Created),
		Skipped:      res.Skipped,
	}
	for _, e := range res.Errors {
		dto.Errors = append(dto.Errors, e.Error())
	}
	return dto
}

func toReconciliationRunDTO(run sqlite.ReconciliationRun) ReconciliationRunDTO {
	dto := ReconciliationRunDTO{
		ID:          run.ID,
		TriggeredBy: run.TriggeredBy,
		StartedAt:   run.StartedAt.Format(time.RFC3339),
		Processed:   run.Processed,
		Created:     run.Created,
		Skipped:     run.Skipped,
		ErrorCount:  run.ErrorCount,
		ErrorDetail: run.ErrorDetail,
		Status:      run.Status,
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
