/*
handlers.go - HTTP API handlers for the investor platform

PURPOSE:
  Exposes the returns engine and payout ledger via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Investors:
    GET    /api/investors                      List all investors
    POST   /api/investors                      Register investor
    GET    /api/investors/{id}                 Get investor details
    DELETE /api/investors/{id}                 Delete investor (cascades)
    GET    /api/investors/{id}/investments     Investor's investments

  Investments:
    POST   /api/investments                        Record investment
    GET    /api/investments/{id}                   Get investment
    GET    /api/investments/{id}/accrual           Accrued-to-date summary
    GET    /api/investments/{id}/projection        Full-term projection
    GET    /api/investments/{id}/schedule          Per-year payout schedule
    GET    /api/investments/{id}/transactions      Ledger history
    GET    /api/investments/{id}/exit-value        Early-exit quote
    GET    /api/investments/{id}/next-disbursement Next upcoming payout

  Projection tool (no stored investment needed):
    GET    /api/projection?principal=&start=

  Admin:
    POST   /api/admin/reconcile        Reconcile all investments
    POST   /api/admin/reconcile/{id}   Reconcile one investment
    POST   /api/reset                  Database reset (dev only)

  Audit:
    GET    /api/reconciliation/runs    Recent reconciliation runs

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (returns engine, ledger, reconciler)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background reconciliation
*/
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nivesh/debenture-engine/inr"
	"github.com/nivesh/debenture-engine/ledger"
	"github.com/nivesh/debenture-engine/returns"
	"github.com/nivesh/debenture-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Policy     returns.Policy
	Reconciler *ledger.Reconciler

	// now is injectable for tests; production uses time.Now.
	now func() time.Time
}

// NewHandler creates a new handler with the given store and policy.
func NewHandler(store *sqlite.Store, policy returns.Policy) *Handler {
	return &Handler{
		Store:      store,
		Policy:     policy,
		Reconciler: ledger.NewReconciler(policy, store),
		now:        time.Now,
	}
}

// today is the evaluation date every derived calculation uses.
func (h *Handler) today() time.Time {
	return returns.DateOnly(h.now())
}

// asOfParam allows ?as_of=YYYY-MM-DD overrides on read endpoints.
func (h *Handler) asOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.today(), nil
	}
	return time.Parse(dateLayout, raw)
}

// =============================================================================
// INVESTOR HANDLERS
// =============================================================================

// ListInvestors returns all investors.
func (h *Handler) ListInvestors(w http.ResponseWriter, r *http.Request) {
	investors, err := h.Store.ListInvestors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list investors", err)
		return
	}

	dtos := make([]InvestorDTO, len(investors))
	for i, inv := range investors {
		dtos[i] = toInvestorDTO(inv)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetInvestor returns a single investor.
func (h *Handler) GetInvestor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	inv, err := h.Store.GetInvestor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get investor", err)
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "Investor not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toInvestorDTO(*inv))
}

// CreateInvestor registers a new investor.
func (h *Handler) CreateInvestor(w http.ResponseWriter, r *http.Request) {
	var req CreateInvestorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required", nil)
		return
	}

	inv := sqlite.Investor{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: h.now().UTC(),
	}
	if inv.ID == "" {
		inv.ID = "inv-" + uuid.NewString()[:8]
	}

	if err := h.Store.SaveInvestor(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create investor", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvestorDTO(inv))
}

// DeleteInvestor removes an investor. Their investments and payout history
// cascade at the database level.
func (h *Handler) DeleteInvestor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteInvestor(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Investor not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete investor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInvestorInvestments returns one investor's investments.
func (h *Handler) ListInvestorInvestments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	investor, err := h.Store.GetInvestor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get investor", err)
		return
	}
	if investor == nil {
		writeError(w, http.StatusNotFound, "Investor not found", nil)
		return
	}

	invs, err := h.Store.ListInvestmentsByInvestor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list investments", err)
		return
	}

	dtos := make([]InvestmentDTO, len(invs))
	for i, inv := range invs {
		dtos[i] = toInvestmentDTO(inv)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// INVESTMENT HANDLERS
// =============================================================================

// CreateInvestment records a new investment and books the opening
// principal row into the ledger.
func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req CreateInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	principal, err := parseAmount(req.Principal)
	if err != nil || !principal.IsPositive() {
		writeError(w, http.StatusBadRequest, "principal must be a positive amount", err)
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}

	investor, err := h.Store.GetInvestor(r.Context(), req.InvestorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get investor", err)
		return
	}
	if investor == nil {
		writeError(w, http.StatusNotFound, "Investor not found", nil)
		return
	}

	inv := returns.Investment{
		ID:         req.ID,
		InvestorID: req.InvestorID,
		Principal:  principal,
		StartDate:  startDate,
		CreatedAt:  h.now().UTC(),
	}
	if inv.ID == "" {
		inv.ID = "dbn-" + uuid.NewString()[:8]
	}

	if err := h.Store.SaveInvestment(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create investment", err)
		return
	}

	// Opening row: the principal entering the ledger. Not a disbursement,
	// so the year-uniqueness index does not apply to it.
	opening := ledger.Transaction{
		ID:           ledger.NewTransactionID(h.now()),
		InvestmentID: inv.ID,
		Type:         ledger.TxInvestment,
		Status:       ledger.StatusCompleted,
		Amount:       principal,
		Date:         returns.DateOnly(startDate),
		Note:         "principal received",
		CreatedAt:    h.now().UTC(),
	}
	if err := h.Store.Append(r.Context(), opening); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to book opening transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, toInvestmentDTO(inv))
}

// GetInvestment returns a single investment.
func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvestment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toInvestmentDTO(*inv))
}

// ListInvestments returns every investment on the platform.
func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	invs, err := h.Store.ListInvestments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list investments", err)
		return
	}

	dtos := make([]InvestmentDTO, len(invs))
	for i, inv := range invs {
		dtos[i] = toInvestmentDTO(inv)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAccrual returns the accrued-to-date summary for an investment.
func (h *Handler) GetAccrual(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvestment(w, r)
	if !ok {
		return
	}
	asOf, err := h.asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	accrual, err := h.Policy.Accrue(inv.Principal, inv.StartDate, asOf)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccrualDTO(inv.ID, accrual))
}

// GetInvestmentProjection returns the full-term projection for a stored
// investment.
func (h *Handler) GetInvestmentProjection(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvestment(w, r)
	if !ok {
		return
	}

	proj, err := h.Policy.Project(inv.Principal, inv.StartDate)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(proj, inv.StartDate))
}

// GetProjection is the standalone projection tool: compute a full-term
// table for any principal and start date, no stored investment required.
// GET /api/projection?principal=5000000&start=2024-01-01
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	principal, err := parseAmount(r.URL.Query().Get("principal"))
	if err != nil || !principal.IsPositive() {
		writeError(w, http.StatusBadRequest, "principal must be a positive amount", err)
		return
	}
	start := h.today()
	if raw := r.URL.Query().Get("start"); raw != "" {
		if start, err = time.Parse(dateLayout, raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start format (use YYYY-MM-DD)", err)
			return
		}
	}

	proj, err := h.Policy.Project(principal, start)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(proj, start))
}

// GetSchedule returns the per-year payout schedule annotated against the
// ledger: disbursed, accrued, or pending.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvestment(w, r)
	if !ok {
		return
	}
	asOf, err := h.asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	existing, err := h.existingSet(r, inv.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load ledger", err)
		return
	}

	events, err := h.Policy.Schedule(inv.Principal, inv.StartDate, asOf, existing)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]DisbursementEventDTO, len(events))
	for i, e := range events {
		dtos[i] = DisbursementEventDTO{
			Year:          e.Year,
			ScheduledDate: e.ScheduledDate.Format(dateLayout),
			Interest:      e.Interest.StringFixed(2),
			Bonus:         e.Bonus.StringFixed(2),
			Status:        string(e.Status),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetNextDisbursement returns the next upcoming payout for an investment,
// or {"upcoming": false} when nothing lies ahead.
func (h *Handler) GetNextDisbursement(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvestment(w, r)
	if !ok {
		return
	}
	asOf, err := h.asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	existing, err := h.existingSet(r, inv.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load ledger", err)
		return
	}

	next := h.Policy.NextPending(inv.Principal, inv.StartDate, asOf, existing)
	if next == nil {
		writeJSON(w, http.StatusOK, NextDisbursementDTO{InvestmentID: inv.ID, Upcoming: false})
		return
	}
	writeJSON(w, http.StatusOK, NextDisbursementDTO{
		InvestmentID:  inv.ID,
		Year:          next.Year,
		Amount:        next.Amount.StringFixed(2),
		AmountDisplay: inr.Format(next.Amount),
		Date:          next.Date.Format(dateLayout),
		Upcoming:      true,
	})
}

// GetTransactions returns the ledger history for an investment.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvestment(w, r)
	if !ok {
		return
	}

	txs, err := h.Store.Load(r.Context(), inv.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// GetExitValue returns the early-exit quote for an investment. Inside the
// lock-in the response says "not available" with the eligibility date; it
// never reports a misleading zero.
func (h *Handler) GetExitValue(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvestment(w, r)
	if !ok {
		return
	}
	asOf, err := h.asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	quote, err := h.Policy.EarlyExit(inv.Principal, inv.StartDate, asOf)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExitQuoteDTO(inv.ID, quote))
}

// =============================================================================
// ADMIN / RECONCILIATION HANDLERS
// =============================================================================

// TriggerReconcile reconciles every investment on the platform and records
// an audit run. POST /api/admin/reconcile
func (h *Handler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	invs, err := h.Store.ListInvestments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list investments", err)
		return
	}

	result := h.Reconciler.ReconcileAll(r.Context(), invs, h.today())
	recordRun(r.Context(), h.Store, "manual", h.now().UTC(), result)

	writeJSON(w, http.StatusOK, toBatchResultDTO(result))
}

// TriggerReconcileOne reconciles a single investment.
// POST /api/admin/reconcile/{id}
func (h *Handler) TriggerReconcileOne(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvestment(w, r)
	if !ok {
		return
	}

	result := h.Reconciler.Reconcile(r.Context(), *inv, h.today())
	writeJSON(w, http.StatusOK, toReconcileResultDTO(result))
}

// ListReconciliationRuns returns recent reconciliation runs, newest first.
// GET /api/reconciliation/runs?limit=20
func (h *Handler) ListReconciliationRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	runs, err := h.Store.ListReconciliationRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reconciliation runs", err)
		return
	}

	dtos := make([]ReconciliationRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toReconciliationRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase wipes all data. Dev only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

// loadInvestment fetches the {id} investment, writing the error response
// itself when the lookup fails.
func (h *Handler) loadInvestment(w http.ResponseWriter, r *http.Request) (*returns.Investment, bool) {
	id := chi.URLParam(r, "id")

	inv, err := h.Store.GetInvestment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get investment", err)
		return nil, false
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "Investment not found", nil)
		return nil, false
	}
	return inv, true
}

// existingSet folds the stored ledger into the engine's view of which
// payouts already exist.
func (h *Handler) existingSet(r *http.Request, investmentID string) (returns.ExistingSet, error) {
	txs, err := h.Store.Load(r.Context(), investmentID)
	if err != nil {
		return nil, err
	}
	return ledger.ExistingSetOf(txs), nil
}

// writeEngineError maps engine errors onto HTTP statuses: validation
// failures are the client's fault, everything else is ours.
func writeEngineError(w http.ResponseWriter, err error) {
	if returns.IsClientError(err) {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "Calculation failed", err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
