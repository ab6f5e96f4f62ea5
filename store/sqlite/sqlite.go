/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Implements ledger.Store plus the investor and investment registries and
  the reconciliation run log. The same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The transactions table has no UPDATE or DELETE paths of its own. The
  only delete is the investor cascade: removing an investor removes their
  investments and, through them, their transactions.

IDEMPOTENCY:
  Two unique indexes make duplicate payouts impossible at the database
  level, regardless of what races above it:
  - idx_unique_disbursement on (investment_id, year_covered, tx_type)
    for the disbursement row types
  - transactions.idempotency_key UNIQUE

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: interface definition
  - ledger/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/nivesh/debenture-engine/ledger"
	"github.com/nivesh/debenture-engine/returns"
)

// Store implements ledger.Store and the investor/investment registries.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Investors
	CREATE TABLE IF NOT EXISTS investors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		created_at TEXT NOT NULL
	);

	-- Investments (immutable once created; removed only via investor cascade)
	CREATE TABLE IF NOT EXISTS investments (
		id TEXT PRIMARY KEY,
		investor_id TEXT NOT NULL REFERENCES investors(id) ON DELETE CASCADE,
		principal TEXT NOT NULL,
		start_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_investments_investor
		ON investments(investor_id);

	-- Transactions (append-only payout ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		investment_id TEXT NOT NULL REFERENCES investments(id) ON DELETE CASCADE,
		tx_type TEXT NOT NULL,
		status TEXT NOT NULL,
		amount TEXT NOT NULL,
		value_date TEXT NOT NULL,
		year_covered INTEGER NOT NULL DEFAULT 0,
		rate_percent TEXT NOT NULL DEFAULT '0',
		idempotency_key TEXT UNIQUE,
		note TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one disbursement per (investment, year, type).
	-- This is what makes concurrent reconciliations a benign no-op.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_disbursement
		ON transactions(investment_id, year_covered, tx_type)
		WHERE tx_type IN ('dividend_disbursement', 'bonus_disbursement', 'maturity_disbursement');

	CREATE INDEX IF NOT EXISTS idx_transactions_investment
		ON transactions(investment_id, value_date);

	-- Reconciliation run log (audit trail for the admin UI)
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		triggered_by TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		processed INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0,
		error_detail TEXT,
		status TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER.STORE IMPLEMENTATION
// =============================================================================

// Append persists a transaction. A duplicate (investment, year, type) row or
// a duplicate idempotency key surfaces as ledger.ErrDuplicateTransaction.
func (s *Store) Append(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO transactions
		(id, investment_id, tx_type, status, amount, value_date, year_covered,
		 rate_percent, idempotency_key, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		tx.InvestmentID,
		tx.Type,
		tx.Status,
		tx.Amount.String(),
		tx.Date.UTC().Format(time.RFC3339),
		tx.YearCovered,
		tx.RatePercent.String(),
		nullString(tx.IdempotencyKey),
		tx.Note,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateTransaction
		}
		return fmt.Errorf("%w: %v", ledger.ErrTransactionFailed, err)
	}
	return nil
}

// Load returns all transactions for an investment in value-date order.
func (s *Store) Load(ctx context.Context, investmentID string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, investment_id, tx_type, status, amount, value_date, year_covered,
		       rate_percent, idempotency_key, note, created_at
		FROM transactions
		WHERE investment_id = ?
		ORDER BY value_date ASC, created_at ASC
	`
	return s.queryTransactions(ctx, query, investmentID)
}

// Exists checks for a disbursement row by its (investment, year, type) key.
func (s *Store) Exists(ctx context.Context, investmentID string, year int, txType ledger.TransactionType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE investment_id = ? AND year_covered = ? AND tx_type = ?",
		investmentID, year, string(txType),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	return count > 0, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		var (
			tx                   ledger.Transaction
			amount, rate         string
			valueDate, createdAt string
			idempotencyKey, note sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.InvestmentID, &tx.Type, &tx.Status, &amount,
			&valueDate, &tx.YearCovered, &rate, &idempotencyKey, &note, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount %q on %s: %w", amount, tx.ID, err)
		}
		if tx.RatePercent, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("corrupt rate %q on %s: %w", rate, tx.ID, err)
		}
		if tx.Date, err = time.Parse(time.RFC3339, valueDate); err != nil {
			return nil, fmt.Errorf("corrupt value date %q on %s: %w", valueDate, tx.ID, err)
		}
		if tx.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("corrupt created_at %q on %s: %w", createdAt, tx.ID, err)
		}
		tx.IdempotencyKey = idempotencyKey.String
		tx.Note = note.String
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// INVESTORS
// =============================================================================

// Investor is an account holder. Deleting an investor cascades to their
// investments and transactions.
type Investor struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// SaveInvestor persists a new investor record.
func (s *Store) SaveInvestor(ctx context.Context, inv Investor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := inv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO investors (id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?)`,
		inv.ID, inv.Name, inv.Email, nullString(inv.Phone), createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save investor: %w", err)
	}
	return nil
}

// GetInvestor fetches one investor, or nil when not found.
func (s *Store) GetInvestor(ctx context.Context, id string) (*Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, created_at FROM investors WHERE id = ?`, id)

	var inv Investor
	var phone sql.NullString
	var createdAt string
	if err := row.Scan(&inv.ID, &inv.Name, &inv.Email, &phone, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get investor: %w", err)
	}
	inv.Phone = phone.String
	inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &inv, nil
}

// ListInvestors returns all investors in creation order.
func (s *Store) ListInvestors(ctx context.Context) ([]Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, created_at FROM investors ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list investors: %w", err)
	}
	defer rows.Close()

	var investors []Investor
	for rows.Next() {
		var inv Investor
		var phone sql.NullString
		var createdAt string
		if err := rows.Scan(&inv.ID, &inv.Name, &inv.Email, &phone, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan investor: %w", err)
		}
		inv.Phone = phone.String
		inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		investors = append(investors, inv)
	}
	return investors, rows.Err()
}

// DeleteInvestor removes an investor. Their investments and transactions
// cascade at the database level.
func (s *Store) DeleteInvestor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM investors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete investor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// =============================================================================
// INVESTMENTS
// =============================================================================

// SaveInvestment persists a new investment record.
func (s *Store) SaveInvestment(ctx context.Context, inv returns.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := inv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO investments (id, investor_id, principal, start_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		inv.ID, inv.InvestorID, inv.Principal.String(),
		returns.DateOnly(inv.StartDate).Format(time.RFC3339),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save investment: %w", err)
	}
	return nil
}

// GetInvestment fetches one investment, or nil when not found.
func (s *Store) GetInvestment(ctx context.Context, id string) (*returns.Investment, error) {
	invs, err := s.queryInvestments(ctx,
		`SELECT id, investor_id, principal, start_date, created_at FROM investments WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(invs) == 0 {
		return nil, nil
	}
	return &invs[0], nil
}

// ListInvestments returns every investment, oldest start date first.
// The reconciler sweeps this list on every run.
func (s *Store) ListInvestments(ctx context.Context) ([]returns.Investment, error) {
	return s.queryInvestments(ctx,
		`SELECT id, investor_id, principal, start_date, created_at FROM investments ORDER BY start_date ASC, id ASC`)
}

// ListInvestmentsByInvestor returns one investor's investments.
func (s *Store) ListInvestmentsByInvestor(ctx context.Context, investorID string) ([]returns.Investment, error) {
	return s.queryInvestments(ctx,
		`SELECT id, investor_id, principal, start_date, created_at FROM investments WHERE investor_id = ? ORDER BY start_date ASC, id ASC`,
		investorID)
}

func (s *Store) queryInvestments(ctx context.Context, query string, args ...any) ([]returns.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	var invs []returns.Investment
	for rows.Next() {
		var inv returns.Investment
		var principal, startDate, createdAt string
		if err := rows.Scan(&inv.ID, &inv.InvestorID, &principal, &startDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		if inv.Principal, err = decimal.NewFromString(principal); err != nil {
			return nil, fmt.Errorf("corrupt principal %q on %s: %w", principal, inv.ID, err)
		}
		if inv.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
			return nil, fmt.Errorf("corrupt start date %q on %s: %w", startDate, inv.ID, err)
		}
		inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

// =============================================================================
// RECONCILIATION RUN LOG
// =============================================================================

// ReconciliationRun records one batch reconciliation for audit and display.
type ReconciliationRun struct {
	ID          string
	TriggeredBy string // "scheduler" or "manual"
	StartedAt   time.Time
	CompletedAt *time.Time
	Processed   int
	Created     int
	Skipped     int
	ErrorCount  int
	ErrorDetail string
	Status      string // running | completed | failed
}

// SaveReconciliationRun inserts or updates a run record. The scheduler
// writes the row once when a run starts and again when it finishes.
func (s *Store) SaveReconciliationRun(ctx context.Context, run ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_runs
		(id, triggered_by, started_at, completed_at, processed, created, skipped, error_count, error_detail, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			completed_at = excluded.completed_at,
			processed = excluded.processed,
			created = excluded.created,
			skipped = excluded.skipped,
			error_count = excluded.error_count,
			error_detail = excluded.error_detail,
			status = excluded.status
	`,
		run.ID, run.TriggeredBy, run.StartedAt.UTC().Format(time.RFC3339), completedAt,
		run.Processed, run.Created, run.Skipped, run.ErrorCount, nullString(run.ErrorDetail), run.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}
	return nil
}

// ListReconciliationRuns returns recent runs, newest first.
func (s *Store) ListReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, triggered_by, started_at, completed_at, processed, created, skipped, error_count, error_detail, status
		FROM reconciliation_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}
	defer rows.Close()

	var runs []ReconciliationRun
	for rows.Next() {
		var run ReconciliationRun
		var startedAt string
		var completedAt, errorDetail sql.NullString
		if err := rows.Scan(&run.ID, &run.TriggeredBy, &startedAt, &completedAt,
			&run.Processed, &run.Created, &run.Skipped, &run.ErrorCount, &errorDetail, &run.Status); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			run.CompletedAt = &t
		}
		run.ErrorDetail = errorDetail.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset wipes all data. Dev/test only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"transactions", "investments", "investors", "reconciliation_runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
