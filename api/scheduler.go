/*
scheduler.go - Automated reconciliation scheduler

PURPOSE:
  Periodically sweeps every investment through the reconciler so that
  accrued payouts are materialized into the ledger without anyone having
  to press a button. Manual triggering via the admin endpoint remains
  available; both paths run the same reconciler and record the same audit
  rows.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reconciliation is idempotent, so overlapping or redundant runs are
    harmless: already-materialized years count as skips
  - Records every run in reconciliation_runs for audit and UI display

USAGE:
  scheduler := NewReconciliationScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerReconcile endpoint (manual reconciliation)
  - ledger/reconcile.go: the reconciler itself
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nivesh/debenture-engine/ledger"
	"github.com/nivesh/debenture-engine/returns"
	"github.com/nivesh/debenture-engine/store/sqlite"
)

// ReconciliationScheduler runs periodic ledger reconciliation.
type ReconciliationScheduler struct {
	Store         *sqlite.Store
	Reconciler    *ledger.Reconciler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReconciliationScheduler creates a new scheduler sharing the handler's
// reconciler and policy.
func NewReconciliationScheduler(store *sqlite.Store, handler *Handler) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		Store:         store,
		Reconciler:    handler.Reconciler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *ReconciliationScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReconciliationScheduler) sweep() {
	ctx := context.Background()
	now := time.Now()

	invs, err := rs.Store.ListInvestments(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing investments: %v", err)
		return
	}
	if len(invs) == 0 {
		return
	}

	result := rs.Reconciler.ReconcileAll(ctx, invs, returns.DateOnly(now))
	recordRun(ctx, rs.Store, "scheduler", now.UTC(), result)

	if result.Created > 0 || len(result.Errors) > 0 {
		log.Printf("[Scheduler] Completed: %d processed, %d created, %d skipped, %d errors",
			result.Processed, result.Created, result.Skipped, len(result.Errors))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (rs *ReconciliationScheduler) RunNow() {
	rs.sweep()
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (rs *ReconciliationScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(rs.CheckInterval)
}

// recordRun writes the audit row for a batch reconciliation. Shared by the
// scheduler and the manual admin trigger. Failures here are logged but do
// not fail the reconciliation itself - the ledger rows already exist.
func recordRun(ctx context.Context, store *sqlite.Store, triggeredBy string, startedAt time.Time, result ledger.BatchResult) {
	completedAt := time.Now().UTC()
	status := "completed"
	detail := ""
	if len(result.Errors) > 0 {
		status = "failed"
		for i, e := range result.Errors {
			if i > 0 {
				detail += "; "
			}
			detail += e.Error()
		}
	}

	run := sqlite.ReconciliationRun{
		ID:          fmt.Sprintf("run-%d", startedAt.UnixNano()),
		TriggeredBy: triggeredBy,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
		Processed:   result.Processed,
		Created:     result.Created,
		Skipped:     result.Skipped,
		ErrorCount:  len(result.Errors),
		ErrorDetail: detail,
		Status:      status,
	}
	if err := store.SaveReconciliationRun(ctx, run); err != nil {
		log.Printf("[Scheduler] Failed to record reconciliation run: %v", err)
	}
}
