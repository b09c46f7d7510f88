package jobstore

import (
	"context"
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a crawl run row.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusSuccess     RunStatus = "success"
	RunStatusPartial     RunStatus = "partial"
	RunStatusInterrupted RunStatus = "interrupted"
	RunStatusFailed      RunStatus = "failed"
)

// RunCounters are the per-run aggregates persisted with run provenance.
type RunCounters struct {
	EmployersTotal   int
	EmployersSkipped int
	URLsCollected    int
	RecordsInserted  int
	RecordsUpdated   int
	RecordsSkipped   int
	RecordsRejected  int
	SubmitFailures   int
}

// BeginRun records the start of a crawl run.
func (s *Store) BeginRun(ctx context.Context, runID string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crawl_runs (run_id, started_at, status) VALUES (?, ?, ?)`,
		runID, startedAt.UTC().Format(time.RFC3339Nano), RunStatusRunning)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", runID, err)
	}
	return nil
}

// FinishRun closes out a crawl run with its final status and counters.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, endedAt time.Time, c RunCounters) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE crawl_runs SET
		   ended_at = ?, status = ?,
		   employers_total = ?, employers_skipped = ?, urls_collected = ?,
		   records_inserted = ?, records_updated = ?, records_skipped = ?,
		   records_rejected = ?, submit_failures = ?
		 WHERE run_id = ?`,
		endedAt.UTC().Format(time.RFC3339Nano), status,
		c.EmployersTotal, c.EmployersSkipped, c.URLsCollected,
		c.RecordsInserted, c.RecordsUpdated, c.RecordsSkipped,
		c.RecordsRejected, c.SubmitFailures, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}
