package jobstore

import (
	"context"
	"fmt"
)

const SchemaVersion = 1

// Migrate creates (or upgrades) the jobs schema in-place.
//
// The schema supports:
// - current posting rows keyed by normalized source_url (unique)
// - crawl run provenance with per-run counters
func (s *Store) Migrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			schema_version INTEGER NOT NULL
		);`,
		`INSERT INTO schema_meta (id, schema_version)
			VALUES (1, 0)
			ON CONFLICT(id) DO NOTHING;`,

		`CREATE TABLE IF NOT EXISTS jobs (
			source_url TEXT PRIMARY KEY,
			employer TEXT NOT NULL,
			title TEXT NOT NULL,
			company TEXT,
			about_company TEXT,
			location TEXT,
			alternate_locations TEXT,
			employment_type TEXT,
			about_job TEXT,
			qualifications TEXT,
			benefits TEXT,
			salary TEXT,
			work_environment TEXT,
			source_platform TEXT,
			scraped_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_employer ON jobs(employer);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_scraped_at ON jobs(scraped_at);`,

		`CREATE TABLE IF NOT EXISTS crawl_runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			status TEXT NOT NULL,
			employers_total INTEGER NOT NULL DEFAULT 0,
			employers_skipped INTEGER NOT NULL DEFAULT 0,
			urls_collected INTEGER NOT NULL DEFAULT 0,
			records_inserted INTEGER NOT NULL DEFAULT 0,
			records_updated INTEGER NOT NULL DEFAULT 0,
			records_skipped INTEGER NOT NULL DEFAULT 0,
			records_rejected INTEGER NOT NULL DEFAULT 0,
			submit_failures INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_crawl_runs_started_at ON crawl_runs(started_at);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE schema_meta SET schema_version = ? WHERE id = 1 AND schema_version < ?`,
		SchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("bump schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
