package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atlasjobs/harvester/pkg/jobs"
)

// Sentinel errors for record operations.
var (
	// ErrNotFound indicates no record exists for the given source URL.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateURL indicates an Insert hit the source_url uniqueness
	// constraint. This is the store's last line of defense against dedup
	// logic errors and is always worth a loud log line.
	ErrDuplicateURL = errors.New("duplicate source url")
)

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateURL returns true if the error indicates a uniqueness violation.
func IsDuplicateURL(err error) bool {
	return errors.Is(err, ErrDuplicateURL)
}

// CrawlState summarizes an employer's stored postings for the freshness
// evaluator. It is computed from current rows at call time; nothing here
// is cached or persisted.
type CrawlState struct {
	Employer   string
	Total      int
	Complete   int
	Incomplete int
}

// FindByURL returns the record stored under the given normalized URL,
// or ErrNotFound.
func (s *Store) FindByURL(ctx context.Context, sourceURL string) (*jobs.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT source_url, employer, title, company, about_company, location,
		        alternate_locations, employment_type, about_job, qualifications,
		        benefits, salary, work_environment, source_platform, scraped_at
		 FROM jobs WHERE source_url = ?`, sourceURL)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find %s: %w", sourceURL, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", sourceURL, err)
	}
	return rec, nil
}

// Insert persists a record never seen before. It fails with
// ErrDuplicateURL if a row with the same source_url already exists;
// callers must treat that as a dedup-logic bug, not a normal outcome.
func (s *Store) Insert(ctx context.Context, rec *jobs.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs
		 (source_url, employer, title, company, about_company, location,
		  alternate_locations, employment_type, about_job, qualifications,
		  benefits, salary, work_environment, source_platform, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SourceURL, rec.Employer, rec.Title, rec.Company, rec.AboutCompany,
		rec.Location, rec.AlternateLocations, rec.EmploymentType, rec.AboutJob,
		rec.Qualifications, rec.Benefits, rec.Salary, rec.WorkEnvironment,
		rec.SourcePlatform, rec.ScrapedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", rec.SourceURL, ErrDuplicateURL)
		}
		return fmt.Errorf("insert %s: %w", rec.SourceURL, err)
	}
	return nil
}

// Update overwrites the content fields of the record stored under the
// candidate's source_url. Returns ErrNotFound when no row matches.
func (s *Store) Update(ctx context.Context, rec *jobs.Record) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET
		   employer = ?, title = ?, company = ?, about_company = ?, location = ?,
		   alternate_locations = ?, employment_type = ?, about_job = ?,
		   qualifications = ?, benefits = ?, salary = ?, work_environment = ?,
		   source_platform = ?, scraped_at = ?
		 WHERE source_url = ?`,
		rec.Employer, rec.Title, rec.Company, rec.AboutCompany, rec.Location,
		rec.AlternateLocations, rec.EmploymentType, rec.AboutJob,
		rec.Qualifications, rec.Benefits, rec.Salary, rec.WorkEnvironment,
		rec.SourcePlatform, rec.ScrapedAt.UTC().Format(time.RFC3339Nano),
		rec.SourceURL)
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.SourceURL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.SourceURL, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", rec.SourceURL, ErrNotFound)
	}
	return nil
}

// CountByEmployer computes the employer's crawl state. Completeness is
// evaluated against the row's current field values so the result can
// never drift from the actual content.
func (s *Store) CountByEmployer(ctx context.Context, employer string) (CrawlState, error) {
	state := CrawlState{Employer: employer}
	row := s.db.QueryRowContext(ctx,
		`SELECT
		   COUNT(*),
		   COALESCE(SUM(CASE
		     WHEN TRIM(title) != '' AND TRIM(COALESCE(location, '')) != ''
		      AND TRIM(COALESCE(employment_type, '')) != ''
		      AND LENGTH(TRIM(COALESCE(about_job, ''))) > ?
		     THEN 1 ELSE 0 END), 0)
		 FROM jobs WHERE employer = ?`,
		jobs.MinAboutJobLen, employer)

	if err := row.Scan(&state.Total, &state.Complete); err != nil {
		return state, fmt.Errorf("count employer %s: %w", employer, err)
	}
	state.Incomplete = state.Total - state.Complete
	return state, nil
}

// ListByEmployer returns all stored records for an employer, ordered by URL.
func (s *Store) ListByEmployer(ctx context.Context, employer string) ([]*jobs.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_url, employer, title, company, about_company, location,
		        alternate_locations, employment_type, about_job, qualifications,
		        benefits, salary, work_environment, source_platform, scraped_at
		 FROM jobs WHERE employer = ? ORDER BY source_url`, employer)
	if err != nil {
		return nil, fmt.Errorf("list employer %s: %w", employer, err)
	}
	defer rows.Close()

	var out []*jobs.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list employer %s: %w", employer, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Totals returns store-wide counts for the stats endpoint.
func (s *Store) Totals(ctx context.Context) (total int, employers int, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT employer) FROM jobs`)
	if err := row.Scan(&total, &employers); err != nil {
		return 0, 0, fmt.Errorf("store totals: %w", err)
	}
	return total, employers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*jobs.Record, error) {
	var rec jobs.Record
	var scrapedAt string
	var company, aboutCompany, location, altLocations, empType sql.NullString
	var aboutJob, qualifications, benefits, salary, workEnv, platform sql.NullString

	err := row.Scan(&rec.SourceURL, &rec.Employer, &rec.Title, &company,
		&aboutCompany, &location, &altLocations, &empType, &aboutJob,
		&qualifications, &benefits, &salary, &workEnv, &platform, &scrapedAt)
	if err != nil {
		return nil, err
	}

	rec.Company = company.String
	rec.AboutCompany = aboutCompany.String
	rec.Location = location.String
	rec.AlternateLocations = altLocations.String
	rec.EmploymentType = empType.String
	rec.AboutJob = aboutJob.String
	rec.Qualifications = qualifications.String
	rec.Benefits = benefits.String
	rec.Salary = salary.String
	rec.WorkEnvironment = workEnv.String
	rec.SourcePlatform = platform.String

	ts, err := time.Parse(time.RFC3339Nano, scrapedAt)
	if err != nil {
		return nil, fmt.Errorf("parse scraped_at %q: %w", scrapedAt, err)
	}
	rec.ScrapedAt = ts

	return &rec, nil
}

// isUniqueViolation matches the uniqueness error text emitted by both the
// modernc and libsql drivers. Neither exposes a stable typed error for it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint violation")
}
