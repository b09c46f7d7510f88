// Package dedupe decides what happens to each candidate record:
// insert, update, or skip. The normalized source URL is the only
// identity key; textual fields are never matched on.
package dedupe

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/pkg/jobs"
	"github.com/atlasjobs/harvester/pkg/jobstore"
)

// Outcome is the engine's decision for one candidate.
type Outcome string

const (
	// Inserted means no stored record shared the URL; the candidate was
	// persisted as new.
	Inserted Outcome = "insert"
	// Updated means the candidate was more complete than the stored
	// record and replaced its content.
	Updated Outcome = "update"
	// Skipped means the stored record stands; the candidate was
	// discarded without touching the store.
	Skipped Outcome = "skip"
)

// Resolution reports what the engine did with a candidate. Record is
// the persisted state after the decision; for Skipped it is the stored
// record that won.
type Resolution struct {
	Outcome Outcome
	Record  *jobs.Record
	Reason  string
}

// Forwarded reports whether this resolution must be handed to the
// batch submitter. Skips never forward; that is what keeps unchanged
// postings from being pushed downstream on every re-crawl.
func (r Resolution) Forwarded() bool {
	return r.Outcome == Inserted || r.Outcome == Updated
}

// Engine serializes per-URL decisions against the record store.
type Engine struct {
	store  *jobstore.Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns an Engine writing through store.
func New(store *jobstore.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger, locks: make(map[string]*sync.Mutex)}
}

// Resolve decides and executes exactly one of insert, update, or skip
// for the candidate. The candidate's SourceURL must already be
// normalized. Store failures are returned as errors; they are the only
// way Resolve fails.
func (e *Engine) Resolve(ctx context.Context, candidate *jobs.Record) (Resolution, error) {
	unlock := e.lockURL(candidate.SourceURL)
	defer unlock()

	existing, err := e.store.FindByURL(ctx, candidate.SourceURL)
	if err != nil && !jobstore.IsNotFound(err) {
		return Resolution{}, fmt.Errorf("looking up %s: %w", candidate.SourceURL, err)
	}

	if existing == nil {
		return e.insert(ctx, candidate)
	}
	return e.resolveExisting(ctx, candidate, existing)
}

func (e *Engine) insert(ctx context.Context, candidate *jobs.Record) (Resolution, error) {
	err := e.store.Insert(ctx, candidate)
	if err == nil {
		return Resolution{Outcome: Inserted, Record: candidate, Reason: "new posting"}, nil
	}
	if !jobstore.IsDuplicateURL(err) {
		return Resolution{}, fmt.Errorf("inserting %s: %w", candidate.SourceURL, err)
	}

	// The lookup said the URL was absent but the uniqueness constraint
	// disagreed. That means the engine's own serialization failed
	// somewhere; surface it loudly and fall back to the update path.
	e.logger.Error("uniqueness constraint hit on insert, rerouting to update",
		zap.String("source_url", candidate.SourceURL))

	existing, ferr := e.store.FindByURL(ctx, candidate.SourceURL)
	if ferr != nil {
		return Resolution{}, fmt.Errorf("refetching %s after constraint violation: %w", candidate.SourceURL, ferr)
	}
	return e.resolveExisting(ctx, candidate, existing)
}

func (e *Engine) resolveExisting(ctx context.Context, candidate, existing *jobs.Record) (Resolution, error) {
	if existing.Complete() {
		return Resolution{Outcome: Skipped, Record: existing, Reason: "stored record already complete"}, nil
	}
	if !moreComplete(candidate, existing) {
		return Resolution{Outcome: Skipped, Record: existing, Reason: "candidate not more complete"}, nil
	}

	merged := merge(candidate, existing)
	if err := e.store.Update(ctx, merged); err != nil {
		return Resolution{}, fmt.Errorf("updating %s: %w", candidate.SourceURL, err)
	}
	return Resolution{Outcome: Updated, Record: merged, Reason: "candidate more complete"}, nil
}

// moreComplete implements the update trigger: more non-empty required
// fields, or a longer job description.
func moreComplete(candidate, existing *jobs.Record) bool {
	if candidate.CompletenessScore() > existing.CompletenessScore() {
		return true
	}
	return len(candidate.AboutJob) > len(existing.AboutJob)
}

// merge produces the post-update record: candidate fields win, but a
// field the candidate lacks never erases a stored value.
func merge(candidate, existing *jobs.Record) *jobs.Record {
	merged := *candidate
	merged.Title = pick(candidate.Title, existing.Title)
	merged.Company = pick(candidate.Company, existing.Company)
	merged.AboutCompany = pick(candidate.AboutCompany, existing.AboutCompany)
	merged.Location = pick(candidate.Location, existing.Location)
	merged.AlternateLocations = pick(candidate.AlternateLocations, existing.AlternateLocations)
	merged.EmploymentType = pick(candidate.EmploymentType, existing.EmploymentType)
	merged.AboutJob = pick(candidate.AboutJob, existing.AboutJob)
	merged.Qualifications = pick(candidate.Qualifications, existing.Qualifications)
	merged.Benefits = pick(candidate.Benefits, existing.Benefits)
	merged.Salary = pick(candidate.Salary, existing.Salary)
	merged.WorkEnvironment = pick(candidate.WorkEnvironment, existing.WorkEnvironment)
	merged.Employer = pick(candidate.Employer, existing.Employer)
	merged.SourcePlatform = pick(candidate.SourcePlatform, existing.SourcePlatform)
	return &merged
}

func pick(candidate, existing string) string {
	if candidate != "" {
		return candidate
	}
	return existing
}

func (e *Engine) lockURL(url string) func() {
	e.mu.Lock()
	lock, ok := e.locks[url]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[url] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
