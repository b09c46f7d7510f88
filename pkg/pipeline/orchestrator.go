// Package pipeline orchestrates a crawl run: employer selection,
// freshness evaluation, collection, extraction, dedup resolution,
// batch submission, and durable checkpointing.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/pkg/collector"
	"github.com/atlasjobs/harvester/pkg/dedupe"
	"github.com/atlasjobs/harvester/pkg/extractor"
	"github.com/atlasjobs/harvester/pkg/freshness"
	"github.com/atlasjobs/harvester/pkg/jobs"
	"github.com/atlasjobs/harvester/pkg/jobstore"
	"github.com/atlasjobs/harvester/pkg/manifest"
	"github.com/atlasjobs/harvester/pkg/submit"
)

// URLCollector discovers posting URLs for one employer.
type URLCollector interface {
	Collect(ctx context.Context, emp manifest.Employer) (*collector.Result, error)
}

// RecordExtractor turns one posting URL into a candidate record.
type RecordExtractor interface {
	Extract(ctx context.Context, url, employerName string) (*jobs.Record, error)
}

// Resolver decides insert, update, or skip for a candidate.
type Resolver interface {
	Resolve(ctx context.Context, candidate *jobs.Record) (dedupe.Resolution, error)
}

// BatchSubmitter accumulates forwarded records and delivers them.
type BatchSubmitter interface {
	Add(ctx context.Context, rec *jobs.Record) error
	Flush(ctx context.Context) error
	Stats() submit.Stats
	FailedBatches() []submit.FailedBatch
}

// Config wires an Orchestrator together.
type Config struct {
	Manifest  *manifest.Manifest
	Store     *jobstore.Store
	Collector URLCollector
	Extractor RecordExtractor
	Resolver  Resolver
	Submitter BatchSubmitter
	Progress  *ProgressFile
	Logger    *zap.Logger

	// Concurrency bounds parallel extraction within one employer.
	Concurrency int
	// MaxEmployers caps how many employers one invocation processes;
	// zero means all of them. Reaching the cap is a normal stop.
	MaxEmployers int
	// Resume continues from the progress checkpoint instead of
	// starting a fresh sweep.
	Resume bool
	// DryRun evaluates freshness and reports decisions without
	// crawling, persisting, or submitting.
	DryRun bool
}

// EmployerOutcome summarizes what happened to one employer.
type EmployerOutcome struct {
	Employer string
	Action   freshness.Action
	Reason   string

	URLs     int
	Inserted int
	Updated  int
	Skipped  int
	Rejected int
	Failures int
}

// Summary is the per-run report, always produced regardless of how the
// run ended.
type Summary struct {
	RunID     string
	Status    jobstore.RunStatus
	StartedAt time.Time
	EndedAt   time.Time
	Employers []EmployerOutcome
	Counters  jobstore.RunCounters
	Delivery  submit.Stats
	Failed    []submit.FailedBatch
}

// Orchestrator drives one crawl run.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger
}

// New validates the wiring and returns an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Manifest == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Collector == nil || cfg.Extractor == nil || cfg.Resolver == nil || cfg.Submitter == nil {
		return nil, fmt.Errorf("collector, extractor, resolver, and submitter are required")
	}
	if cfg.Progress == nil {
		return nil, fmt.Errorf("progress file is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, logger: cfg.Logger}, nil
}

// Run executes the crawl. Failures local to one URL or employer never
// abort the run; only store or checkpoint failures do. The returned
// Summary is valid even when err is non-nil.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	progress, err := o.loadProgress()
	if err != nil {
		summary.Status = jobstore.RunStatusFailed
		return summary, err
	}
	progress.RunID = summary.RunID
	if progress.StartedAt.IsZero() {
		progress.StartedAt = summary.StartedAt
	}

	if !o.cfg.DryRun {
		if err := o.cfg.Store.BeginRun(ctx, summary.RunID, summary.StartedAt); err != nil {
			summary.EndedAt = time.Now().UTC()
			summary.Status = o.finalStatus(ctx, err, summary)
			return summary, err
		}
	}

	runErr := o.sweep(ctx, progress, summary)

	if err := o.cfg.Submitter.Flush(ctx); err != nil && runErr == nil {
		runErr = err
	}

	summary.Delivery = o.cfg.Submitter.Stats()
	summary.Failed = o.cfg.Submitter.FailedBatches()
	summary.Counters.SubmitFailures = summary.Delivery.FailedBatches
	summary.EndedAt = time.Now().UTC()
	summary.Status = o.finalStatus(ctx, runErr, summary)

	if !o.cfg.DryRun {
		// Close the run row even when the crawl context was cancelled.
		finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.cfg.Store.FinishRun(finishCtx, summary.RunID, summary.Status, summary.EndedAt, summary.Counters); err != nil {
			o.logger.Error("recording run outcome failed", zap.Error(err))
		}
	}

	o.logSummary(summary)
	return summary, runErr
}

func (o *Orchestrator) loadProgress() (*RunProgress, error) {
	if o.cfg.Resume {
		return o.cfg.Progress.Load()
	}
	if !o.cfg.DryRun {
		if err := o.cfg.Progress.Clear(); err != nil {
			return nil, fmt.Errorf("clearing stale checkpoint: %w", err)
		}
	}
	return &RunProgress{}, nil
}

func (o *Orchestrator) sweep(ctx context.Context, progress *RunProgress, summary *Summary) error {
	processed := 0
	for _, emp := range o.cfg.Manifest.Employers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if progress.Done(emp.Name) {
			continue
		}
		if o.cfg.MaxEmployers > 0 && processed >= o.cfg.MaxEmployers {
			o.logger.Info("employer limit reached, stopping sweep",
				zap.Int("limit", o.cfg.MaxEmployers))
			break
		}

		outcome, err := o.processEmployer(ctx, emp)
		summary.Employers = append(summary.Employers, outcome)
		summary.Counters.EmployersTotal++
		accumulate(&summary.Counters, outcome)
		if err != nil {
			return err
		}
		processed++

		if o.cfg.DryRun {
			continue
		}

		// Employer boundary: deliver what accumulated, then advance the
		// resume pointer. Checkpoint failure is fatal; without durable
		// state a restart would redo finished employers.
		if err := o.cfg.Submitter.Flush(ctx); err != nil {
			return err
		}
		progress.MarkDone(emp.Name)
		if err := o.cfg.Progress.Save(progress); err != nil {
			return fmt.Errorf("checkpointing after %s: %w", emp.Name, err)
		}
	}

	if !o.cfg.DryRun && len(progress.Completed) == len(o.cfg.Manifest.Employers) {
		// Sweep covered everyone; reset the pointer for the next one.
		if err := o.cfg.Progress.Clear(); err != nil {
			return fmt.Errorf("clearing finished checkpoint: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) processEmployer(ctx context.Context, emp manifest.Employer) (EmployerOutcome, error) {
	outcome := EmployerOutcome{Employer: emp.Name}

	state, err := o.cfg.Store.CountByEmployer(ctx, emp.Name)
	if err != nil {
		return outcome, fmt.Errorf("evaluating freshness for %s: %w", emp.Name, err)
	}
	decision := freshness.Evaluate(state)
	outcome.Action = decision.Action
	outcome.Reason = decision.Reason

	o.logger.Info("employer selected",
		zap.String("employer", emp.Name),
		zap.String("action", string(decision.Action)),
		zap.String("reason", decision.Reason))

	if decision.Action == freshness.Skip {
		return outcome, nil
	}
	if o.cfg.DryRun {
		return outcome, nil
	}

	result, err := o.cfg.Collector.Collect(ctx, emp)
	if err != nil {
		return outcome, err
	}
	outcome.URLs = len(result.URLs)
	outcome.Failures += len(result.Errors)

	if err := o.crawlURLs(ctx, emp, result.URLs, &outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// crawlURLs extracts and resolves every posting URL through a bounded
// worker pool. Store failures abort; everything else is counted and
// absorbed.
func (o *Orchestrator) crawlURLs(ctx context.Context, emp manifest.Employer, urls []string, outcome *EmployerOutcome) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fatalErr error
	)
	sem := make(chan struct{}, o.cfg.Concurrency)

	for _, url := range urls {
		if ctx.Err() != nil {
			break
		}
		mu.Lock()
		stop := fatalErr != nil
		mu.Unlock()
		if stop {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			defer func() { <-sem }()
			o.crawlOne(ctx, emp, url, outcome, &mu, &fatalErr)
		}(url)
	}
	wg.Wait()

	if fatalErr != nil {
		return fatalErr
	}
	return ctx.Err()
}

func (o *Orchestrator) crawlOne(ctx context.Context, emp manifest.Employer, url string, outcome *EmployerOutcome, mu *sync.Mutex, fatalErr *error) {
	rec, err := o.cfg.Extractor.Extract(ctx, url, emp.Name)
	if err != nil {
		mu.Lock()
		defer mu.Unlock()
		if extractor.IsRejection(err) {
			outcome.Rejected++
			o.logger.Debug("candidate rejected", zap.String("url", url), zap.Error(err))
		} else {
			outcome.Failures++
			o.logger.Warn("extraction failed", zap.String("url", url), zap.Error(err))
		}
		return
	}

	res, err := o.cfg.Resolver.Resolve(ctx, rec)
	if err != nil {
		// Store trouble. Continuing without durable writes risks
		// unbounded duplicate work, so the run stops here.
		mu.Lock()
		if *fatalErr == nil {
			*fatalErr = err
		}
		mu.Unlock()
		return
	}

	mu.Lock()
	defer mu.Unlock()
	switch res.Outcome {
	case dedupe.Inserted:
		outcome.Inserted++
	case dedupe.Updated:
		outcome.Updated++
	case dedupe.Skipped:
		outcome.Skipped++
	}
	if res.Forwarded() {
		if err := o.cfg.Submitter.Add(ctx, res.Record); err != nil && *fatalErr == nil {
			*fatalErr = err
		}
	}
}

func accumulate(c *jobstore.RunCounters, outcome EmployerOutcome) {
	if outcome.Action == freshness.Skip {
		c.EmployersSkipped++
	}
	c.URLsCollected += outcome.URLs
	c.RecordsInserted += outcome.Inserted
	c.RecordsUpdated += outcome.Updated
	c.RecordsSkipped += outcome.Skipped
	c.RecordsRejected += outcome.Rejected
}

func (o *Orchestrator) finalStatus(ctx context.Context, runErr error, summary *Summary) jobstore.RunStatus {
	switch {
	case ctx.Err() != nil:
		return jobstore.RunStatusInterrupted
	case runErr != nil:
		return jobstore.RunStatusFailed
	case summary.Delivery.FailedBatches > 0 || employerFailures(summary) > 0:
		return jobstore.RunStatusPartial
	default:
		return jobstore.RunStatusSuccess
	}
}

func employerFailures(summary *Summary) int {
	total := 0
	for _, e := range summary.Employers {
		total += e.Failures
	}
	return total
}

func (o *Orchestrator) logSummary(summary *Summary) {
	o.logger.Info("run finished",
		zap.String("run_id", summary.RunID),
		zap.String("status", string(summary.Status)),
		zap.Int("employers", summary.Counters.EmployersTotal),
		zap.Int("employers_skipped", summary.Counters.EmployersSkipped),
		zap.Int("urls_collected", summary.Counters.URLsCollected),
		zap.Int("inserted", summary.Counters.RecordsInserted),
		zap.Int("updated", summary.Counters.RecordsUpdated),
		zap.Int("skipped", summary.Counters.RecordsSkipped),
		zap.Int("rejected", summary.Counters.RecordsRejected),
		zap.Int("failed_batches", summary.Counters.SubmitFailures),
		zap.Duration("elapsed", summary.EndedAt.Sub(summary.StartedAt)))
}
