package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/internal/config"
	"github.com/atlasjobs/harvester/internal/observability"
	"github.com/atlasjobs/harvester/pkg/collector"
	"github.com/atlasjobs/harvester/pkg/dedupe"
	"github.com/atlasjobs/harvester/pkg/extractor"
	"github.com/atlasjobs/harvester/pkg/jobs"
	"github.com/atlasjobs/harvester/pkg/jobstore"
	"github.com/atlasjobs/harvester/pkg/manifest"
	"github.com/atlasjobs/harvester/pkg/pipeline"
	"github.com/atlasjobs/harvester/pkg/renderer"
	"github.com/atlasjobs/harvester/pkg/submit"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run a crawl sweep from a manifest",
	Long: `Run one crawl sweep over the employers listed in a YAML manifest.

Employers whose stored postings are all complete are skipped; the rest
are re-crawled in full. Progress is checkpointed after every employer,
so an interrupted sweep resumes where it stopped.

Example:
  harvester crawl --manifest employers.yaml
  harvester crawl --manifest employers.yaml --batch-size 5 --resume
  harvester crawl --manifest employers.yaml --dry-run`,
	RunE: runCrawl,
}

var (
	crawlManifestPath string
	crawlBatchSize    int
	crawlResume       bool
	crawlDryRun       bool
	crawlConcurrency  int
	crawlNoAI         bool
)

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVarP(&crawlManifestPath, "manifest", "m", "", "Path to employer manifest (required)")
	crawlCmd.Flags().IntVar(&crawlBatchSize, "batch-size", 0, "Max employers to process this invocation (0 = all)")
	crawlCmd.Flags().BoolVar(&crawlResume, "resume", false, "Resume from the progress checkpoint")
	crawlCmd.Flags().BoolVar(&crawlDryRun, "dry-run", false, "Report freshness decisions without crawling")
	crawlCmd.Flags().IntVar(&crawlConcurrency, "concurrency", 0, "Parallel extractions per employer (overrides config)")
	crawlCmd.Flags().BoolVar(&crawlNoAI, "no-ai", false, "Disable AI extraction, use rule-based parsing only")

	_ = crawlCmd.MarkFlagRequired("manifest")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.CLILogger

	m, err := manifest.Load(crawlManifestPath)
	if err != nil {
		logger.Error("Failed to load manifest",
			zap.String("path", crawlManifestPath),
			zap.Error(err))
		return fmt.Errorf("invalid manifest: %w", err)
	}

	logger.Debug("Loaded manifest",
		zap.String("path", crawlManifestPath),
		zap.Int("employers", len(m.Employers)))

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := jobstore.Open(ctx, jobstore.Config{
		Path:      cfg.Store.Path,
		URL:       cfg.Store.URL,
		AuthToken: cfg.Store.AuthToken,
	})
	if err != nil {
		logger.Error("Failed to open record store", zap.Error(err))
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("Failed to migrate record store", zap.Error(err))
		return err
	}

	// Dry runs stop at the freshness decision, so neither the browser
	// nor the model client is started.
	rend := renderer.Renderer(dryRunRenderer{})
	var parser extractor.Parser
	if !crawlDryRun {
		var cleanup func()
		rend, cleanup, err = buildRenderer(cfg, m)
		if err != nil {
			logger.Error("Failed to start renderer", zap.Error(err))
			return err
		}
		defer cleanup()

		var parserCleanup func()
		parser, parserCleanup, err = buildParser(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer parserCleanup()
	}

	submitter := buildSubmitter(ctx, m, logger)

	concurrency := cfg.Workers
	if m.Crawl.Concurrency > 0 {
		concurrency = m.Crawl.Concurrency
	}
	if crawlConcurrency > 0 {
		concurrency = crawlConcurrency
	}

	maxEmployers := m.Crawl.BatchSize
	if crawlBatchSize > 0 {
		maxEmployers = crawlBatchSize
	}

	ext := extractor.New(rend, parser, logger)

	orch, err := pipeline.New(pipeline.Config{
		Manifest:     m,
		Store:        store,
		Collector:    collector.New(rend, logger),
		Extractor:    ext,
		Resolver:     dedupe.New(store, logger),
		Submitter:    submitter,
		Progress:     pipeline.NewProgressFile(cfg.ProgressPath),
		Logger:       logger,
		Concurrency:  concurrency,
		MaxEmployers: maxEmployers,
		Resume:       crawlResume,
		DryRun:       crawlDryRun,
	})
	if err != nil {
		return err
	}

	summary, runErr := orch.Run(ctx)
	printSummary(summary, ext.Metrics())

	if runErr != nil {
		return runErr
	}
	if summary.Status == jobstore.RunStatusFailed {
		return fmt.Errorf("run %s failed", summary.RunID)
	}
	return nil
}

func buildRenderer(cfg *config.Config, m *manifest.Manifest) (renderer.Renderer, func(), error) {
	browser, err := renderer.NewBrowser(renderer.BrowserOptions{
		SelectorWait: cfg.Renderer.SelectorWait,
		ScrollPasses: cfg.Renderer.ScrollPasses,
		NoSandbox:    cfg.Renderer.NoSandbox,
	})
	if err != nil {
		return nil, nil, err
	}
	retrying := renderer.NewRetrying(browser, m.Crawl.RenderTimeout, m.Crawl.RateLimit)
	return retrying, func() { _ = retrying.Close() }, nil
}

func buildParser(ctx context.Context, cfg *config.Config, logger *zap.Logger) (extractor.Parser, func(), error) {
	if crawlNoAI || !cfg.AI.Enabled {
		logger.Info("AI extraction disabled, using rule-based parsing")
		return nil, func() {}, nil
	}
	gemini, err := extractor.NewGeminiParser(ctx, extractor.GeminiOptions{
		ProjectID: cfg.AI.ProjectID,
		Location:  cfg.AI.Location,
		Model:     cfg.AI.Model,
	})
	if err != nil {
		logger.Error("Failed to create AI parser", zap.Error(err))
		return nil, nil, err
	}
	return gemini, func() { _ = gemini.Close() }, nil
}

func buildSubmitter(ctx context.Context, m *manifest.Manifest, logger *zap.Logger) pipeline.BatchSubmitter {
	if m.Submit.Endpoint == "" {
		logger.Info("No submit endpoint configured, records stay local")
		return discardSubmitter{}
	}

	client := submit.NewClient(submit.ClientConfig{
		Endpoint:  m.Submit.Endpoint,
		APIKey:    submitAPIKey(m),
		Source:    m.Submit.Source,
		Timeout:   m.Submit.Timeout,
		RateLimit: m.Submit.RateLimit,
	})
	if err := client.Health(ctx); err != nil {
		logger.Warn("Downstream ingestion API not reachable, deliveries may fail",
			zap.String("endpoint", m.Submit.Endpoint),
			zap.Error(err))
	}
	return submit.NewSubmitter(client, m.Submit.Source, m.Submit.BatchSize, logger)
}

// discardSubmitter satisfies the orchestrator when delivery is turned
// off; the record store remains the only output.
type discardSubmitter struct{}

func (discardSubmitter) Add(context.Context, *jobs.Record) error { return nil }
func (discardSubmitter) Flush(context.Context) error             { return nil }
func (discardSubmitter) Stats() submit.Stats                     { return submit.Stats{} }
func (discardSubmitter) FailedBatches() []submit.FailedBatch     { return nil }

// dryRunRenderer backs dry runs, which decide per-employer actions from
// the store alone and never reach a page render.
type dryRunRenderer struct{}

func (dryRunRenderer) RenderHTML(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("rendering disabled in dry run")
}

func (dryRunRenderer) RenderText(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("rendering disabled in dry run")
}

func (dryRunRenderer) Close() error { return nil }

// submitAPIKey prefers the environment over the manifest so the key
// never has to live in a checked-in file.
func submitAPIKey(m *manifest.Manifest) string {
	if key := os.Getenv("HARVESTER_SUBMIT_API_KEY"); key != "" {
		return key
	}
	return m.Submit.APIKey
}

func printSummary(s *pipeline.Summary, ai extractor.Metrics) {
	fmt.Println()
	fmt.Printf("Run %s: %s\n", s.RunID, s.Status)
	fmt.Printf("  Employers:   %d processed, %d skipped\n", s.Counters.EmployersTotal, s.Counters.EmployersSkipped)
	fmt.Printf("  URLs:        %d collected\n", s.Counters.URLsCollected)
	fmt.Printf("  Records:     %d inserted, %d updated, %d skipped, %d rejected\n",
		s.Counters.RecordsInserted, s.Counters.RecordsUpdated,
		s.Counters.RecordsSkipped, s.Counters.RecordsRejected)
	fmt.Printf("  Delivery:    %d forwarded, %d created, %d rejected downstream, %d failed batches\n",
		s.Delivery.Forwarded, s.Delivery.Created, s.Delivery.Rejected, s.Delivery.FailedBatches)
	if ai.AICalls > 0 {
		fmt.Printf("  AI:          %d calls, %d failures\n", ai.AICalls, ai.AIFailures)
	}
	for _, e := range s.Employers {
		fmt.Printf("    %-24s %-10s %s\n", e.Employer, e.Action, e.Reason)
	}
	if len(s.Failed) > 0 {
		fmt.Printf("  Failed batches:\n")
		for _, fb := range s.Failed {
			fmt.Printf("    %d records at %s: %s\n", len(fb.URLs), fb.FailedAt.Format("15:04:05"), fb.Err)
		}
	}
}
