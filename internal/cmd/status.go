package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/internal/config"
	"github.com/atlasjobs/harvester/internal/observability"
	"github.com/atlasjobs/harvester/pkg/jobstore"
	"github.com/atlasjobs/harvester/pkg/manifest"
	"github.com/atlasjobs/harvester/pkg/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record store totals and the crawl checkpoint",
	Long: `Show how many postings the record store holds, per-employer
completeness when a manifest is given, and the current resume
checkpoint.

Example:
  harvester status
  harvester status --manifest employers.yaml`,
	RunE: runStatus,
}

var statusManifestPath string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusManifestPath, "manifest", "m", "", "Manifest for per-employer breakdown")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.CLILogger

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
		return err
	}

	total, employers, err := store.Totals(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Store:      %s\n", storeLabel(cfg))
	fmt.Printf("Records:    %d across %d employers\n", total, employers)

	if statusManifestPath != "" {
		m, err := manifest.Load(statusManifestPath)
		if err != nil {
			return fmt.Errorf("invalid manifest: %w", err)
		}
		fmt.Println()
		fmt.Printf("%-24s %8s %10s %12s\n", "EMPLOYER", "TOTAL", "COMPLETE", "INCOMPLETE")
		for _, emp := range m.Employers {
			state, err := store.CountByEmployer(ctx, emp.Name)
			if err != nil {
				return err
			}
			fmt.Printf("%-24s %8d %10d %12d\n", emp.Name, state.Total, state.Complete, state.Incomplete)
		}
	}

	progress, err := pipeline.NewProgressFile(cfg.ProgressPath).Load()
	if err != nil {
		return err
	}
	fmt.Println()
	if len(progress.Completed) == 0 {
		fmt.Println("Checkpoint: none (next sweep starts from the top)")
		return nil
	}
	fmt.Printf("Checkpoint: run %s, %d employers completed\n", progress.RunID, len(progress.Completed))
	for _, name := range progress.Completed {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func storeLabel(cfg *config.Config) string {
	if cfg.Store.URL != "" {
		return cfg.Store.URL
	}
	return cfg.Store.Path
}
