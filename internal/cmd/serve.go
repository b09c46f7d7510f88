package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/internal/config"
	"github.com/atlasjobs/harvester/internal/observability"
	"github.com/atlasjobs/harvester/internal/server"
	"github.com/atlasjobs/harvester/pkg/jobstore"
	"github.com/atlasjobs/harvester/pkg/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the status HTTP server",
	Long: `Serve health, store stats, and crawl progress over HTTP.

Endpoints:
  GET /health        liveness plus store connectivity
  GET /api/stats     record totals
  GET /api/progress  current resume checkpoint

Example:
  harvester serve
  harvester serve --port 9090`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.CLILogger

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
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

	srv := server.New(cfg.Server.Host, cfg.Server.Port, server.Options{
		Store:           store,
		Progress:        pipeline.NewProgressFile(cfg.ProgressPath),
		Version:         versionInfo.Version,
		Logger:          logger,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	return srv.Start(ctx)
}
