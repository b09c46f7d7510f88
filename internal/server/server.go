// Package server exposes the status HTTP API: health, store stats, and
// crawl progress.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/internal/server/handlers"
	"github.com/atlasjobs/harvester/pkg/jobstore"
	"github.com/atlasjobs/harvester/pkg/pipeline"
)

// Options wires the server's dependencies.
type Options struct {
	Store    *jobstore.Store
	Progress *pipeline.ProgressFile
	Version  string
	Logger   *zap.Logger

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server is the status HTTP server.
type Server struct {
	host   string
	port   int
	opts   Options
	router chi.Router
	logger *zap.Logger
}

// New builds a Server listening on host:port.
func New(host string, port int, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		host:   host,
		port:   port,
		opts:   opts,
		logger: opts.Logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) Port() int {
	return s.port
}

// Handler returns the HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	health := handlers.NewHealthManager(s.opts.Version)
	if s.opts.Store != nil {
		health.RegisterChecker("store", storeChecker{s.opts.Store})
	}
	r.Get("/health", health.HealthHandler)

	if s.opts.Store != nil {
		r.Get("/api/stats", handlers.StatsHandler(s.opts.Store, s.logger))
	}
	if s.opts.Progress != nil {
		r.Get("/api/progress", handlers.ProgressHandler(s.opts.Progress, s.logger))
	}

	return r
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down status server: %w", err)
	}
	return nil
}

// storeChecker adapts the record store's ping to the health interface.
type storeChecker struct {
	store *jobstore.Store
}

func (c storeChecker) CheckHealth(ctx context.Context) error {
	return c.store.Ping(ctx)
}
