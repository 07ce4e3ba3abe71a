// Package server assembles the HTTP surface of the change feed and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/notex/internal/clock"
	"github.com/iudanet/notex/internal/server/config"
	"github.com/iudanet/notex/internal/server/feed"
	"github.com/iudanet/notex/internal/server/handlers"
	"github.com/iudanet/notex/internal/server/middleware"
	"github.com/iudanet/notex/internal/server/mutation"
	"github.com/iudanet/notex/internal/server/notify"
	"github.com/iudanet/notex/internal/server/storage/sqlite"
)

const (
	healthPath = "/api/v1/health"
	wsPath     = "/api/v1/sync/ws"
)

// Server owns the storage, the version clock and the HTTP server
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *sqlite.Storage
	clock   *clock.Clock
	hub     *notify.Hub
	handler http.Handler
}

// New opens the database, seeds the version clock from the highest persisted
// stamp and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	store, err := sqlite.New(ctx, cfg.DBPath, sqlite.WithEnforcedReferences(cfg.EnforceReferences))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	start, err := store.MaxSyncVersion(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to read max sync version: %w", err)
	}

	clk := clock.New(clock.NewCounter(start), start)
	hub := notify.NewHub(start, logger)

	log := mutation.NewLog(store, clk, logger,
		mutation.WithDeletePolicy(cfg.DeletePolicy),
		mutation.WithNotifier(hub),
	)
	engine := feed.NewEngine(store, clk, logger)

	mux := http.NewServeMux()
	handlers.NewResourceHandler(logger, log, store).Register(mux)
	mux.HandleFunc("GET /api/v1/sync", handlers.NewSyncHandler(logger, engine, cfg.PageSize, cfg.MaxPageSize).HandleSync)
	mux.HandleFunc("GET "+wsPath, hub.ServeWS)
	mux.HandleFunc("GET "+healthPath, handlers.NewHealthHandler(logger, store, clk.Horizon, version).Health)

	// request id снаружи, чтобы паника и журнал видели один и тот же id
	handler := middleware.Chain(mux,
		middleware.AssignRequestID,
		middleware.Recover(logger),
		middleware.AccessLog(logger, healthPath, wsPath),
	)

	logger.Info("Storage opened",
		"db", cfg.DBPath,
		"sync_version", start,
		"delete_policy", log.Policy(),
		"enforce_references", cfg.EnforceReferences)

	return &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		clock:   clk,
		hub:     hub,
		handler: handler,
	}, nil
}

// Handler returns the HTTP handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is done, then shuts down gracefully: new
// mutations are refused, in-flight requests finish, the database is closed.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	// Websocket соединения закрываются хабом, остальные запросы дорабатывают
	s.clock.Close()
	stopHub()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to shutdown http server: %w", err))
	}

	// Незавершённые резервирования останутся дырами в последовательности
	if n := s.clock.Pending(); n > 0 {
		s.logger.Warn("Clock closed with unresolved reservations", "pending", n)
	}

	return errors.Join(runErr, s.Close())
}

// Close releases the storage
func (s *Server) Close() error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
