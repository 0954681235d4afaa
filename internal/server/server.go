// Package server exposes generated idea reports over HTTP. It loads the
// JSON report into memory and reloads it whenever a pipeline run rewrites
// the file.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"ideagen/internal/report"
	"ideagen/internal/watcher"
)

// Server serves the scored cluster report over HTTP.
type Server struct {
	addr       string
	reportPath string
	router     chi.Router
	httpServer *http.Server
	watcher    *watcher.Watcher
	startTime  time.Time

	mu       sync.RWMutex
	clusters []report.ScoredCluster
	loadedAt time.Time
}

// New creates a server that serves the report at reportPath on addr.
func New(addr, reportPath string) *Server {
	s := &Server{
		addr:       addr,
		reportPath: reportPath,
		router:     chi.NewRouter(),
		startTime:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/clusters", s.handleListClusters)
		r.Get("/clusters/{clusterID}", s.handleGetCluster)
	})
}

// Start loads the report, begins watching it for rewrites, and serves
// HTTP until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.reload(); err != nil {
		// A missing report is not fatal: the server answers with an
		// empty list until a pipeline run produces one.
		log.Warn().Err(err).Str("path", s.reportPath).Msg("Report not loaded yet")
	}

	w, err := watcher.New(s.reportPath, func() {
		if err := s.reload(); err != nil {
			log.Error().Err(err).Msg("Failed to reload report")
		}
	})
	if err != nil {
		return fmt.Errorf("create report watcher: %w", err)
	}
	s.watcher = w
	if err := s.watcher.Start(); err != nil {
		return fmt.Errorf("start report watcher: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Str("report", s.reportPath).Msg("Report server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		_ = s.watcher.Stop()
		return err
	}
}

func (s *Server) shutdown() error {
	log.Info().Msg("Shutting down report server")
	if err := s.watcher.Stop(); err != nil {
		log.Warn().Err(err).Msg("Failed to stop report watcher")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Router exposes the HTTP handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// reload reads the report file and swaps the in-memory cluster list.
func (s *Server) reload() error {
	data, err := os.ReadFile(s.reportPath)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	var clusters []report.ScoredCluster
	if err := json.Unmarshal(data, &clusters); err != nil {
		return fmt.Errorf("decode report %s: %w", s.reportPath, err)
	}

	s.mu.Lock()
	s.clusters = clusters
	s.loadedAt = time.Now()
	s.mu.Unlock()

	log.Info().Int("clusters", len(clusters)).Str("path", s.reportPath).Msg("Report loaded")
	return nil
}

// snapshot returns the currently loaded clusters and their load time.
func (s *Server) snapshot() ([]report.ScoredCluster, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clusters, s.loadedAt
}
