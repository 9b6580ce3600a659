// Package dashboard serves a small read-only HTTP API over the latest
// results, so a long optimization can be watched from a browser or curl.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/backtest"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/optimize"
	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/storage"
)

// Server exposes the latest backtest and optimization results. Results are
// published with Publish* and served as JSON; the store, when present, adds
// the persisted run history.
type Server struct {
	router *chi.Mux
	server *http.Server
	store  *storage.Store
	logger *logrus.Logger
	addr   string

	mu       sync.RWMutex
	report   *optimize.Report
	backtest *backtest.Result
}

// NewServer creates a dashboard listening on addr. store may be nil when no
// database is configured.
func NewServer(addr string, store *storage.Store, logger *logrus.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		store:  store,
		logger: logger,
		addr:   addr,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/report", s.handleGetReport)
	s.router.Get("/api/backtest", s.handleGetBacktest)
	s.router.Get("/api/runs", s.handleGetRuns)
}

// PublishReport replaces the optimization report served by /api/report.
func (s *Server) PublishReport(report *optimize.Report) {
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
}

// PublishBacktest replaces the backtest result served by /api/backtest.
func (s *Server) PublishBacktest(result *backtest.Result) {
	s.mu.Lock()
	s.backtest = result
	s.mu.Unlock()
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Infof("Starting dashboard server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGetReport(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()

	if report == nil {
		http.Error(w, "no optimization has completed yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, report)
}

func (s *Server) handleGetBacktest(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	result := s.backtest
	s.mu.RUnlock()

	if result == nil {
		http.Error(w, "no backtest has completed yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, result)
}

func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run history requires a configured database", http.StatusNotFound)
		return
	}

	runs, err := s.store.Runs(r.Context(), 50)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load run history")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, runs)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
