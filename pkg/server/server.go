// Package server exposes the stores over a JSON HTTP API.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/HelioWoi/liveplan3/pkg/bridge"
	"github.com/HelioWoi/liveplan3/pkg/config"
	"github.com/HelioWoi/liveplan3/pkg/goals"
	"github.com/HelioWoi/liveplan3/pkg/importer"
	"github.com/HelioWoi/liveplan3/pkg/ledger"
	"github.com/HelioWoi/liveplan3/pkg/weekly"
)

type Server struct {
	config   *config.Config
	logger   *log.Logger
	mux      *http.ServeMux
	ledger   *ledger.Store
	weekly   *weekly.Store
	goals    *goals.Store
	bridge   *bridge.Bridge
	importer *importer.Importer
}

func New(cfg *config.Config, logger *log.Logger, ledgerStore *ledger.Store, weeklyStore *weekly.Store, goalStore *goals.Store, br *bridge.Bridge) *Server {
	return &Server{
		config:   cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		ledger:   ledgerStore,
		weekly:   weeklyStore,
		goals:    goalStore,
		bridge:   br,
		importer: importer.New(logger),
	}
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.setupRoutes()
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/transactions", s.withLogging(s.handleListTransactions))
	s.mux.HandleFunc("POST /api/transactions", s.withLogging(s.handleCreateTransaction))
	s.mux.HandleFunc("PATCH /api/transactions/{id}", s.withLogging(s.handleUpdateTransaction))
	s.mux.HandleFunc("DELETE /api/transactions/{id}", s.withLogging(s.handleDeleteTransaction))
	s.mux.HandleFunc("POST /api/transactions/{id}/pay", s.withLogging(s.handleMarkPaid))

	s.mux.HandleFunc("POST /api/import", s.withLogging(s.handleImport))
	s.mux.HandleFunc("GET /api/export", s.withLogging(s.handleExport))

	s.mux.HandleFunc("GET /api/weekly/entries", s.withLogging(s.handleListEntries))
	s.mux.HandleFunc("POST /api/weekly/entries", s.withLogging(s.handleAddEntry))
	s.mux.HandleFunc("PATCH /api/weekly/entries/{id}", s.withLogging(s.handleUpdateEntry))
	s.mux.HandleFunc("DELETE /api/weekly/entries/{id}", s.withLogging(s.handleDeleteEntry))
	s.mux.HandleFunc("POST /api/weekly/entries/{id}/move", s.withLogging(s.handleMoveEntry))

	s.mux.HandleFunc("POST /api/reconcile", s.withLogging(s.handleReconcile))
	s.mux.HandleFunc("POST /api/sync", s.withLogging(s.handleSyncPending))

	s.mux.HandleFunc("GET /api/goals", s.withLogging(s.handleListGoals))
	s.mux.HandleFunc("POST /api/goals", s.withLogging(s.handleCreateGoal))
	s.mux.HandleFunc("DELETE /api/goals/{id}", s.withLogging(s.handleDeleteGoal))
	s.mux.HandleFunc("POST /api/goals/{id}/contribute", s.withLogging(s.handleContribute))

	s.mux.HandleFunc("GET /api/opening-balance", s.withLogging(s.handleGetOpeningBalance))
	s.mux.HandleFunc("PUT /api/opening-balance", s.withLogging(s.handleSetOpeningBalance))
}

// --- helpers ---

// decodeJSON strictly decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log requests and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
