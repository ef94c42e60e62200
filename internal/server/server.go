// Package server exposes bot statistics, project management and SDLC
// generation over a JSON HTTP API with a websocket stats feed.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/autobid/internal/database"
	"github.com/web3guy0/autobid/internal/filter"
	"github.com/web3guy0/autobid/internal/projects"
	"github.com/web3guy0/autobid/internal/ratelimit"
	"github.com/web3guy0/autobid/internal/risk"
	"github.com/web3guy0/autobid/internal/sdlc"
	"github.com/web3guy0/autobid/internal/state"
)

const (
	defaultStatsInterval = 5 * time.Second
	shutdownTimeout      = 10 * time.Second
	maxBodyBytes         = 1 << 20
)

// Deps are the components the API reads and drives. Limiter, Spam and
// Breaker may be nil.
type Deps struct {
	DB        *database.Database
	State     *state.Store
	Limiter   *ratelimit.Limiter
	Spam      *filter.SpamFilter
	Breaker   *risk.Breaker
	Projects  *projects.Manager
	SDLC      *sdlc.Service
	ExportDir string
}

// Server is the HTTP API
type Server struct {
	deps          Deps
	httpServer    *http.Server
	upgrader      websocket.Upgrader
	statsInterval time.Duration
	now           func() time.Time
}

// New creates a server listening on port
func New(port int, deps Deps) *Server {
	s := &Server{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		statsInterval: defaultStatsInterval,
		now:           time.Now,
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed and wrapped handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/ratelimit", s.handleRateLimit)
	mux.HandleFunc("GET /api/spam/stats", s.handleSpamStats)
	mux.HandleFunc("GET /api/ws", s.handleWebsocket)
	mux.HandleFunc("POST /api/breaker/reset", s.handleBreakerReset)

	// Project management
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects/sync", s.handleSyncProjects)
	mux.HandleFunc("POST /api/projects/import", s.handleImportProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}/status", s.handleProjectStatus)
	mux.HandleFunc("POST /api/projects/{id}/time", s.handleLogTime)
	mux.HandleFunc("GET /api/projects/{id}/report", s.handleReport)
	mux.HandleFunc("POST /api/projects/{id}/risk", s.handleAssessRisk)
	mux.HandleFunc("POST /api/projects/{id}/update", s.handleClientUpdate)
	mux.HandleFunc("PUT /api/tasks/{id}/status", s.handleTaskStatus)

	// SDLC
	mux.HandleFunc("POST /api/sdlc/analyze", s.handleSDLCAnalyze)
	mux.HandleFunc("POST /api/sdlc/export", s.handleSDLCExport)

	return s.withLogging(s.withCORS(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("🌐 API server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("🛑 Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("HTTP request")
	})
}

// ═══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ═══════════════════════════════════════════════════════════════════════════════

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to encode JSON response")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("❌ API request failed")
	}
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", ErrBadRequest, err)
	}
	return nil
}
