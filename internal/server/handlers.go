package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/autobid/internal/database"
	"github.com/web3guy0/autobid/internal/freelancer"
	"github.com/web3guy0/autobid/internal/risk"
	"github.com/web3guy0/autobid/internal/sdlc"
)

var validate = validator.New()

// StatusRequest changes a project or task status
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TimeRequest logs hours against a project
type TimeRequest struct {
	TaskID      *uint   `json:"task_id,omitempty"`
	Hours       float64 `json:"hours" validate:"required,gt=0"`
	Description string  `json:"description"`
	User        string  `json:"user"`
}

// ImportRequest imports an awarded marketplace project
type ImportRequest struct {
	FreelancerID int64 `json:"freelancer_id" validate:"required,gt=0"`
}

// UpdateRequest sends a client progress update
type UpdateRequest struct {
	Type string `json:"type"`
}

// AnalyzeRequest generates SDLC documents for a description. Budgets are USD.
type AnalyzeRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description" validate:"required"`
	Budget      float64 `json:"budget" validate:"gte=0"`
	MaxBudget   float64 `json:"max_budget" validate:"omitempty,gtefield=Budget"`
}

// AnalyzeResponse is the generated documents plus a suggested bid in USD
type AnalyzeResponse struct {
	*sdlc.Documents
	RecommendedBid decimal.Decimal `json:"recommended_bid"`
}

// ExportRequest generates and writes SDLC documents. With ProjectID set the
// files are also attached to that managed project.
type ExportRequest struct {
	AnalyzeRequest
	Format    string `json:"format" validate:"omitempty,oneof=json markdown"`
	ProjectID uint   `json:"project_id,omitempty"`
}

func readRequest(w http.ResponseWriter, r *http.Request, v any) error {
	if err := decodeBody(w, r, v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrBadRequest, r.PathValue("id"))
	}
	return uint(id), nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// BOT STATUS
// ═══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

// StatsResponse combines the live bot state with persisted totals
type StatsResponse struct {
	Bot      any            `json:"bot,omitempty"`
	Database map[string]any `json:"database,omitempty"`
	Breaker  *risk.Stats    `json:"breaker,omitempty"`
}

func (s *Server) collectStats(r *http.Request) (StatsResponse, error) {
	var resp StatsResponse
	if s.deps.State != nil {
		snap, err := s.deps.State.Snapshot(r.Context())
		if err != nil {
			return resp, err
		}
		resp.Bot = snap
	}
	if s.deps.DB != nil {
		stats, err := s.deps.DB.GetStats()
		if err != nil {
			return resp, err
		}
		resp.Database = stats
	}
	if s.deps.Breaker != nil {
		st := s.deps.Breaker.Stats()
		resp.Breaker = &st
	}
	return resp, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.collectStats(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	if s.deps.Limiter == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "rate limiter not configured"})
		return
	}
	s.jsonResponse(w, http.StatusOK, s.deps.Limiter.Status())
}

func (s *Server) handleSpamStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Spam == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "spam filter not configured"})
		return
	}
	s.jsonResponse(w, http.StatusOK, s.deps.Spam.Stats())
}

func (s *Server) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	if s.deps.Breaker == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "circuit breaker not configured"})
		return
	}
	wasTripped := s.deps.Breaker.IsTripped()
	if wasTripped {
		s.deps.Breaker.ForceReset()
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"was_tripped": wasTripped,
		"breaker":     s.deps.Breaker.Stats(),
	})
}

// ═══════════════════════════════════════════════════════════════════════════════
// PROJECT MANAGEMENT
// ═══════════════════════════════════════════════════════════════════════════════

func (s *Server) projectsEnabled(w http.ResponseWriter) bool {
	if s.deps.Projects == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "project manager not configured"})
		return false
	}
	return true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	d, err := s.deps.Projects.Dashboard()
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, d)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	var statuses []string
	if q := r.URL.Query().Get("status"); q != "" {
		statuses = strings.Split(q, ",")
	}
	list, err := s.deps.Projects.List(statuses...)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, list)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	p, err := s.deps.Projects.Get(id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleSyncProjects(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	imported, err := s.deps.Projects.SyncAwarded(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"imported": len(imported), "projects": imported})
}

func (s *Server) handleImportProject(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	var req ImportRequest
	if err := readRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	p, err := s.deps.Projects.ImportProject(r.Context(), req.FreelancerID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, p)
}

func (s *Server) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	var req StatusRequest
	if err := readRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := s.deps.Projects.UpdateProjectStatus(id, req.Status); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	var req StatusRequest
	if err := readRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := s.deps.Projects.UpdateTaskStatus(id, req.Status); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}

func (s *Server) handleLogTime(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	var req TimeRequest
	if err := readRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := s.deps.Projects.LogTime(id, req.TaskID, req.Hours, req.Description, req.User); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{"project_id": id, "hours": req.Hours})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	report, err := s.deps.Projects.Report(id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(report)); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to write report")
	}
}

func (s *Server) handleAssessRisk(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	a, err := s.deps.Projects.AssessRisk(id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, a)
}

func (s *Server) handleClientUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.projectsEnabled(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	var req UpdateRequest
	if r.ContentLength != 0 {
		if err := readRequest(w, r, &req); err != nil {
			s.errorResponse(w, err)
			return
		}
	}
	if req.Type == "" {
		req.Type = "progress"
	}
	if err := s.deps.Projects.SendClientUpdate(r.Context(), id, req.Type); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"project_id": id, "sent": true})
}

// ═══════════════════════════════════════════════════════════════════════════════
// SDLC
// ═══════════════════════════════════════════════════════════════════════════════

func (s *Server) sdlcEnabled(w http.ResponseWriter) bool {
	if s.deps.SDLC == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "sdlc service not configured"})
		return false
	}
	return true
}

func (s *Server) handleSDLCAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.sdlcEnabled(w) {
		return
	}
	var req AnalyzeRequest
	if err := readRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	docs := s.deps.SDLC.Generate(r.Context(), req.Title, req.Description, req.Budget)
	p := &freelancer.Project{
		Title:       req.Title,
		Description: req.Description,
		Budget: freelancer.Budget{
			Minimum: decimal.NewFromFloat(req.Budget),
			Maximum: decimal.NewFromFloat(req.MaxBudget),
		},
		Currency: freelancer.Currency{Code: "USD"},
	}
	s.jsonResponse(w, http.StatusOK, AnalyzeResponse{
		Documents:      docs,
		RecommendedBid: s.deps.SDLC.Recommend(p, docs.Analysis),
	})
}

func (s *Server) handleSDLCExport(w http.ResponseWriter, r *http.Request) {
	if !s.sdlcEnabled(w) {
		return
	}
	var req ExportRequest
	if err := readRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if req.Format == "" {
		req.Format = sdlc.FormatMarkdown
	}
	if req.ProjectID != 0 {
		if s.deps.DB == nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "database not configured"})
			return
		}
		if _, err := s.deps.DB.GetManagedProject(req.ProjectID); err != nil {
			s.errorResponse(w, err)
			return
		}
	}

	docs := s.deps.SDLC.Generate(r.Context(), req.Title, req.Description, req.Budget)
	files, err := sdlc.Export(docs, s.deps.ExportDir, req.Format, s.now())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	log.Info().Str("doc_id", docs.ID).Str("format", req.Format).Msg("📄 SDLC documents exported")

	if req.ProjectID != 0 {
		if err := s.attachFiles(req.ProjectID, req.Format, files); err != nil {
			s.errorResponse(w, err)
			return
		}
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{"id": docs.ID, "files": files})
}

// attachFiles records exported documents as managed project files
func (s *Server) attachFiles(projectID uint, format string, files map[string]string) error {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := files[k]
		f := &database.ProjectFile{
			ProjectID:  projectID,
			Filename:   filepath.Base(path),
			FileType:   format,
			Path:       path,
			UploadedAt: s.now(),
		}
		if info, err := os.Stat(path); err == nil {
			f.Size = info.Size()
		}
		if err := s.deps.DB.AddFile(f); err != nil {
			return fmt.Errorf("attach %s: %w", f.Filename, err)
		}
	}
	return nil
}
