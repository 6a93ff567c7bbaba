package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/services/research"
)

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

type submitRequest struct {
	Query string `json:"query"`
}

// handleResearchSubmit handles POST /api/research.
func (s *Server) handleResearchSubmit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req submitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	traceID := uuid.New().String()
	if err := s.app.ResearchService.SubmitQuery(r.Context(), traceID, req.Query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to submit research query")
		WriteError(w, http.StatusInternalServerError, "Failed to start research")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"traceId": traceID,
		"query":   req.Query,
		"message": "Research started",
	})
}

// handleResearchResult handles GET /api/research/{traceId}.
func (s *Server) handleResearchResult(w http.ResponseWriter, r *http.Request, traceID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if traceID == "" {
		WriteError(w, http.StatusBadRequest, "trace ID is required")
		return
	}

	result, err := s.app.ResearchService.GetResult(r.Context(), traceID)
	if err != nil {
		if errors.Is(err, research.ErrResultNotFound) {
			WriteError(w, http.StatusNotFound, "No result for trace ID "+traceID)
			return
		}
		s.logger.Error().Err(err).Str("trace_id", traceID).Msg("Failed to load research result")
		WriteError(w, http.StatusInternalServerError, "Failed to load result")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// handleResearchStatus handles GET /api/research/{traceId}/status.
func (s *Server) handleResearchStatus(w http.ResponseWriter, r *http.Request, traceID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if traceID == "" {
		WriteError(w, http.StatusBadRequest, "trace ID is required")
		return
	}

	status, err := s.app.ResearchService.GetStatus(r.Context(), traceID)
	if err != nil {
		if errors.Is(err, research.ErrResultNotFound) {
			WriteJSON(w, http.StatusOK, map[string]string{
				"traceId": traceID,
				"status":  "in_progress",
			})
			return
		}
		s.logger.Error().Err(err).Str("trace_id", traceID).Msg("Failed to load workflow status")
		WriteError(w, http.StatusInternalServerError, "Failed to load status")
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

type mappingRequest struct {
	CompanyName string `json:"companyName"`
	Ticker      string `json:"ticker"`
}

// handleAddMapping handles POST /api/symbols/mappings.
func (s *Server) handleAddMapping(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req mappingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.Ticker) == "" {
		WriteError(w, http.StatusBadRequest, "companyName and ticker are required")
		return
	}

	if err := s.app.SymbolExtractor.AddCompanyMapping(r.Context(), req.CompanyName, req.Ticker); err != nil {
		s.logger.Error().Err(err).Msg("Failed to add company mapping")
		WriteError(w, http.StatusInternalServerError, "Failed to add mapping")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"companyName": strings.ToUpper(strings.TrimSpace(req.CompanyName)),
		"ticker":      strings.ToUpper(strings.TrimSpace(req.Ticker)),
	})
}

// handleRefreshMappings handles POST /api/symbols/refresh.
func (s *Server) handleRefreshMappings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.app.SymbolExtractor.Refresh(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to refresh symbol mappings")
		WriteError(w, http.StatusInternalServerError, "Failed to refresh mappings")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
