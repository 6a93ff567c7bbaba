package server

import (
	"net/http"
	"strings"
	"time"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Research
	mux.HandleFunc("/api/research", s.handleResearchSubmit)
	mux.HandleFunc("/api/research/ws", s.hub.ServeWS)
	mux.HandleFunc("/api/research/", s.routeResearch)

	// Symbols
	mux.HandleFunc("/api/symbols/mappings", s.handleAddMapping)
	mux.HandleFunc("/api/symbols/refresh", s.handleRefreshMappings)
}

// routeResearch dispatches /api/research/{traceId} and /api/research/{traceId}/status.
func (s *Server) routeResearch(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/research/")
	if strings.HasSuffix(rest, "/status") {
		s.handleResearchStatus(w, r, PathParam(r, "/api/research/", "/status"))
		return
	}
	s.handleResearchResult(w, r, PathParam(r, "/api/research/", ""))
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
