package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/rsharda/stockpulse/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Market data
	mux.HandleFunc("/api/stock/search", s.handleStockSearch)
	mux.HandleFunc("/api/stock/", s.routeStock)
	mux.HandleFunc("/api/nse/stocks", s.handleNSEStocks)
}

// routeStock dispatches /api/stock/{symbol} and /api/stock/{symbol}/{action}.
func (s *Server) routeStock(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/stock/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required in path")
		return
	}

	symbol, action, _ := strings.Cut(path, "/")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required in path")
		return
	}

	switch action {
	case "":
		s.handleStockData(w, r, symbol)
	case "live":
		s.handleLivePrice(w, r, symbol)
	case "predict":
		s.handlePredict(w, r, symbol)
	case "analyze":
		s.handleAnalyze(w, r, symbol)
	case "chart":
		s.handleChart(w, r, symbol)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "API is running",
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
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
