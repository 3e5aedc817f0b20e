package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rsharda/stockpulse/internal/models"
	"github.com/rsharda/stockpulse/internal/services/prediction"
	"github.com/rsharda/stockpulse/internal/services/stockdata"
)

// analysisPeriod is the lookback fetched for predictions and analysis.
const analysisPeriod = "3mo"

const maxForecastDays = 30

// writeStockError maps gateway errors to HTTP status codes. Rate-limit
// denials are the client's fault (429); everything else means the upstream
// data sources are unavailable (503).
func writeStockError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrRateLimited) {
		WriteErrorWithCode(w, http.StatusTooManyRequests, err.Error(), "rate_limited")
		return
	}
	WriteError(w, http.StatusServiceUnavailable, err.Error())
}

// handleStockData handles GET /api/stock/{symbol}.
func (s *Server) handleStockData(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	period := r.URL.Query().Get("period")
	record, err := s.app.StockService.GetStockData(r.Context(), symbol, period)
	if err != nil {
		writeStockError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// handleLivePrice handles GET /api/stock/{symbol}/live.
func (s *Server) handleLivePrice(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	price, err := s.app.StockService.GetLivePrice(r.Context(), symbol)
	if err != nil {
		writeStockError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, price)
}

// handlePredict handles GET /api/stock/{symbol}/predict?days=7.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	days := prediction.DefaultDays
	if d := r.URL.Query().Get("days"); d != "" {
		v, err := strconv.Atoi(d)
		if err != nil || v < 1 || v > maxForecastDays {
			WriteError(w, http.StatusBadRequest, "days must be an integer between 1 and 30")
			return
		}
		days = v
	}

	record, err := s.app.StockService.GetStockData(r.Context(), symbol, analysisPeriod)
	if err != nil {
		writeStockError(w, err)
		return
	}

	forecast, err := s.app.PredictionService.Predict(r.Context(), symbol, record, days)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, forecast)
}

// handleAnalyze handles GET /api/stock/{symbol}/analyze.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	record, err := s.app.StockService.GetStockData(r.Context(), symbol, analysisPeriod)
	if err != nil {
		writeStockError(w, err)
		return
	}

	result, err := s.app.AnalysisService.Analyze(r.Context(), symbol, record)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// handleChart handles GET /api/stock/{symbol}/chart and responds with a PNG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = analysisPeriod
	}
	record, err := s.app.StockService.GetStockData(r.Context(), symbol, period)
	if err != nil {
		writeStockError(w, err)
		return
	}

	png, err := stockdata.RenderHistoryChart(record)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleStockSearch handles GET /api/stock/search?q=.
func (s *Server) handleStockSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	results := s.app.StockService.SearchStocks(r.Context(), query)
	WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// handleNSEStocks handles GET /api/nse/stocks.
func (s *Server) handleNSEStocks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stocks := s.app.StockService.GetNSEStocks()
	WriteJSON(w, http.StatusOK, map[string]interface{}{"stocks": stocks})
}
