package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rsharda/stockpulse/internal/app"
	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/models"
)

type stubStockService struct {
	record    *models.StockRecord
	recordErr error
	live      *models.LivePrice
	liveErr   error
	results   []models.PopularStock

	lastPeriod string
	dataCalls  int
}

func (s *stubStockService) GetStockData(_ context.Context, symbol, period string) (*models.StockRecord, error) {
	s.dataCalls++
	s.lastPeriod = period
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	return s.record, nil
}

func (s *stubStockService) GetLivePrice(_ context.Context, symbol string) (*models.LivePrice, error) {
	if s.liveErr != nil {
		return nil, s.liveErr
	}
	return s.live, nil
}

func (s *stubStockService) SearchStocks(_ context.Context, _ string) []models.PopularStock {
	return s.results
}

func (s *stubStockService) GetNSEStocks() []models.PopularStock {
	return s.results
}

type stubPredictionService struct {
	prediction *models.Prediction
	err        error
	lastDays   int
}

func (s *stubPredictionService) Predict(_ context.Context, symbol string, _ *models.StockRecord, days int) (*models.Prediction, error) {
	s.lastDays = days
	if s.err != nil {
		return nil, s.err
	}
	return s.prediction, nil
}

type stubAnalysisService struct {
	analysis *models.Analysis
	err      error
}

func (s *stubAnalysisService) Analyze(_ context.Context, symbol string, _ *models.StockRecord) (*models.Analysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.analysis, nil
}

func stubRecord() *models.StockRecord {
	return &models.StockRecord{
		Symbol:        "AAPL",
		Name:          "Apple Inc.",
		CurrentPrice:  184.25,
		ChangePercent: -0.68,
		History: []models.DailyBar{
			{Date: "2026-02-26", Close: 185.50, Volume: 1000},
			{Date: "2026-02-27", Close: 184.25, Volume: 1200},
		},
	}
}

func newTestServer(stocks *stubStockService, pred *stubPredictionService, anal *stubAnalysisService) *Server {
	a := &app.App{
		Config: common.NewDefaultConfig(),
		Logger: common.NewSilentLogger(),
	}
	if stocks != nil {
		a.StockService = stocks
	}
	if pred != nil {
		a.PredictionService = pred
	}
	if anal != nil {
		a.AnalysisService = anal
	}
	return NewServer(a)
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubStockService{}, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %q", body["status"])
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(&stubStockService{}, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["version"] == "" {
		t.Error("version must not be empty")
	}
}

func TestHandleStockData(t *testing.T) {
	stocks := &stubStockService{record: stubRecord()}
	s := newTestServer(stocks, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL?period=3mo")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stocks.lastPeriod != "3mo" {
		t.Errorf("expected period 3mo forwarded, got %q", stocks.lastPeriod)
	}

	var record models.StockRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if record.Symbol != "AAPL" || len(record.History) != 2 {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestHandleStockData_RateLimited(t *testing.T) {
	stocks := &stubStockService{
		recordErr: fmt.Errorf("AAPL: %w", models.ErrRateLimited),
	}
	s := newTestServer(stocks, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Code != "rate_limited" {
		t.Errorf("expected rate_limited code, got %q", body.Code)
	}
}

func TestHandleStockData_ProvidersUnavailable(t *testing.T) {
	stocks := &stubStockService{
		recordErr: errors.New("all providers failed for AAPL: connection refused"),
	}
	s := newTestServer(stocks, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandleStockData_MethodNotAllowed(t *testing.T) {
	s := newTestServer(&stubStockService{record: stubRecord()}, nil, nil)

	rec := doRequest(s, http.MethodPost, "/api/stock/AAPL")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRouteStock_UnknownAction(t *testing.T) {
	s := newTestServer(&stubStockService{record: stubRecord()}, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL/history")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleLivePrice(t *testing.T) {
	stocks := &stubStockService{
		live: &models.LivePrice{Symbol: "AAPL", Price: 184.25},
	}
	s := newTestServer(stocks, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var price models.LivePrice
	if err := json.Unmarshal(rec.Body.Bytes(), &price); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if price.Price != 184.25 {
		t.Errorf("unexpected price: %+v", price)
	}
}

func TestHandleLivePrice_NoLiveData(t *testing.T) {
	stocks := &stubStockService{
		liveErr: fmt.Errorf("AAPL: %w", models.ErrNoLiveData),
	}
	s := newTestServer(stocks, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL/live")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandlePredict(t *testing.T) {
	stocks := &stubStockService{record: stubRecord()}
	pred := &stubPredictionService{
		prediction: &models.Prediction{Symbol: "AAPL", Recommendation: "HOLD"},
	}
	s := newTestServer(stocks, pred, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL/predict?days=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if pred.lastDays != 5 {
		t.Errorf("expected days=5 forwarded, got %d", pred.lastDays)
	}
	if stocks.lastPeriod != analysisPeriod {
		t.Errorf("predict should fetch the %s lookback, got %q", analysisPeriod, stocks.lastPeriod)
	}
}

func TestHandlePredict_InvalidDays(t *testing.T) {
	stocks := &stubStockService{record: stubRecord()}
	s := newTestServer(stocks, &stubPredictionService{}, nil)

	for _, q := range []string{"days=0", "days=31", "days=soon"} {
		rec := doRequest(s, http.MethodGet, "/api/stock/AAPL/predict?"+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
	if stocks.dataCalls != 0 {
		t.Errorf("invalid days must be rejected before fetching, got %d fetches", stocks.dataCalls)
	}
}

func TestHandleAnalyze(t *testing.T) {
	stocks := &stubStockService{record: stubRecord()}
	anal := &stubAnalysisService{
		analysis: &models.Analysis{Symbol: "AAPL", Sentiment: "Neutral"},
	}
	s := newTestServer(stocks, nil, anal)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL/analyze")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Sentiment != "Neutral" {
		t.Errorf("unexpected analysis: %+v", result)
	}
}

func TestHandleChart(t *testing.T) {
	stocks := &stubStockService{record: stubRecord()}
	s := newTestServer(stocks, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/AAPL/chart")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("response body is not a PNG")
	}
}

func TestHandleStockSearch(t *testing.T) {
	stocks := &stubStockService{
		results: []models.PopularStock{{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ"}},
	}
	s := newTestServer(stocks, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/search?q=apple")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string][]models.PopularStock
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body["results"]) != 1 {
		t.Errorf("unexpected results: %+v", body)
	}
}

func TestHandleStockSearch_MissingQuery(t *testing.T) {
	s := newTestServer(&stubStockService{}, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/stock/search")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleNSEStocks(t *testing.T) {
	stocks := &stubStockService{
		results: []models.PopularStock{
			{Symbol: "RELIANCE.NS", Name: "Reliance Industries", Exchange: "NSE"},
		},
	}
	s := newTestServer(stocks, nil, nil)

	rec := doRequest(s, http.MethodGet, "/api/nse/stocks")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string][]models.PopularStock
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body["stocks"]) != 1 || body["stocks"][0].Exchange != "NSE" {
		t.Errorf("unexpected stocks payload: %+v", body)
	}
}
