// Package interfaces defines service contracts for StockPulse
package interfaces

import (
	"context"

	"github.com/rsharda/stockpulse/internal/models"
)

// StockService is the retrieval gateway over the external market-data
// providers. It owns the response cache and the per-key rate limiter.
type StockService interface {
	// GetStockData retrieves the normalized record for a symbol and period.
	// Served from cache when fresh; otherwise rate limited and fetched from
	// the provider chain with fallback.
	GetStockData(ctx context.Context, symbol, period string) (*models.StockRecord, error)

	// GetLivePrice retrieves an intraday price snapshot for a symbol
	GetLivePrice(ctx context.Context, symbol string) (*models.LivePrice, error)

	// SearchStocks matches symbols and names against the reference list,
	// augmenting with a provider lookup when local matches are sparse.
	SearchStocks(ctx context.Context, query string) []models.PopularStock

	// GetNSEStocks returns the NSE-listed entries of the reference list
	GetNSEStocks() []models.PopularStock
}

// PredictionService produces naive price forecasts from historical data
type PredictionService interface {
	// Predict forecasts up to days trading days ahead for a symbol
	Predict(ctx context.Context, symbol string, record *models.StockRecord, days int) (*models.Prediction, error)
}

// AnalysisService produces textual analysis of a stock's recent history
type AnalysisService interface {
	// Analyze computes history metrics and generates the analysis text
	Analyze(ctx context.Context, symbol string, record *models.StockRecord) (*models.Analysis, error)
}
