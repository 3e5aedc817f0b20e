// Package interfaces defines service contracts for StockPulse
package interfaces

import (
	"context"

	"github.com/rsharda/stockpulse/internal/models"
)

// StockProvider fetches and normalizes daily price history from one external
// market-data source. Implementations surface every failure (network,
// non-2xx status, empty or unparseable payload) to the caller; the gateway
// decides whether to fall back to the next provider.
type StockProvider interface {
	// Name identifies the provider in logs
	Name() string

	// FetchDaily retrieves the daily history for a symbol over a lookback
	// period (e.g. "1mo", "3mo") and normalizes it into a StockRecord.
	FetchDaily(ctx context.Context, symbol, period string) (*models.StockRecord, error)
}

// LiveProvider fetches an intraday price snapshot. Only the primary provider
// implements this; there is no cross-provider fallback for live quotes.
type LiveProvider interface {
	// FetchLive retrieves the finest-granularity quote available for a symbol
	FetchLive(ctx context.Context, symbol string) (*models.LivePrice, error)
}

// GeminiClient provides access to the Gemini API
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// AnalyzeStock generates AI analysis text for a stock
	AnalyzeStock(ctx context.Context, symbol string, record *models.StockRecord, metrics models.AnalysisMetrics) (string, error)
}

// SentimentClient scores market sentiment for a symbol in [0, 1],
// where 0 is fully bearish, 1 fully bullish and 0.5 neutral.
type SentimentClient interface {
	Score(ctx context.Context, symbol string) (float64, error)
}
