// Package stockdata implements the stock-data retrieval gateway: response
// cache, per-key rate limiting, and an ordered provider chain with fallback.
package stockdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/rsharda/stockpulse/internal/cache"
	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/models"
	"github.com/rsharda/stockpulse/internal/ratelimit"
)

const (
	// DefaultPeriod is the lookback used when the caller does not specify
	// one, and the namespace consulted for stale-cache fallback under rate
	// limiting.
	DefaultPeriod = "1mo"

	searchResultCap        = 10
	searchAugmentThreshold = 5
)

// Service is the StockDataGateway. It owns the response cache and the
// sliding-window rate limiter; providers are tried in order until one
// succeeds.
type Service struct {
	providers []interfaces.StockProvider
	live      interfaces.LiveProvider
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	logger    *common.Logger
	popular   []models.PopularStock
}

// NewService creates the gateway. providers is ordered primary first; live
// may be nil when no provider supports intraday quotes.
func NewService(providers []interfaces.StockProvider, live interfaces.LiveProvider, c *cache.Cache, limiter *ratelimit.Limiter, logger *common.Logger) *Service {
	return &Service{
		providers: providers,
		live:      live,
		cache:     c,
		limiter:   limiter,
		logger:    logger,
		popular:   popularStocks,
	}
}

func stockKey(symbol, period string) string {
	return fmt.Sprintf("stock_%s_%s", symbol, period)
}

func liveKey(symbol string) string {
	return "live_" + symbol
}

// GetStockData retrieves the normalized record for a symbol and period.
// Cache hits are free: they never consult the rate limiter. On a miss with
// the quota exhausted, the default-period cache entry for the symbol is
// returned when present (graceful degradation) before the rate-limit error.
func (s *Service) GetStockData(ctx context.Context, symbol, period string) (*models.StockRecord, error) {
	if period == "" {
		period = DefaultPeriod
	}

	key := stockKey(symbol, period)
	if v, ok := s.cache.Get(key); ok {
		return v.(*models.StockRecord), nil
	}

	if !s.limiter.Allow(symbol) {
		if v, ok := s.cache.Get(stockKey(symbol, DefaultPeriod)); ok {
			s.logger.Debug().Str("symbol", symbol).Msg("Rate limited, serving stale default-period record")
			return v.(*models.StockRecord), nil
		}
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrRateLimited)
	}

	record, err := s.fetchWithFallback(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, record)
	return record, nil
}

// fetchWithFallback tries each provider in order and returns the first
// success. When every provider fails, the error carries the primary
// provider's failure as the representative cause.
func (s *Service) fetchWithFallback(ctx context.Context, symbol, period string) (*models.StockRecord, error) {
	var primaryErr error
	for _, p := range s.providers {
		record, err := p.FetchDaily(ctx, symbol, period)
		if err == nil {
			return record, nil
		}
		s.logger.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("Provider fetch failed")
		if primaryErr == nil {
			primaryErr = err
		}
	}
	if primaryErr == nil {
		primaryErr = fmt.Errorf("no providers configured")
	}
	return nil, fmt.Errorf("all providers failed for %s: %w", symbol, primaryErr)
}

// GetLivePrice retrieves an intraday snapshot. Only the primary provider
// supports live quotes, so there is no cross-provider fallback; a failed
// fetch is terminal.
func (s *Service) GetLivePrice(ctx context.Context, symbol string) (*models.LivePrice, error) {
	key := liveKey(symbol)
	if v, ok := s.cache.Get(key); ok {
		return v.(*models.LivePrice), nil
	}

	if !s.limiter.Allow(key) {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrRateLimited)
	}

	if s.live == nil {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrNoLiveData)
	}

	price, err := s.live.FetchLive(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Live fetch failed")
		return nil, fmt.Errorf("%s: %w: %v", symbol, models.ErrNoLiveData, err)
	}

	s.cache.Set(key, price)
	return price, nil
}

// SearchStocks matches query case-insensitively against the symbols and
// names of the reference list. When local matches are sparse, one
// rate-limited lookup of the literal query against the primary provider
// augments the results; a denial leaves the local results as-is.
func (s *Service) SearchStocks(ctx context.Context, query string) []models.PopularStock {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return []models.PopularStock{}
	}

	results := make([]models.PopularStock, 0, searchResultCap)
	for _, stock := range s.popular {
		if strings.Contains(strings.ToUpper(stock.Symbol), q) || strings.Contains(strings.ToUpper(stock.Name), q) {
			results = append(results, stock)
		}
	}

	if len(results) < searchAugmentThreshold && len(s.providers) > 0 {
		if s.limiter.Allow("search_" + q) {
			if record, err := s.providers[0].FetchDaily(ctx, query, DefaultPeriod); err == nil {
				if !containsSymbol(results, record.Symbol) {
					results = append(results, models.PopularStock{
						Symbol:   record.Symbol,
						Name:     record.Name,
						Exchange: record.Exchange,
					})
				}
			}
		}
	}

	if len(results) > searchResultCap {
		results = results[:searchResultCap]
	}
	return results
}

func containsSymbol(stocks []models.PopularStock, symbol string) bool {
	for _, s := range stocks {
		if strings.EqualFold(s.Symbol, symbol) {
			return true
		}
	}
	return false
}

// GetNSEStocks returns the NSE-listed entries of the reference list.
// Pure in-memory filter: no caching or rate limiting.
func (s *Service) GetNSEStocks() []models.PopularStock {
	results := make([]models.PopularStock, 0, len(s.popular))
	for _, stock := range s.popular {
		if stock.Exchange == "NSE" {
			results = append(results, stock)
		}
	}
	return results
}

// Ensure Service implements StockService
var _ interfaces.StockService = (*Service)(nil)
