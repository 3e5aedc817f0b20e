package app

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/services/stockdata"
)

const warmCacheConcurrency = 4

// warmCache pre-fetches the reference stocks on startup so the first user
// query is served from cache. Each symbol costs one admission against its
// own rate-limit key, so the prefetch never starves interactive calls.
func warmCache(ctx context.Context, stocks interfaces.StockService, logger *common.Logger) {
	if os.Getenv("STOCKPULSE_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm cache: disabled via STOCKPULSE_WARM_CACHE=off")
		return
	}

	start := time.Now()
	symbols := stockdata.PopularSymbols()
	logger.Info().Int("symbols", len(symbols)).Msg("Warm cache: starting")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmCacheConcurrency)

	var warmed atomic.Int64
	for _, symbol := range symbols {
		g.Go(func() error {
			if _, err := stocks.GetStockData(ctx, symbol, stockdata.DefaultPeriod); err != nil {
				logger.Warn().Err(err).Str("symbol", symbol).Msg("Warm cache: fetch failed")
				return nil
			}
			warmed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info().
		Int64("warmed", warmed.Load()).
		Int("symbols", len(symbols)).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}
