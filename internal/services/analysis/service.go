// Package analysis summarizes a stock's recent history into descriptive
// metrics and a short narrative, AI-generated when a model is configured.
package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/models"
)

const (
	bullishThreshold = 1.0
	bearishThreshold = -1.0
)

// Service implements interfaces.AnalysisService.
type Service struct {
	gemini interfaces.GeminiClient
	logger *common.Logger

	now func() time.Time
}

// NewService creates an analysis service. gemini may be nil; the narrative
// then falls back to a template built from the metrics.
func NewService(gemini interfaces.GeminiClient, logger *common.Logger) *Service {
	return &Service{
		gemini: gemini,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Analyze computes descriptive metrics for a record and attaches a
// narrative. Model failures never fail the analysis; the template text is
// used instead.
func (s *Service) Analyze(ctx context.Context, symbol string, record *models.StockRecord) (*models.Analysis, error) {
	if record == nil {
		return nil, fmt.Errorf("no record to analyze for %s", symbol)
	}

	metrics := computeMetrics(record.History)
	narrative := s.narrative(ctx, symbol, record, metrics)

	sentiment := "Neutral"
	if record.ChangePercent > bullishThreshold {
		sentiment = "Bullish"
	} else if record.ChangePercent < bearishThreshold {
		sentiment = "Bearish"
	}

	return &models.Analysis{
		Symbol:        symbol,
		Name:          record.Name,
		CurrentPrice:  record.CurrentPrice,
		Change:        record.Change,
		ChangePercent: record.ChangePercent,
		Metrics:       metrics,
		Analysis:      narrative,
		Sentiment:     sentiment,
		GeneratedAt:   s.now().Format(time.RFC3339),
	}, nil
}

func (s *Service) narrative(ctx context.Context, symbol string, record *models.StockRecord, metrics models.AnalysisMetrics) string {
	if s.gemini != nil {
		text, err := s.gemini.AnalyzeStock(ctx, symbol, record, metrics)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("AI analysis failed, using template")
		}
	}
	return fallbackNarrative(symbol, record, metrics)
}

// fallbackNarrative builds the template narrative from trend, volatility,
// and win-rate buckets.
func fallbackNarrative(symbol string, record *models.StockRecord, metrics models.AnalysisMetrics) string {
	trend := "stable trading"
	if record.ChangePercent > 0 {
		trend = "positive momentum"
	} else if record.ChangePercent < 0 {
		trend = "negative pressure"
	}

	risk := "lower volatility"
	if metrics.Volatility > 3 {
		risk = "higher volatility"
	} else if metrics.Volatility > 1.5 {
		risk = "moderate volatility"
	}

	outlook := "neutral short-term outlook"
	if metrics.WinRate > 55 {
		outlook = "favorable short-term outlook"
	} else if metrics.WinRate < 45 {
		outlook = "cautious short-term outlook"
	}

	return fmt.Sprintf("%s is showing %s in recent trading sessions. "+
		"The stock exhibits %s, which investors should consider in their risk assessment. "+
		"Based on recent price action with a %.1f%% positive day rate, the stock has a %s. "+
		"Consider your investment goals and risk tolerance before making decisions.",
		symbol, trend, risk, metrics.WinRate, outlook)
}

// computeMetrics derives descriptive statistics from the bar history.
// Fewer than 2 bars yields zero-valued metrics.
func computeMetrics(history []models.DailyBar) models.AnalysisMetrics {
	if len(history) < 2 {
		return models.AnalysisMetrics{}
	}

	var sumPrice, maxPrice, minPrice float64
	var sumVolume int64
	maxPrice = history[0].Close
	minPrice = history[0].Close
	for _, bar := range history {
		sumPrice += bar.Close
		sumVolume += bar.Volume
		if bar.Close > maxPrice {
			maxPrice = bar.Close
		}
		if bar.Close < minPrice {
			minPrice = bar.Close
		}
	}

	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev := history[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (history[i].Close-prev)/prev*100)
	}

	var avgReturn, variance, winRate float64
	var positiveDays int
	if len(returns) > 0 {
		var sum float64
		for _, r := range returns {
			sum += r
			if r > 0 {
				positiveDays++
			}
		}
		avgReturn = sum / float64(len(returns))
		for _, r := range returns {
			d := r - avgReturn
			variance += d * d
		}
		variance /= float64(len(returns))
		winRate = float64(positiveDays) / float64(len(returns)) * 100
	}

	return models.AnalysisMetrics{
		AveragePrice:       round2(sumPrice / float64(len(history))),
		HighestPrice:       round2(maxPrice),
		LowestPrice:        round2(minPrice),
		PriceRange:         round2(maxPrice - minPrice),
		AverageVolume:      sumVolume / int64(len(history)),
		AverageDailyReturn: round2(avgReturn),
		Volatility:         round2(math.Sqrt(variance)),
		WinRate:            round2(winRate),
		TotalTradingDays:   len(returns),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Ensure Service implements AnalysisService
var _ interfaces.AnalysisService = (*Service)(nil)
