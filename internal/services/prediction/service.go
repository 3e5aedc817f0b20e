// Package prediction produces short-horizon price forecasts from technical
// indicators, a sentiment score, and a damped random walk.
package prediction

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/models"
)

const (
	// DefaultDays is the forecast horizon when the caller does not specify one.
	DefaultDays = 7

	minHistory = 5

	buyThreshold  = 2.0
	sellThreshold = -2.0

	neutralSentiment = 0.5
)

// Service implements interfaces.PredictionService.
type Service struct {
	sentiment interfaces.SentimentClient
	logger    *common.Logger

	now   func() time.Time
	noise func() float64
}

// NewService creates a prediction service. sentiment may be nil; forecasts
// then use a neutral score.
func NewService(sentiment interfaces.SentimentClient, logger *common.Logger) *Service {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Service{
		sentiment: sentiment,
		logger:    logger,
		now:       time.Now,
		noise:     rng.NormFloat64,
	}
}

// SetClock replaces the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetNoise replaces the random-walk noise source. Test hook.
func (s *Service) SetNoise(noise func() float64) {
	s.noise = noise
}

// Predict forecasts up to days trading days ahead for a record. Weekend
// dates are skipped, so the forecast may hold fewer points than days.
// Requires at least 5 closes of history.
func (s *Service) Predict(ctx context.Context, symbol string, record *models.StockRecord, days int) (*models.Prediction, error) {
	if days <= 0 {
		days = DefaultDays
	}

	closes := closingPrices(record)
	if len(closes) < minHistory {
		return nil, fmt.Errorf("insufficient historical data for prediction: %d closes", len(closes))
	}

	indicators := computeIndicators(closes)
	sentiment := s.sentimentScore(ctx, symbol)
	points := s.generate(closes, days, indicators, sentiment)

	lastClose := closes[len(closes)-1]
	overallChange := 0.0
	if len(points) > 0 {
		overallChange = (points[len(points)-1].PredictedPrice - lastClose) / lastClose * 100
	}

	recommendation, detail := recommend(overallChange)

	return &models.Prediction{
		Symbol:               symbol,
		CurrentPrice:         record.CurrentPrice,
		Predictions:          points,
		Indicators:           indicators,
		Sentiment:            round2(sentiment),
		OverallChange:        round2(overallChange),
		Recommendation:       recommendation,
		RecommendationDetail: detail,
		GeneratedAt:          s.now().Format(time.RFC3339),
	}, nil
}

func (s *Service) sentimentScore(ctx context.Context, symbol string) float64 {
	if s.sentiment == nil {
		return neutralSentiment
	}
	score, err := s.sentiment.Score(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Sentiment lookup failed, using neutral")
		return neutralSentiment
	}
	return score
}

// generate walks forward from the last close. Each step applies a combined
// drift from the trend, RSI, and sentiment factors plus noise scaled to
// recent volatility.
func (s *Service) generate(closes []float64, days int, ind models.Indicators, sentiment float64) []models.PredictedPoint {
	trendFactor := 1.0
	if ind.SMA5 > ind.SMA20 {
		trendFactor = 1.02
	} else if ind.SMA5 < ind.SMA20 {
		trendFactor = 0.98
	}

	rsiFactor := 1.0
	if ind.RSI > overboughtRSI {
		rsiFactor = 0.98
	} else if ind.RSI < oversoldRSI {
		rsiFactor = 1.02
	}

	sentimentFactor := 0.98 + sentiment*0.04
	volatilityRange := ind.Volatility / 100
	drift := trendFactor*rsiFactor*sentimentFactor - 1

	points := make([]models.PredictedPoint, 0, days)
	price := closes[len(closes)-1]

	for i := 0; i < days; i++ {
		date := s.now().AddDate(0, 0, i+1)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		dailyChange := drift + s.noise()*volatilityRange*0.3
		price = price * (1 + dailyChange)

		confidence := 0.85 - float64(i)*0.03 - volatilityRange*0.5
		confidence = clamp(confidence, 0.5, 0.95)

		points = append(points, models.PredictedPoint{
			Date:           date.Format("2006-01-02"),
			PredictedPrice: round2(price),
			LowBound:       round2(price * (1 - volatilityRange*0.5)),
			HighBound:      round2(price * (1 + volatilityRange*0.5)),
			Confidence:     round2(confidence),
		})
	}
	return points
}

func recommend(overallChange float64) (string, string) {
	switch {
	case overallChange > buyThreshold:
		return "BUY", "Technical indicators and market analysis suggest positive momentum."
	case overallChange < sellThreshold:
		return "SELL", "Technical indicators suggest potential downward pressure."
	default:
		return "HOLD", "Market conditions appear stable. Consider holding current positions."
	}
}

func closingPrices(record *models.StockRecord) []float64 {
	if record == nil {
		return nil
	}
	closes := make([]float64, 0, len(record.History))
	for _, bar := range record.History {
		closes = append(closes, bar.Close)
	}
	return closes
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ensure Service implements PredictionService
var _ interfaces.PredictionService = (*Service)(nil)
