package prediction

import (
	"math"

	"github.com/rsharda/stockpulse/internal/models"
)

const (
	rsiPeriod       = 14
	neutralRSI      = 50
	overboughtRSI   = 70
	oversoldRSI     = 30
	shortWindow     = 5
	longWindow      = 20
	maxRelativeRSI  = 100
	neutralMomentum = 0
)

// computeIndicators derives the technical indicators used by the forecast
// from a closing-price series, most recent last.
func computeIndicators(prices []float64) models.Indicators {
	return models.Indicators{
		SMA5:       round2(tailMean(prices, shortWindow)),
		SMA20:      round2(tailMean(prices, longWindow)),
		RSI:        round2(relativeStrength(prices)),
		Volatility: round2(volatility(prices)),
		Momentum:   round2(momentum(prices)),
	}
}

// tailMean averages the last n prices, or all of them when fewer exist.
func tailMean(prices []float64, n int) float64 {
	if len(prices) > n {
		prices = prices[len(prices)-n:]
	}
	return mean(prices)
}

// relativeStrength is a 14-period RSI over the most recent deltas. Series
// too short for a full period read as neutral.
func relativeStrength(prices []float64) float64 {
	if len(prices) < rsiPeriod {
		return neutralRSI
	}

	// Last 15 prices give 14 deltas; exactly 14 prices give 13.
	window := prices
	if len(window) > rsiPeriod+1 {
		window = window[len(window)-(rsiPeriod+1):]
	}
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}
	deltas := float64(len(window) - 1)
	avgGain := gains / deltas
	avgLoss := losses / deltas

	rs := float64(maxRelativeRSI)
	if avgLoss > 0 {
		rs = avgGain / avgLoss
	}
	return 100 - (100 / (1 + rs))
}

// volatility is the coefficient of variation of the last 20 closes,
// expressed as a percentage.
func volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	if len(prices) > longWindow {
		prices = prices[len(prices)-longWindow:]
	}
	m := mean(prices)
	if m == 0 {
		return 0
	}
	return stddev(prices, m) / m * 100
}

func momentum(prices []float64) float64 {
	if len(prices) < shortWindow {
		return neutralMomentum
	}
	base := prices[len(prices)-shortWindow]
	if base == 0 {
		return neutralMomentum
	}
	return (prices[len(prices)-1] - base) / base * 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
