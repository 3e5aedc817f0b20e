package models

// AnalysisMetrics summarizes a record's price history
type AnalysisMetrics struct {
	AveragePrice       float64 `json:"averagePrice"`
	HighestPrice       float64 `json:"highestPrice"`
	LowestPrice        float64 `json:"lowestPrice"`
	PriceRange         float64 `json:"priceRange"`
	AverageVolume      int64   `json:"averageVolume"`
	AverageDailyReturn float64 `json:"averageDailyReturn"`
	Volatility         float64 `json:"volatility"`
	WinRate            float64 `json:"winRate"` // percentage of up days
	TotalTradingDays   int     `json:"totalTradingDays"`
}

// Analysis is the AI (or template) text analysis response for a symbol
type Analysis struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	CurrentPrice  float64         `json:"currentPrice"`
	Change        float64         `json:"change"`
	ChangePercent float64         `json:"changePercent"`
	Metrics       AnalysisMetrics `json:"metrics"`
	Analysis      string          `json:"analysis"`
	Sentiment     string          `json:"sentiment"` // Bullish, Bearish, Neutral
	GeneratedAt   string          `json:"generatedAt"` // RFC 3339
}
