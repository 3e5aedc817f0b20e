package models

// Indicators holds the technical indicators computed from closing prices
type Indicators struct {
	SMA5       float64 `json:"sma_5"`
	SMA20      float64 `json:"sma_20"`
	RSI        float64 `json:"rsi"`
	Volatility float64 `json:"volatility"` // stddev/mean of recent closes, as a percentage
	Momentum   float64 `json:"momentum"`   // 5-day price change percentage
}

// PredictedPoint is a single forecast day
type PredictedPoint struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predictedPrice"`
	LowBound       float64 `json:"lowBound"`
	HighBound      float64 `json:"highBound"`
	Confidence     float64 `json:"confidence"`
}

// Prediction is the full forecast response for a symbol
type Prediction struct {
	Symbol               string           `json:"symbol"`
	CurrentPrice         float64          `json:"currentPrice"`
	Predictions          []PredictedPoint `json:"predictions"`
	Indicators           Indicators       `json:"indicators"`
	Sentiment            float64          `json:"sentiment"`
	OverallChange        float64          `json:"overallChange"`
	Recommendation       string           `json:"recommendation"`
	RecommendationDetail string           `json:"recommendationDetail"`
	GeneratedAt          string           `json:"generatedAt"` // RFC 3339
}
