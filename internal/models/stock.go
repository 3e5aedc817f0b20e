// Package models defines data structures for StockPulse
package models

import "time"

// StockRecord is the canonical normalized quote returned by every provider.
// History is chronological, oldest first, and never empty for a valid record.
type StockRecord struct {
	Symbol           string     `json:"symbol"`
	Name             string     `json:"name"`
	CurrentPrice     float64    `json:"currentPrice"`
	PreviousClose    float64    `json:"previousClose"`
	Change           float64    `json:"change"`
	ChangePercent    float64    `json:"changePercent"`
	Currency         string     `json:"currency"`
	Exchange         string     `json:"exchange"`
	MarketCap        float64    `json:"marketCap"`
	FiftyTwoWeekHigh float64    `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64    `json:"fiftyTwoWeekLow"`
	History          []DailyBar `json:"history"`
}

// DailyBar represents a single day's price data
type DailyBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// LivePrice is an intraday price snapshot for a symbol
type LivePrice struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Timestamp     time.Time `json:"timestamp"`
}

// PopularStock is a static reference entry used by search and exchange listing
type PopularStock struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}
