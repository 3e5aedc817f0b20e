// Package stooq provides a client for the Stooq daily CSV endpoint.
// Stooq serves price history only, so normalized records carry neutral
// defaults for company metadata.
package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/models"
)

const (
	DefaultBaseURL   = "https://stooq.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second

	// maxBars caps how much history a record carries; Stooq returns the
	// symbol's full history in one CSV.
	maxBars = 30
)

// Client implements the StockProvider interface against Stooq's CSV export.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Stooq client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider in logs
func (c *Client) Name() string { return "stooq" }

// TranslateSymbol maps a Yahoo-style symbol to Stooq's identifier format.
// Indian listings (.NS, .BO) map to the ".in" market suffix; everything
// else is assumed to be a US listing.
func TranslateSymbol(symbol string) string {
	upper := strings.ToUpper(symbol)
	if strings.HasSuffix(upper, ".NS") || strings.HasSuffix(upper, ".BO") {
		base := strings.TrimSuffix(strings.TrimSuffix(upper, ".NS"), ".BO")
		return strings.ToLower(base) + ".in"
	}
	return strings.ToLower(symbol) + ".us"
}

// FetchDaily retrieves daily history for symbol and normalizes it. Stooq has
// no period parameter; the full CSV is fetched and trimmed to the most
// recent bars, so period is accepted for interface compatibility only.
func (c *Client) FetchDaily(ctx context.Context, symbol, period string) (*models.StockRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("s", TranslateSymbol(symbol))
	params.Set("i", "d")
	reqURL := fmt.Sprintf("%s/q/d/l/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("symbol", symbol).Str("stooq_symbol", TranslateSymbol(symbol)).Msg("Stooq CSV request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stooq unavailable: status %d", resp.StatusCode)
	}

	history, err := parseCSV(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("stooq: no data for %s", symbol)
	}
	if len(history) > maxBars {
		history = history[len(history)-maxBars:]
	}

	current := history[len(history)-1].Close
	prev := current
	if len(history) > 1 {
		prev = history[len(history)-2].Close
	}
	change := round2(current - prev)
	changePct := 0.0
	if prev != 0 {
		changePct = round2((current - prev) / prev * 100)
	}

	return &models.StockRecord{
		Symbol:           symbol,
		Name:             symbol, // Stooq carries no company metadata
		CurrentPrice:     current,
		PreviousClose:    prev,
		Change:           change,
		ChangePercent:    changePct,
		Currency:         "USD",
		Exchange:         "Unknown",
		MarketCap:        0,
		FiftyTwoWeekHigh: 0,
		FiftyTwoWeekLow:  0,
		History:          history,
	}, nil
}

// parseCSV reads the Date,Open,High,Low,Close,Volume export. Rows with an
// unparseable close are dropped; an unparseable volume normalizes to 0.
func parseCSV(r io.Reader) ([]models.DailyBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stooq: unparseable CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("stooq: empty dataset")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Date", "Open", "High", "Low", "Close"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("stooq: CSV missing %s column", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	bars := make([]models.DailyBar, 0, len(records)-1)
	for _, row := range records[1:] {
		closeVal, err := strconv.ParseFloat(field(row, "Close"), 64)
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(field(row, "Open"), 64)
		high, _ := strconv.ParseFloat(field(row, "High"), 64)
		low, _ := strconv.ParseFloat(field(row, "Low"), 64)

		var volume int64
		if v, err := strconv.ParseFloat(field(row, "Volume"), 64); err == nil && !math.IsNaN(v) {
			volume = int64(v)
		}

		bars = append(bars, models.DailyBar{
			Date:   field(row, "Date"),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closeVal),
			Volume: volume,
		})
	}

	return bars, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Ensure Client implements StockProvider
var _ interfaces.StockProvider = (*Client)(nil)
