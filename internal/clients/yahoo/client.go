// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// validRanges are the lookback periods the chart API accepts.
var validRanges = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

// Client implements the StockProvider and LiveProvider interfaces against
// the Yahoo Finance v8 chart endpoint.
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

// NewClient creates a new Yahoo Finance client
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
func (c *Client) Name() string { return "yahoo" }

// APIError represents a provider error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request and returns the raw body. A single
// attempt only; a timeout or non-2xx status is an immediate failure.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stockpulse/1.0)")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	return body, nil
}

// chart fetches one chart payload and returns the result object.
func (c *Client) chart(ctx context.Context, symbol, rng, interval string) (gjson.Result, error) {
	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", interval)
	params.Set("events", "div,split")

	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))
	body, err := c.get(ctx, path, params)
	if err != nil {
		return gjson.Result{}, err
	}

	if apiErr := gjson.GetBytes(body, "chart.error"); apiErr.Exists() && apiErr.Type != gjson.Null {
		return gjson.Result{}, &APIError{
			StatusCode: http.StatusOK,
			Message:    apiErr.Get("description").String(),
			Endpoint:   path,
		}
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return gjson.Result{}, &APIError{
			StatusCode: http.StatusOK,
			Message:    "empty chart result",
			Endpoint:   path,
		}
	}

	return result, nil
}

// FetchDaily retrieves the daily history for symbol over period and
// normalizes it into a StockRecord.
func (c *Client) FetchDaily(ctx context.Context, symbol, period string) (*models.StockRecord, error) {
	if !validRanges[period] {
		period = "1mo"
	}

	result, err := c.chart(ctx, symbol, period, "1d")
	if err != nil {
		return nil, err
	}

	history := extractBars(result, "2006-01-02")
	if len(history) == 0 {
		return nil, fmt.Errorf("yahoo: no usable bars for %s", symbol)
	}

	meta := result.Get("meta")

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

	name := meta.Get("shortName").String()
	if name == "" {
		name = meta.Get("longName").String()
	}
	if name == "" {
		name = symbol
	}

	exchange := meta.Get("fullExchangeName").String()
	if exchange == "" {
		exchange = meta.Get("exchangeName").String()
	}
	if exchange == "" {
		exchange = "Unknown"
	}

	currency := meta.Get("currency").String()
	if currency == "" {
		currency = "USD"
	}

	return &models.StockRecord{
		Symbol:           symbol,
		Name:             name,
		CurrentPrice:     current,
		PreviousClose:    prev,
		Change:           change,
		ChangePercent:    changePct,
		Currency:         currency,
		Exchange:         exchange,
		MarketCap:        meta.Get("marketCap").Float(),
		FiftyTwoWeekHigh: round2(meta.Get("fiftyTwoWeekHigh").Float()),
		FiftyTwoWeekLow:  round2(meta.Get("fiftyTwoWeekLow").Float()),
		History:          history,
	}, nil
}

// FetchLive retrieves the finest-granularity quote for symbol. It asks for
// one day of 1-minute bars and falls back to five days of daily bars when
// intraday data is unavailable (thinly traded or delisted symbols).
func (c *Client) FetchLive(ctx context.Context, symbol string) (*models.LivePrice, error) {
	result, err := c.chart(ctx, symbol, "1d", "1m")
	if err == nil {
		if lp := liveFromResult(symbol, result); lp != nil {
			return lp, nil
		}
	}

	result, err = c.chart(ctx, symbol, "5d", "1d")
	if err != nil {
		return nil, err
	}
	if lp := liveFromResult(symbol, result); lp != nil {
		return lp, nil
	}

	return nil, fmt.Errorf("yahoo: no intraday or recent daily data for %s", symbol)
}

// liveFromResult builds a LivePrice from the last usable close in a chart
// result, or nil when the payload has no usable data.
func liveFromResult(symbol string, result gjson.Result) *models.LivePrice {
	closes := result.Get("indicators.quote.0.close").Array()

	last := math.NaN()
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i].Type != gjson.Null {
			last = closes[i].Float()
			break
		}
	}
	if math.IsNaN(last) {
		return nil
	}

	prev := result.Get("meta.chartPreviousClose").Float()
	if prev == 0 {
		prev = last
	}

	change := round2(last - prev)
	changePct := 0.0
	if prev != 0 {
		changePct = round2(change / prev * 100)
	}

	return &models.LivePrice{
		Symbol:        symbol,
		Price:         round2(last),
		Change:        change,
		ChangePercent: changePct,
		Timestamp:     time.Now().UTC(),
	}
}

// extractBars normalizes the parallel timestamp/OHLCV arrays of a chart
// result into DailyBars, skipping entries with a null close.
func extractBars(result gjson.Result, dateLayout string) []models.DailyBar {
	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	at := func(arr []gjson.Result, i int) float64 {
		if i < len(arr) && arr[i].Type != gjson.Null {
			return arr[i].Float()
		}
		return 0
	}

	bars := make([]models.DailyBar, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i].Type == gjson.Null {
			continue
		}
		var volume int64
		if i < len(volumes) && volumes[i].Type != gjson.Null {
			volume = volumes[i].Int()
		}
		bars = append(bars, models.DailyBar{
			Date:   time.Unix(ts.Int(), 0).UTC().Format(dateLayout),
			Open:   round2(at(opens, i)),
			High:   round2(at(highs, i)),
			Low:    round2(at(lows, i)),
			Close:  round2(closes[i].Float()),
			Volume: volume,
		})
	}
	return bars
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Ensure Client implements the provider interfaces
var (
	_ interfaces.StockProvider = (*Client)(nil)
	_ interfaces.LiveProvider  = (*Client)(nil)
)
