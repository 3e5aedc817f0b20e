// Package huggingface provides a client for the HuggingFace inference API,
// used for zero-shot sentiment classification of a symbol's outlook.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://api-inference.huggingface.co"
	DefaultModel     = "facebook/bart-large-mnli"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 2 // requests per second

	// NeutralScore is returned whenever classification is unavailable.
	NeutralScore = 0.5
)

// Client implements the SentimentClient interface
type Client struct {
	baseURL    string
	apiKey     string
	model      string
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

// WithModel sets the classification model
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new HuggingFace client. apiKey may be empty, in which
// case Score always returns the neutral value.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
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

type classifyRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		CandidateLabels []string `json:"candidate_labels"`
	} `json:"parameters"`
}

type classifyResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Score classifies the market outlook text for symbol against
// bullish/bearish/neutral labels and folds the result into [0, 1].
// Any failure degrades to the neutral score with a nil error; sentiment is
// advisory and must never fail a prediction.
func (c *Client) Score(ctx context.Context, symbol string) (float64, error) {
	if c.apiKey == "" {
		return NeutralScore, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return NeutralScore, nil
	}

	reqBody := classifyRequest{
		Inputs: fmt.Sprintf("Stock %s market performance outlook", symbol),
	}
	reqBody.Parameters.CandidateLabels = []string{"bullish", "bearish", "neutral"}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return NeutralScore, nil
	}

	reqURL := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return NeutralScore, nil
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Sentiment request failed, using neutral")
		return NeutralScore, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Int("status", resp.StatusCode).Msg("Sentiment request rejected, using neutral")
		return NeutralScore, nil
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return NeutralScore, nil
	}

	var bullish, bearish float64
	for i, label := range result.Labels {
		if i >= len(result.Scores) {
			break
		}
		switch label {
		case "bullish":
			bullish = result.Scores[i]
		case "bearish":
			bearish = result.Scores[i]
		}
	}

	// Map (bullish - bearish) in [-1, 1] onto [0, 1]
	return (bullish - bearish + 1) / 2, nil
}

// Ensure Client implements SentimentClient
var _ interfaces.SentimentClient = (*Client)(nil)
