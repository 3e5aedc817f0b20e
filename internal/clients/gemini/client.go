// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/models"
)

const DefaultModel = "gemini-2.0-flash"

// Client implements the GeminiClient interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
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

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GenerateContent generates AI content from a prompt
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating content")

	contents := genai.Text(prompt)
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// AnalyzeStock generates AI analysis text for a stock
func (c *Client) AnalyzeStock(ctx context.Context, symbol string, record *models.StockRecord, metrics models.AnalysisMetrics) (string, error) {
	prompt := buildAnalysisPrompt(symbol, record, metrics)
	return c.GenerateContent(ctx, prompt)
}

// buildAnalysisPrompt creates a prompt for stock analysis
func buildAnalysisPrompt(symbol string, record *models.StockRecord, metrics models.AnalysisMetrics) string {
	return fmt.Sprintf(`Analyze this stock and provide a brief investment analysis (3-4 sentences):

Stock: %s
Current Price: %.2f
Change: %.2f%%
52-Week High: %.2f
52-Week Low: %.2f
Average Daily Return: %.2f%%
Volatility: %.2f%%
Win Rate: %.2f%%

Provide a concise analysis focusing on:
1. Current market position
2. Key risk factors
3. Short-term outlook

Keep the response under 100 words and professional.`,
		symbol,
		record.CurrentPrice,
		record.ChangePercent,
		record.FiftyTwoWeekHigh,
		record.FiftyTwoWeekLow,
		metrics.AverageDailyReturn,
		metrics.Volatility,
		metrics.WinRate,
	)
}

// Ensure Client implements GeminiClient
var _ interfaces.GeminiClient = (*Client)(nil)
