// Package app wires configuration, clients, and services into the shared
// application core used by cmd/stockpulse-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rsharda/stockpulse/internal/cache"
	"github.com/rsharda/stockpulse/internal/clients/gemini"
	"github.com/rsharda/stockpulse/internal/clients/huggingface"
	"github.com/rsharda/stockpulse/internal/clients/stooq"
	"github.com/rsharda/stockpulse/internal/clients/yahoo"
	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/ratelimit"
	"github.com/rsharda/stockpulse/internal/services/analysis"
	"github.com/rsharda/stockpulse/internal/services/prediction"
	"github.com/rsharda/stockpulse/internal/services/stockdata"
)

// App holds all initialized services and clients. It is the shared core
// behind the HTTP server.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	GeminiClient      interfaces.GeminiClient
	StockService      interfaces.StockService
	PredictionService interfaces.PredictionService
	AnalysisService   interfaces.AnalysisService
	StartupTime       time.Time

	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, clients, and services. configPath may be
// empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Check provided path, STOCKPULSE_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("STOCKPULSE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "stockpulse.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockpulse.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	stooqClient := stooq.NewClient(
		stooq.WithBaseURL(config.Clients.Stooq.BaseURL),
		stooq.WithRateLimit(config.Clients.Stooq.RateLimit),
		stooq.WithTimeout(config.Clients.Stooq.GetTimeout()),
		stooq.WithLogger(logger),
	)

	ctx := context.Background()

	var geminiClient interfaces.GeminiClient
	geminiKey := common.ResolveAPIKey("gemini", config.Clients.Gemini.APIKey)
	if geminiKey != "" {
		client, err := gemini.NewClient(ctx, geminiKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini client unavailable - analysis will use template text")
		} else {
			geminiClient = client
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - analysis will use template text")
	}

	hfKey := common.ResolveAPIKey("huggingface", config.Clients.HuggingFace.APIKey)
	var sentimentClient interfaces.SentimentClient = huggingface.NewClient(hfKey,
		huggingface.WithBaseURL(config.Clients.HuggingFace.BaseURL),
		huggingface.WithModel(config.Clients.HuggingFace.Model),
		huggingface.WithTimeout(config.Clients.HuggingFace.GetTimeout()),
		huggingface.WithLogger(logger),
	)
	if hfKey == "" {
		logger.Warn().Msg("HuggingFace API key not configured - sentiment reads neutral")
	}

	responseCache := cache.New(config.Limits.GetCacheTTL())
	limiter := ratelimit.New(config.Limits.RateMax, config.Limits.GetRateWindow())

	stockService := stockdata.NewService(
		[]interfaces.StockProvider{yahooClient, stooqClient},
		yahooClient,
		responseCache,
		limiter,
		logger,
	)

	app := &App{
		Config:            config,
		Logger:            logger,
		GeminiClient:      geminiClient,
		StockService:      stockService,
		PredictionService: prediction.NewService(sentimentClient, logger),
		AnalysisService:   analysis.NewService(geminiClient, logger),
		StartupTime:       time.Now(),
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("version", common.GetVersion()).
		Msg("Application initialized")

	return app, nil
}

// StartWarmCache launches the startup prefetch in the background.
func (a *App) StartWarmCache() {
	ctx, cancel := context.WithCancel(context.Background())
	a.warmCacheCancel = cancel
	go warmCache(ctx, a.StockService, a.Logger)
}

// Close stops background work.
func (a *App) Close() {
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
	}
	a.Logger.Info().Msg("Application closed")
}
