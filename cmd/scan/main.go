package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/api/fugle"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/api/openai"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/cache"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/config"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/pipeline"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/report"
	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	// 1. Load configuration
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting stock scan")
	printConfig(cfg)

	// 3. Setup the market data client and name resolver
	client := fugle.NewClient(fugle.ClientOptions{
		APIKey:         cfg.FugleAPIKey,
		BaseURL:        cfg.FugleBaseURL,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.HTTP.RequestsPerSec,
		MaxRetries:     cfg.HTTP.MaxRetries,
	})
	resolver := cache.NewResolver(client, newNameCache(cfg))

	// 4. Run the scan pipeline
	runner := pipeline.NewRunner(cfg, client, resolver, nil)
	res, err := runner.Run(ctx, cfg.Symbol, cfg.Timeframe)
	if err != nil {
		msg := "Scan failed"
		switch {
		case errors.Is(err, models.ErrInvalidConfig):
			msg = "Configuration rejected"
		case errors.Is(err, models.ErrNoData):
			msg = "No candle data for this symbol"
		case errors.Is(err, models.ErrInsufficientData):
			msg = "Not enough bars for this timeframe"
		}
		log.Fatal().Err(err).Msg(msg)
	}

	// 5. Print the report
	fmt.Println(report.FormatSummary(res.DisplayName, res.Symbol, res.Timeframe, res.Rows, res.Verdict))
	if payloadJSON, err := json.MarshalIndent(res.Payload, "", "  "); err == nil {
		fmt.Println(string(payloadJSON))
	}

	// 6. Optional AI commentary
	if cfg.Narrative.Enabled {
		narrator := openai.NewClient(cfg.Narrative.APIKey, cfg.Narrative.Models)
		commentary, err := narrator.Commentary(ctx, res.Payload)
		if err != nil {
			log.Warn().Err(err).Msg("Commentary unavailable, report stands on its own")
		} else {
			fmt.Println("\nAI commentary:")
			fmt.Println(commentary)
		}
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// newNameCache picks Redis when configured, falling back to the
// in-process cache.
func newNameCache(cfg *models.Config) cache.NameCache {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.Cache.NameTTL)
	}
	rc, err := cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.NameTTL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unreachable, using in-memory name cache")
		return cache.NewMemoryCache(cfg.Cache.NameTTL)
	}
	return rc
}

// printConfig outputs the current configuration
func printConfig(cfg *models.Config) {
	log.Info().
		Str("Symbol", cfg.Symbol).
		Str("Timeframe", cfg.Timeframe).
		Int("MAShort", cfg.Indicators.MAShort).
		Int("MALong", cfg.Indicators.MALong).
		Int("RSIPeriod", cfg.Indicators.RSIPeriod).
		Int("StochLen", cfg.Indicators.StochLen).
		Int("MACDFast", cfg.Indicators.MACDFast).
		Int("MACDSlow", cfg.Indicators.MACDSlow).
		Int("MACDSignal", cfg.Indicators.MACDSignal).
		Int("BBPeriod", cfg.Indicators.BBPeriod).
		Float64("BBStdDev", cfg.Indicators.BBStdDev).
		Bool("Narrative", cfg.Narrative.Enabled).
		Msg("Configuration loaded")
}
