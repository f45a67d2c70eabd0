package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

// Load builds the runtime configuration. Values resolve in three
// layers: built-in defaults, then an optional YAML file at path, then
// environment variables. A .env file in the working directory is
// honored before the environment is read.
func Load(path string) (*models.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *models.Config {
	return &models.Config{
		Symbol:    "2330",
		Timeframe: "5min",
		Indicators: models.IndicatorConfig{
			MAShort:      5,
			MALong:       20,
			RSIPeriod:    6,
			StochLen:     9,
			StochSmooth:  3,
			StochDSmooth: 3,
			MACDFast:     12,
			MACDSlow:     26,
			MACDSignal:   9,
			BBPeriod:     20,
			BBStdDev:     2.0,
		},
		Scoring: models.ScoringConfig{
			RSIExtremeWeight: 0,
			BollingerWeight:  1,
		},
		Narrative: models.NarrativeConfig{
			Models: []string{"gpt-4o-mini", "gpt-3.5-turbo"},
		},
		Journal: models.JournalConfig{Driver: "off"},
		Cache:   models.CacheConfig{NameTTL: 24 * time.Hour},
		HTTP: models.HTTPConfig{
			RequestTimeout: 30,
			RequestsPerSec: 5,
			MaxRetries:     3,
		},
		LogLevel: "info",
	}
}

func applyEnv(cfg *models.Config) {
	envString(&cfg.Symbol, "SYMBOL")
	envString(&cfg.Timeframe, "TIMEFRAME")
	envString(&cfg.FugleAPIKey, "FUGLE_API_KEY")
	envString(&cfg.FugleBaseURL, "FUGLE_BASE_URL")

	envInt(&cfg.Indicators.MAShort, "MA_SHORT_PERIOD")
	envInt(&cfg.Indicators.MALong, "MA_LONG_PERIOD")
	envInt(&cfg.Indicators.RSIPeriod, "RSI_PERIOD")
	envInt(&cfg.Indicators.StochLen, "STOCH_LEN")
	envInt(&cfg.Indicators.StochSmooth, "STOCH_SMOOTH")
	envInt(&cfg.Indicators.StochDSmooth, "STOCH_D_SMOOTH")
	envInt(&cfg.Indicators.MACDFast, "MACD_FAST_PERIOD")
	envInt(&cfg.Indicators.MACDSlow, "MACD_SLOW_PERIOD")
	envInt(&cfg.Indicators.MACDSignal, "MACD_SIGNAL_PERIOD")
	envInt(&cfg.Indicators.BBPeriod, "BB_PERIOD")
	envFloat(&cfg.Indicators.BBStdDev, "BB_STD_DEV")

	envFloat(&cfg.Scoring.RSIExtremeWeight, "RSI_EXTREME_WEIGHT")
	envFloat(&cfg.Scoring.BollingerWeight, "BOLLINGER_WEIGHT")

	envBool(&cfg.Narrative.Enabled, "NARRATIVE_ENABLED")
	envString(&cfg.Narrative.APIKey, "OPENAI_API_KEY")
	if v := os.Getenv("OPENAI_MODELS"); v != "" {
		var ms []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				ms = append(ms, m)
			}
		}
		if len(ms) > 0 {
			cfg.Narrative.Models = ms
		}
	}

	envString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	envString(&cfg.Telegram.CronSpec, "SCAN_CRON")

	envString(&cfg.Journal.Driver, "JOURNAL_DRIVER")
	envString(&cfg.Journal.DSN, "JOURNAL_DSN")

	envString(&cfg.Cache.RedisAddr, "REDIS_ADDR")
	envDuration(&cfg.Cache.NameTTL, "NAME_CACHE_TTL")

	envString(&cfg.Metrics.Addr, "METRICS_ADDR")

	envInt(&cfg.HTTP.RequestTimeout, "REQUEST_TIMEOUT")
	envFloat(&cfg.HTTP.RequestsPerSec, "REQUESTS_PER_SEC")
	envInt(&cfg.HTTP.MaxRetries, "MAX_RETRIES")

	envString(&cfg.LogLevel, "LOG_LEVEL")
}

// Validate checks the parts of the configuration the pipeline depends
// on. Every failure wraps models.ErrInvalidConfig.
func Validate(cfg *models.Config) error {
	if cfg.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", models.ErrInvalidConfig)
	}
	if cfg.FugleAPIKey == "" {
		return fmt.Errorf("%w: FUGLE_API_KEY is required", models.ErrInvalidConfig)
	}
	if _, err := models.ParseTimeframe(cfg.Timeframe); err != nil {
		return err
	}
	if err := ValidateIndicators(cfg.Indicators); err != nil {
		return err
	}
	if cfg.Narrative.Enabled && cfg.Narrative.APIKey == "" {
		return fmt.Errorf("%w: narrative enabled but OPENAI_API_KEY is empty", models.ErrInvalidConfig)
	}
	if cfg.HTTP.RequestTimeout < 0 || cfg.HTTP.RequestsPerSec < 0 || cfg.HTTP.MaxRetries < 0 {
		return fmt.Errorf("%w: http settings must not be negative", models.ErrInvalidConfig)
	}
	return nil
}

// ValidateIndicators rejects window parameters the indicator engine
// cannot compute with.
func ValidateIndicators(ind models.IndicatorConfig) error {
	windows := []struct {
		name string
		v    int
	}{
		{"ma_short", ind.MAShort},
		{"ma_long", ind.MALong},
		{"rsi_period", ind.RSIPeriod},
		{"stoch_len", ind.StochLen},
		{"stoch_smooth", ind.StochSmooth},
		{"stoch_d_smooth", ind.StochDSmooth},
		{"macd_fast", ind.MACDFast},
		{"macd_slow", ind.MACDSlow},
		{"macd_signal", ind.MACDSignal},
		{"bb_period", ind.BBPeriod},
	}
	for _, w := range windows {
		if w.v < 1 {
			return fmt.Errorf("%w: %s must be at least 1, got %d", models.ErrInvalidConfig, w.name, w.v)
		}
	}
	if ind.MACDFast >= ind.MACDSlow {
		return fmt.Errorf("%w: macd_fast %d must be shorter than macd_slow %d", models.ErrInvalidConfig, ind.MACDFast, ind.MACDSlow)
	}
	if ind.BBStdDev <= 0 {
		return fmt.Errorf("%w: bb_std_dev must be positive, got %g", models.ErrInvalidConfig, ind.BBStdDev)
	}
	return nil
}

// Helper functions for environment variable overrides.
func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1" || v == "yes"
	}
}

func envDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
