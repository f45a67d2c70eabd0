package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FUGLE_API_KEY", "test-key")
	t.Setenv("SYMBOL", "")
	t.Setenv("TIMEFRAME", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Symbol != "2330" || cfg.Timeframe != "5min" {
		t.Errorf("default target = %s/%s, want 2330/5min", cfg.Symbol, cfg.Timeframe)
	}
	ind := cfg.Indicators
	if ind.MAShort != 5 || ind.MALong != 20 {
		t.Errorf("default MA windows = %d/%d, want 5/20", ind.MAShort, ind.MALong)
	}
	if ind.RSIPeriod != 6 {
		t.Errorf("default RSI period = %d, want 6", ind.RSIPeriod)
	}
	if ind.StochLen != 9 || ind.StochSmooth != 3 || ind.StochDSmooth != 3 {
		t.Errorf("default stochastic = %d/%d/%d, want 9/3/3", ind.StochLen, ind.StochSmooth, ind.StochDSmooth)
	}
	if ind.MACDFast != 12 || ind.MACDSlow != 26 || ind.MACDSignal != 9 {
		t.Errorf("default MACD = %d/%d/%d, want 12/26/9", ind.MACDFast, ind.MACDSlow, ind.MACDSignal)
	}
	if ind.BBPeriod != 20 || ind.BBStdDev != 2.0 {
		t.Errorf("default Bollinger = %d/%g, want 20/2", ind.BBPeriod, ind.BBStdDev)
	}
	if cfg.Scoring.RSIExtremeWeight != 0 || cfg.Scoring.BollingerWeight != 1 {
		t.Errorf("default scoring weights = %+v", cfg.Scoring)
	}
	if cfg.Journal.Driver != "off" {
		t.Errorf("default journal driver = %q, want off", cfg.Journal.Driver)
	}
	if cfg.Cache.NameTTL != 24*time.Hour {
		t.Errorf("default name TTL = %v, want 24h", cfg.Cache.NameTTL)
	}
	if cfg.HTTP.RequestTimeout != 30 || cfg.HTTP.MaxRetries != 3 {
		t.Errorf("default http settings = %+v", cfg.HTTP)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("FUGLE_API_KEY", "test-key")
	t.Setenv("SYMBOL", "")
	t.Setenv("TIMEFRAME", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `symbol: "0050"
timeframe: 15min
indicators:
  ma_short: 7
scoring:
  bollinger_weight: 0
journal:
  driver: sqlite
  dsn: data/scans.db
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Symbol != "0050" || cfg.Timeframe != "15min" {
		t.Errorf("file values not applied: %s/%s", cfg.Symbol, cfg.Timeframe)
	}
	if cfg.Indicators.MAShort != 7 {
		t.Errorf("ma_short = %d, want 7 from file", cfg.Indicators.MAShort)
	}
	if cfg.Indicators.MALong != 20 {
		t.Errorf("ma_long = %d, absent keys should keep defaults", cfg.Indicators.MALong)
	}
	if cfg.Scoring.BollingerWeight != 0 {
		t.Errorf("bollinger_weight = %g, want 0 from file", cfg.Scoring.BollingerWeight)
	}
	if cfg.Journal.Driver != "sqlite" || cfg.Journal.DSN != "data/scans.db" {
		t.Errorf("journal settings not applied: %+v", cfg.Journal)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("FUGLE_API_KEY", "test-key")
	t.Setenv("SYMBOL", "2603")
	t.Setenv("TIMEFRAME", "")
	t.Setenv("MA_LONG_PERIOD", "30")
	t.Setenv("NAME_CACHE_TTL", "1h")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("symbol: \"0050\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Symbol != "2603" {
		t.Errorf("symbol = %q, environment should win over the file", cfg.Symbol)
	}
	if cfg.Indicators.MALong != 30 {
		t.Errorf("ma_long = %d, want 30 from environment", cfg.Indicators.MALong)
	}
	if cfg.Cache.NameTTL != time.Hour {
		t.Errorf("name TTL = %v, want 1h from environment", cfg.Cache.NameTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *models.Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(cfg *models.Config) {}},
		{name: "missing api key", mutate: func(cfg *models.Config) { cfg.FugleAPIKey = "" }, wantErr: true},
		{name: "empty symbol", mutate: func(cfg *models.Config) { cfg.Symbol = "" }, wantErr: true},
		{name: "unsupported timeframe", mutate: func(cfg *models.Config) { cfg.Timeframe = "7min" }, wantErr: true},
		{name: "zero window", mutate: func(cfg *models.Config) { cfg.Indicators.RSIPeriod = 0 }, wantErr: true},
		{name: "macd fast not shorter", mutate: func(cfg *models.Config) { cfg.Indicators.MACDFast = 26 }, wantErr: true},
		{name: "non-positive bb width", mutate: func(cfg *models.Config) { cfg.Indicators.BBStdDev = 0 }, wantErr: true},
		{name: "narrative without key", mutate: func(cfg *models.Config) { cfg.Narrative.Enabled = true }, wantErr: true},
		{name: "negative retries", mutate: func(cfg *models.Config) { cfg.HTTP.MaxRetries = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.FugleAPIKey = "test-key"
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr {
				if !errors.Is(err, models.ErrInvalidConfig) {
					t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
