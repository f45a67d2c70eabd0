package models

import (
	"encoding/json"
	"time"
)

// Config carries everything one pipeline invocation needs. It is built
// once per run by the config loader and passed down explicitly; nothing
// reads the environment past that point.
type Config struct {
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"`

	FugleAPIKey  string `yaml:"fugle_api_key"`
	FugleBaseURL string `yaml:"fugle_base_url"`

	Indicators IndicatorConfig `yaml:"indicators"`
	Scoring    ScoringConfig   `yaml:"scoring"`
	Narrative  NarrativeConfig `yaml:"narrative"`
	Telegram   TelegramConfig  `yaml:"telegram"`
	Journal    JournalConfig   `yaml:"journal"`
	Cache      CacheConfig     `yaml:"cache"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	HTTP       HTTPConfig      `yaml:"http"`

	LogLevel string `yaml:"log_level"`
}

// IndicatorConfig holds the window parameters for the indicator engine.
type IndicatorConfig struct {
	MAShort      int     `yaml:"ma_short"`
	MALong       int     `yaml:"ma_long"`
	RSIPeriod    int     `yaml:"rsi_period"`
	StochLen     int     `yaml:"stoch_len"`
	StochSmooth  int     `yaml:"stoch_smooth"`
	StochDSmooth int     `yaml:"stoch_d_smooth"`
	MACDFast     int     `yaml:"macd_fast"`
	MACDSlow     int     `yaml:"macd_slow"`
	MACDSignal   int     `yaml:"macd_signal"`
	BBPeriod     int     `yaml:"bb_period"`
	BBStdDev     float64 `yaml:"bb_std_dev"`
}

// ScoringConfig tunes the optional scorer rules. The base ruleset keeps
// RSI extremes at weight 0 (reason only) and the Bollinger breakout at
// weight 1.
type ScoringConfig struct {
	RSIExtremeWeight float64 `yaml:"rsi_extreme_weight"`
	BollingerWeight  float64 `yaml:"bollinger_weight"`
}

// NarrativeConfig configures the LLM commentary step. Models are tried
// in order; the first success wins.
type NarrativeConfig struct {
	Enabled bool     `yaml:"enabled"`
	APIKey  string   `yaml:"api_key"`
	Models  []string `yaml:"models"`
}

type TelegramConfig struct {
	Token    string `yaml:"token"`
	CronSpec string `yaml:"cron"`
}

type JournalConfig struct {
	Driver string `yaml:"driver"` // off, sqlite, postgres
	DSN    string `yaml:"dsn"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"` // empty means in-memory
	NameTTL   time.Duration `yaml:"name_ttl"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

type HTTPConfig struct {
	RequestTimeout int     `yaml:"request_timeout"` // seconds
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	MaxRetries     int     `yaml:"max_retries"`
}

// Candle represents a single price bar at some period.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// NullFloat is an optional indicator value. Invalid means the indicator
// is undefined at that bar (not enough history); it is never encoded as
// a sentinel number.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float wraps a defined value.
func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Float64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// IndicatorRow is one resampled bar extended with the indicator outputs
// aligned to it. Every output is named explicitly; a missing value is
// Valid=false, never zero.
type IndicatorRow struct {
	Bar        Candle    `json:"bar"`
	MAShort    NullFloat `json:"ma_short"`
	MALong     NullFloat `json:"ma_long"`
	RSI        NullFloat `json:"rsi"`
	K          NullFloat `json:"k"`
	D          NullFloat `json:"d"`
	MACD       NullFloat `json:"macd"`
	MACDSignal NullFloat `json:"macd_signal"`
	MACDHist   NullFloat `json:"macd_hist"`
	BBUpper    NullFloat `json:"bb_upper"`
	BBMiddle   NullFloat `json:"bb_middle"`
	BBLower    NullFloat `json:"bb_lower"`
}

// Label is the discrete directional verdict.
type Label string

const (
	LabelStrongBullish Label = "strong bullish"
	LabelMildBullish   Label = "mildly bullish"
	LabelStrongBearish Label = "strong bearish"
	LabelMildBearish   Label = "mildly bearish"
	LabelNeutral       Label = "neutral / consolidating"
)

// SignalVerdict is the scorer output for the latest row. Reasons keep
// the order the rules fired in.
type SignalVerdict struct {
	Label   Label    `json:"label"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// NarrativePayload is the JSON document handed to the narrative
// collaborator. Data holds the most recent bars keyed by HH:MM; any
// undefined indicator value is already replaced by a placeholder string
// because the format has no notion of NaN.
type NarrativePayload struct {
	Stock      string                    `json:"stock"`
	Timeframe  string                    `json:"timeframe"`
	Indicators map[string]string         `json:"indicators"`
	Data       map[string]map[string]any `json:"data"`
}

// FugleCandlesResponse is the wire shape of the Fugle intraday candles
// endpoint.
type FugleCandlesResponse struct {
	Symbol    string `json:"symbol"`
	Market    string `json:"market"`
	Timeframe string `json:"timeframe"`
	Data      []struct {
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume int64   `json:"volume"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// FugleQuoteResponse carries the subset of the intraday quote endpoint
// we read: the human display name of the symbol.
type FugleQuoteResponse struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Message string `json:"message,omitempty"`
}
