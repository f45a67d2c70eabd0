package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/analyze"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/calculate"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/config"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/metrics"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/report"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/resample"
	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

// NameResolver turns a symbol into a display name. Implementations
// must not fail; the symbol itself is an acceptable answer.
type NameResolver interface {
	DisplayName(ctx context.Context, symbol string) string
}

// Result is everything one scan produced.
type Result struct {
	Symbol      string
	DisplayName string
	Timeframe   string
	Series      []models.Candle
	Rows        []models.IndicatorRow
	Verdict     models.SignalVerdict
	Payload     *models.NarrativePayload
}

// LastRow returns the indicator row the verdict was scored on.
func (r *Result) LastRow() models.IndicatorRow {
	return r.Rows[len(r.Rows)-1]
}

// Runner wires the scan stages together: fetch, resample, indicators,
// score, payload. It is safe for concurrent use.
type Runner struct {
	cfg     *models.Config
	source  models.CandleSource
	names   NameResolver
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRunner builds a Runner. names and m may be nil; the symbol then
// doubles as display name and no metrics are recorded.
func NewRunner(cfg *models.Config, source models.CandleSource, names NameResolver, m *metrics.Metrics) *Runner {
	return &Runner{
		cfg:     cfg,
		source:  source,
		names:   names,
		metrics: m,
		logger:  log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one scan for symbol at timeframe. The configuration is
// checked before anything goes over the wire.
func (r *Runner) Run(ctx context.Context, symbol, timeframe string) (*Result, error) {
	started := time.Now()

	period, err := models.ParseTimeframe(timeframe)
	if err != nil {
		r.countError("invalid_config")
		return nil, err
	}
	if err := config.ValidateIndicators(r.cfg.Indicators); err != nil {
		r.countError("invalid_config")
		return nil, err
	}

	fetchStart := time.Now()
	candles, err := r.source.Candles(ctx, symbol)
	if r.metrics != nil {
		r.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	}
	if err != nil {
		r.countError("fetch")
		return nil, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		r.countError("fetch")
		return nil, fmt.Errorf("%w: source returned no candles for %s", models.ErrNoData, symbol)
	}

	bars, err := resample.Resample(candles, period)
	if err != nil {
		r.countError("resample")
		return nil, fmt.Errorf("resample %s to %s: %w", symbol, timeframe, err)
	}

	rows := calculate.BuildRows(bars, r.cfg.Indicators)
	verdict := analyze.Score(rows[len(rows)-1], r.cfg.Scoring)

	displayName := symbol
	if r.names != nil {
		displayName = r.names.DisplayName(ctx, symbol)
	}
	payload := report.BuildPayload(displayName, symbol, timeframe, rows, r.cfg.Indicators)

	if r.metrics != nil {
		r.metrics.ScansTotal.WithLabelValues(symbol, timeframe).Inc()
		r.metrics.LastScore.WithLabelValues(symbol).Set(verdict.Score)
		r.metrics.ScanDuration.Observe(time.Since(started).Seconds())
	}
	r.logger.Info().
		Str("symbol", symbol).
		Str("timeframe", timeframe).
		Int("bars", len(bars)).
		Str("label", string(verdict.Label)).
		Float64("score", verdict.Score).
		Msg("Scan complete")

	return &Result{
		Symbol:      symbol,
		DisplayName: displayName,
		Timeframe:   timeframe,
		Series:      bars,
		Rows:        rows,
		Verdict:     verdict,
		Payload:     payload,
	}, nil
}

func (r *Runner) countError(stage string) {
	if r.metrics != nil {
		r.metrics.ScanErrorsTotal.WithLabelValues(stage).Inc()
	}
}
