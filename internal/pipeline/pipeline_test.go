package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/metrics"
	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

type stubSource struct {
	candles []models.Candle
	err     error
	calls   int
}

func (s *stubSource) Candles(_ context.Context, _ string) ([]models.Candle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func (s *stubSource) StockName(_ context.Context, _ string) (string, error) {
	return "台積電", nil
}

type stubNames struct{ name string }

func (s stubNames) DisplayName(_ context.Context, _ string) string { return s.name }

func testConfig() *models.Config {
	return &models.Config{
		Symbol:    "2330",
		Timeframe: "1min",
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
			BBStdDev:     2,
		},
		Scoring: models.ScoringConfig{RSIExtremeWeight: 0, BollingerWeight: 1},
	}
}

// risingCandles builds n one-minute candles with closes 100, 101, ...
// and a half-point range around each close.
func risingCandles(n int) []models.Candle {
	taipei := time.FixedZone("CST", 8*3600)
	base := time.Date(2024, 3, 8, 9, 0, 0, 0, taipei)

	out := make([]models.Candle, n)
	for i := range out {
		close := 100.0 + float64(i)
		out[i] = models.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   close - 0.25,
			High:   close + 0.5,
			Low:    close - 0.5,
			Close:  close,
			Volume: int64(1000 + i),
		}
	}
	return out
}

// acceleratingCandles builds one-minute candles whose closes rise from
// 100 to 124 with growing increments, so RSV keeps climbing instead of
// pinning at a constant.
func acceleratingCandles(n int) []models.Candle {
	taipei := time.FixedZone("CST", 8*3600)
	base := time.Date(2024, 3, 8, 9, 0, 0, 0, taipei)

	out := make([]models.Candle, n)
	for i := range out {
		close := 100.0 + float64(i*i)/24.0
		out[i] = models.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   close - 0.25,
			High:   close + 0.5,
			Low:    close - 0.5,
			Close:  close,
			Volume: int64(1000 + i),
		}
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	source := &stubSource{candles: risingCandles(25)}
	m := metrics.New(prometheus.NewRegistry())
	runner := NewRunner(testConfig(), source, stubNames{name: "台積電"}, m)

	res, err := runner.Run(context.Background(), "2330", "1min")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(res.Series) != 25 || len(res.Rows) != 25 {
		t.Fatalf("got %d bars and %d rows, want 25 each", len(res.Series), len(res.Rows))
	}

	if res.Rows[18].MALong.Valid {
		t.Error("long MA defined at bar 19, needs 20 closes")
	}
	if v := res.Rows[19].MALong; !v.Valid || v.Float64 != 109.5 {
		t.Errorf("first long MA = %+v, want 109.5", v)
	}

	last := res.LastRow()
	if v := last.MAShort; !v.Valid || v.Float64 != 122 {
		t.Errorf("last short MA = %+v, want 122", v)
	}
	if v := last.MALong; !v.Valid || v.Float64 != 114.5 {
		t.Errorf("last long MA = %+v, want 114.5", v)
	}
	if v := last.RSI; !v.Valid || v.Float64 != 100 {
		t.Errorf("RSI on an all-gain series = %+v, want 100", v)
	}

	// A steady climb pins RSV, so %K equals %D and the cross rule
	// sits this one out; the trend above its rising MA carries the
	// verdict to mildly bullish on its own.
	wantReasons := []string{"above long MA", "overbought (RSI)"}
	if !reflect.DeepEqual(res.Verdict.Reasons, wantReasons) {
		t.Errorf("reasons = %v, want %v", res.Verdict.Reasons, wantReasons)
	}
	if res.Verdict.Score != 1 || res.Verdict.Label != models.LabelMildBullish {
		t.Errorf("verdict = %+v, want mildly bullish at score 1", res.Verdict)
	}

	if res.Payload.Stock != "台積電 (2330)" {
		t.Errorf("payload stock = %q", res.Payload.Stock)
	}
	if len(res.Payload.Data) != 5 {
		t.Errorf("payload carries %d bars, want 5", len(res.Payload.Data))
	}
	lastBar, ok := res.Payload.Data["09:24"]
	if !ok {
		t.Fatalf("payload missing the newest bar, keys: %v", payloadKeys(res.Payload))
	}
	if lastBar["Close"] != 124.0 || lastBar["MA_long"] != 114.5 {
		t.Errorf("newest payload bar = %v", lastBar)
	}
}

func TestRunAcceleratingRallyTurnsBullish(t *testing.T) {
	source := &stubSource{candles: acceleratingCandles(25)}
	runner := NewRunner(testConfig(), source, nil, nil)

	res, err := runner.Run(context.Background(), "2330", "1min")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Series) != 25 {
		t.Fatalf("got %d bars, want 25", len(res.Series))
	}

	for i := 0; i < 19; i++ {
		if res.Rows[i].MALong.Valid {
			t.Fatalf("long MA defined at bar %d, needs 20 closes", i+1)
		}
	}
	for i := 19; i < 25; i++ {
		if !res.Rows[i].MALong.Valid {
			t.Fatalf("long MA undefined at bar %d", i+1)
		}
	}

	// Rising RSV keeps %K strictly ahead of its own smoothing, so
	// the cross rule joins the trend rule.
	wantReasons := []string{"above long MA", "bullish stochastic cross", "overbought (RSI)"}
	if !reflect.DeepEqual(res.Verdict.Reasons, wantReasons) {
		t.Errorf("reasons = %v, want %v", res.Verdict.Reasons, wantReasons)
	}
	if res.Verdict.Score != 2 || res.Verdict.Label != models.LabelStrongBullish {
		t.Errorf("verdict = %+v, want strong bullish at score 2", res.Verdict)
	}
}

func TestRunResamplesToTimeframe(t *testing.T) {
	source := &stubSource{candles: risingCandles(25)}
	runner := NewRunner(testConfig(), source, nil, nil)

	res, err := runner.Run(context.Background(), "2330", "5min")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Series) != 5 {
		t.Fatalf("got %d resampled bars, want 5", len(res.Series))
	}
	if res.DisplayName != "2330" {
		t.Errorf("display name = %q, want the symbol when no resolver is set", res.DisplayName)
	}

	// Five bars cannot warm up any of the configured windows.
	if res.Verdict.Label != models.LabelNeutral || len(res.Verdict.Reasons) != 0 {
		t.Errorf("verdict on a cold series = %+v, want bare neutral", res.Verdict)
	}
}

func TestRunValidatesBeforeFetch(t *testing.T) {
	source := &stubSource{candles: risingCandles(25)}
	runner := NewRunner(testConfig(), source, nil, nil)

	if _, err := runner.Run(context.Background(), "2330", "7min"); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("unsupported timeframe: got %v, want ErrInvalidConfig", err)
	}

	cfg := testConfig()
	cfg.Indicators.MACDFast = 30
	runner = NewRunner(cfg, source, nil, nil)
	if _, err := runner.Run(context.Background(), "2330", "1min"); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("inverted MACD windows: got %v, want ErrInvalidConfig", err)
	}

	if source.calls != 0 {
		t.Errorf("source was called %d times before validation passed", source.calls)
	}
}

func TestRunFetchFailure(t *testing.T) {
	source := &stubSource{err: fmt.Errorf("api: %w", models.ErrNoData)}
	runner := NewRunner(testConfig(), source, nil, nil)

	if _, err := runner.Run(context.Background(), "2330", "1min"); !errors.Is(err, models.ErrNoData) {
		t.Errorf("got %v, want ErrNoData", err)
	}

	source = &stubSource{}
	runner = NewRunner(testConfig(), source, nil, nil)
	if _, err := runner.Run(context.Background(), "2330", "1min"); !errors.Is(err, models.ErrNoData) {
		t.Errorf("empty series: got %v, want ErrNoData", err)
	}
}

func payloadKeys(p *models.NarrativePayload) []string {
	keys := make([]string, 0, len(p.Data))
	for k := range p.Data {
		keys = append(keys, k)
	}
	return keys
}
