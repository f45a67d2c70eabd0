package resample

import (
	"errors"
	"testing"
	"time"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

var taipei = time.FixedZone("CST", 8*60*60)

func minuteCandles(start time.Time, count int, gen func(i int) models.Candle) []models.Candle {
	candles := make([]models.Candle, count)
	for i := 0; i < count; i++ {
		c := gen(i)
		c.Time = start.Add(time.Duration(i) * time.Minute)
		candles[i] = c
	}
	return candles
}

func TestResampleBucketAggregation(t *testing.T) {
	day := time.Date(2024, 3, 8, 0, 0, 0, 0, taipei)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	series := []models.Candle{
		{Time: at(9, 1), Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Time: at(9, 2), Open: 11, High: 15, Low: 10, Close: 14, Volume: 200},
		{Time: at(9, 4), Open: 14, High: 14, Low: 8, Close: 9, Volume: 50},
		{Time: at(9, 6), Open: 9, High: 10, Low: 9, Close: 10, Volume: 25},
	}

	bars, err := Resample(series, 5*time.Minute)
	if err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	first := bars[0]
	if !first.Time.Equal(at(9, 0)) {
		t.Errorf("first bucket key = %v, want %v", first.Time, at(9, 0))
	}
	if first.Open != 10 || first.High != 15 || first.Low != 8 || first.Close != 9 {
		t.Errorf("first bar OHLC = %+v, want open=10 high=15 low=8 close=9", first)
	}
	if first.Volume != 350 {
		t.Errorf("first bar volume = %d, want 350", first.Volume)
	}

	second := bars[1]
	if !second.Time.Equal(at(9, 5)) {
		t.Errorf("second bucket key = %v, want %v", second.Time, at(9, 5))
	}
	if second.Open != 9 || second.Close != 10 || second.Volume != 25 {
		t.Errorf("second bar = %+v, want open=9 close=10 volume=25", second)
	}
}

func TestResampleDropsEmptyBuckets(t *testing.T) {
	start := time.Date(2024, 3, 8, 9, 1, 0, 0, taipei)
	series := []models.Candle{
		{Time: start, Open: 10, High: 10, Low: 10, Close: 10, Volume: 1},
		{Time: start.Add(25 * time.Minute), Open: 11, High: 11, Low: 11, Close: 11, Volume: 1},
	}

	bars, err := Resample(series, 5*time.Minute)
	if err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected the empty buckets to be dropped, got %d bars", len(bars))
	}
}

func TestResampleConservesVolume(t *testing.T) {
	start := time.Date(2024, 3, 8, 9, 0, 0, 0, taipei)
	series := minuteCandles(start, 60, func(i int) models.Candle {
		price := 100 + float64(i)
		return models.Candle{Open: price, High: price + 1, Low: price - 1, Close: price, Volume: int64(i*3 + 7)}
	})

	var want int64
	for _, c := range series {
		want += c.Volume
	}

	bars, err := Resample(series, 10*time.Minute)
	if err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}

	var got int64
	for i, b := range bars {
		got += b.Volume
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			t.Errorf("bars out of order at %d: %v then %v", i, bars[i-1].Time, b.Time)
		}
	}
	if got != want {
		t.Errorf("total volume = %d, want %d", got, want)
	}
}

func TestResampleNativePeriodIsIdentity(t *testing.T) {
	start := time.Date(2024, 3, 8, 13, 0, 0, 0, taipei)
	series := minuteCandles(start, 10, func(i int) models.Candle {
		price := 50 + float64(i)*0.5
		return models.Candle{Open: price, High: price + 0.2, Low: price - 0.2, Close: price + 0.1, Volume: 10}
	})

	bars, err := Resample(series, time.Minute)
	if err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}
	if len(bars) != len(series) {
		t.Fatalf("expected %d bars, got %d", len(series), len(bars))
	}
	for i := range bars {
		if !bars[i].Time.Equal(series[i].Time) {
			t.Errorf("bar %d time = %v, want %v", i, bars[i].Time, series[i].Time)
		}
		if bars[i].Open != series[i].Open || bars[i].High != series[i].High ||
			bars[i].Low != series[i].Low || bars[i].Close != series[i].Close ||
			bars[i].Volume != series[i].Volume {
			t.Errorf("bar %d = %+v, want %+v", i, bars[i], series[i])
		}
	}
}

func TestResampleEmptyInput(t *testing.T) {
	if _, err := Resample(nil, time.Minute); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestResampleInvalidPeriod(t *testing.T) {
	series := []models.Candle{{Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}}
	if _, err := Resample(series, 0); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero period, got %v", err)
	}
}
