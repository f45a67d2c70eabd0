package resample

import (
	"fmt"
	"time"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

// Resample aggregates native candles into fixed-width bars. The bucket
// key is the candle timestamp floored to a multiple of period from the
// unix epoch; a bucket appears in the output only when at least one
// input candle falls into it, so non-trading gaps stay gaps. Input must
// be ordered by strictly increasing timestamp.
//
// Per bucket: open of the earliest candle, close of the latest, max of
// highs, min of lows, sum of volumes. Bar timestamps keep the input
// series' time zone so downstream HH:MM rendering stays in exchange
// local time.
func Resample(series []models.Candle, period time.Duration) ([]models.Candle, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty candle series", models.ErrInsufficientData)
	}
	if period < time.Second || period%time.Second != 0 {
		return nil, fmt.Errorf("%w: unsupported resample period %v", models.ErrInvalidConfig, period)
	}

	step := int64(period / time.Second)
	out := make([]models.Candle, 0, len(series))
	var curKey int64

	for _, c := range series {
		ts := c.Time.Unix()
		key := ts - (ts % step)
		if len(out) == 0 || key != curKey {
			out = append(out, models.Candle{
				Time:   time.Unix(key, 0).In(c.Time.Location()),
				Open:   c.Open,
				High:   c.High,
				Low:    c.Low,
				Close:  c.Close,
				Volume: c.Volume,
			})
			curKey = key
			continue
		}
		bar := &out[len(out)-1]
		if c.High > bar.High {
			bar.High = c.High
		}
		if c.Low < bar.Low {
			bar.Low = c.Low
		}
		bar.Close = c.Close
		bar.Volume += c.Volume
	}

	return out, nil
}
