package calculate

import "github.com/xgabrieliou-ai/my-stock-dashboard/models"

// RSI computes the relative strength index over a rolling window of
// close-to-close deltas: RS = mean(gains)/mean(losses) over the last
// window deltas, RSI = 100 - 100/(1+RS). When the rolling loss average
// is zero the value is defined as 100. Entries before window+1 closes
// are undefined.
func RSI(closes []float64, window int) []models.NullFloat {
	out := make([]models.NullFloat, len(closes))
	if window <= 0 || len(closes) < window+1 {
		return out
	}

	for i := window; i < len(closes); i++ {
		var gain, loss float64
		for j := i - window + 1; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
		}
		if loss == 0 {
			out[i] = models.Float(100)
			continue
		}
		rs := gain / loss
		out[i] = models.Float(100 - 100/(1+rs))
	}
	return out
}
