package calculate

import "github.com/xgabrieliou-ai/my-stock-dashboard/models"

// SMA computes the simple moving average of closes over the given
// window. The result is aligned index-for-index with the input; the
// first window-1 entries are undefined.
func SMA(closes []float64, window int) []models.NullFloat {
	out := make([]models.NullFloat, len(closes))
	if window <= 0 || len(closes) < window {
		return out
	}

	var sum float64
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = models.Float(sum / float64(window))
		}
	}
	return out
}
