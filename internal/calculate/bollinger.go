package calculate

import (
	"math"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

// BollingerBands computes the volatility envelope: middle is the SMA of
// closes over window, the band half-width is stdK times the population
// standard deviation over the same window. Entries before window bars
// are undefined.
func BollingerBands(closes []float64, window int, stdK float64) (upper, middle, lower []models.NullFloat) {
	n := len(closes)
	upper = make([]models.NullFloat, n)
	middle = make([]models.NullFloat, n)
	lower = make([]models.NullFloat, n)
	if window <= 0 || n < window {
		return upper, middle, lower
	}

	for i := window - 1; i < n; i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += closes[j]
		}
		mean := sum / float64(window)

		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := closes[j] - mean
			variance += d * d
		}
		band := stdK * math.Sqrt(variance/float64(window))

		middle[i] = models.Float(mean)
		upper[i] = models.Float(mean + band)
		lower[i] = models.Float(mean - band)
	}
	return upper, middle, lower
}
