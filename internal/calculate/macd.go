package calculate

import "github.com/xgabrieliou-ai/my-stock-dashboard/models"

// MACD computes the moving-average convergence-divergence line, its
// signal line and the histogram. All three use first-value-seeded EMAs,
// so they are defined from the first bar onward; the histogram is
// exactly line minus signal at every index.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []models.NullFloat) {
	n := len(closes)
	line = make([]models.NullFloat, n)
	sig = make([]models.NullFloat, n)
	hist = make([]models.NullFloat, n)
	if n == 0 || fast <= 0 || slow <= 0 || signal <= 0 {
		return line, sig, hist
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = fastEMA[i] - slowEMA[i]
	}
	sigEMA := EMA(diff, signal)

	for i := 0; i < n; i++ {
		line[i] = models.Float(diff[i])
		sig[i] = models.Float(sigEMA[i])
		hist[i] = models.Float(diff[i] - sigEMA[i])
	}
	return line, sig, hist
}
