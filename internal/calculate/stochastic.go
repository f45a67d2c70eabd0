package calculate

import "github.com/xgabrieliou-ai/my-stock-dashboard/models"

// Stochastic computes the slow stochastic oscillator. RSV compares the
// close to the high-low range of the last kLen bars (defined as 50 when
// the range is zero). %K smooths RSV with the recursive form
// K = K + (RSV-K)/kSmooth seeded by the first RSV; %D applies the same
// recursion to %K. Both outputs are undefined before kLen bars exist.
func Stochastic(candles []models.Candle, kLen, kSmooth, dSmooth int) (k, d []models.NullFloat) {
	n := len(candles)
	k = make([]models.NullFloat, n)
	d = make([]models.NullFloat, n)
	if kLen <= 0 || kSmooth <= 0 || dSmooth <= 0 || n < kLen {
		return k, d
	}

	alphaK := 1 / float64(kSmooth)
	alphaD := 1 / float64(dSmooth)
	var kVal, dVal float64
	seeded := false

	for i := kLen - 1; i < n; i++ {
		lo := candles[i].Low
		hi := candles[i].High
		for j := i - kLen + 1; j < i; j++ {
			if candles[j].Low < lo {
				lo = candles[j].Low
			}
			if candles[j].High > hi {
				hi = candles[j].High
			}
		}

		rsv := 50.0
		if hi > lo {
			rsv = (candles[i].Close - lo) / (hi - lo) * 100
		}

		if !seeded {
			kVal = rsv
			dVal = rsv
			seeded = true
		} else {
			kVal += alphaK * (rsv - kVal)
			dVal += alphaD * (kVal - dVal)
		}
		k[i] = models.Float(kVal)
		d[i] = models.Float(dVal)
	}
	return k, d
}
