package calculate

// EMA computes an exponential moving average seeded with the first
// value and updated recursively with alpha = 2/(span+1). Because of the
// first-value seed the output is defined at every index; callers that
// need a warm-up treat early values as provisional.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}

	alpha := 2 / float64(span+1)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema += alpha * (values[i] - ema)
		out[i] = ema
	}
	return out
}
