package analyze

import "github.com/xgabrieliou-ai/my-stock-dashboard/models"

// Score reduces the latest indicator row to a directional verdict.
// Rules run in a fixed order so the reasons list is deterministic, and
// a rule whose inputs are undefined is skipped outright: it neither
// scores nor leaves a reason. Pure function of its arguments.
func Score(row models.IndicatorRow, weights models.ScoringConfig) models.SignalVerdict {
	var score float64
	var reasons []string

	price := row.Bar.Close

	// Trend vs the long moving average
	if row.MALong.Valid {
		if price > row.MALong.Float64 {
			score++
			reasons = append(reasons, "above long MA")
		} else {
			score--
			reasons = append(reasons, "below long MA")
		}
	}

	// Stochastic cross; equal lines are no cross at all
	if row.K.Valid && row.D.Valid {
		if row.K.Float64 > row.D.Float64 {
			score++
			reasons = append(reasons, "bullish stochastic cross")
		} else if row.K.Float64 < row.D.Float64 {
			score--
			reasons = append(reasons, "bearish stochastic cross")
		}
		if row.K.Float64 < 20 {
			reasons = append(reasons, "oversold")
		}
	}

	// RSI extremes; weight 0 keeps these reason-only
	if row.RSI.Valid {
		if row.RSI.Float64 < 25 {
			score += weights.RSIExtremeWeight
			reasons = append(reasons, "oversold (RSI)")
		} else if row.RSI.Float64 > 75 {
			score -= weights.RSIExtremeWeight
			reasons = append(reasons, "overbought (RSI)")
		}
	}

	// Bollinger breakout
	if weights.BollingerWeight != 0 && row.BBUpper.Valid && row.BBLower.Valid {
		if price > row.BBUpper.Float64 {
			score += weights.BollingerWeight
			reasons = append(reasons, "breakout above upper band")
		} else if price < row.BBLower.Float64 {
			score -= weights.BollingerWeight
			reasons = append(reasons, "breakdown below lower band")
		}
	}

	return models.SignalVerdict{
		Label:   labelFor(score),
		Score:   score,
		Reasons: reasons,
	}
}

// labelFor maps a score to its verdict label, thresholds evaluated
// top-down.
func labelFor(score float64) models.Label {
	switch {
	case score >= 2:
		return models.LabelStrongBullish
	case score >= 1:
		return models.LabelMildBullish
	case score <= -2:
		return models.LabelStrongBearish
	case score <= -1:
		return models.LabelMildBearish
	default:
		return models.LabelNeutral
	}
}
