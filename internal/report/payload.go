package report

import (
	"fmt"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

// Placeholder replaces undefined indicator values in the payload, since
// JSON has no notion of NaN and the narrative collaborator must never
// mistake missing history for a real number.
const Placeholder = "insufficient data"

// PayloadBars caps how many of the latest bars are serialized for the
// narrative collaborator.
const PayloadBars = 5

// Descriptions names each indicator with its configured parameters so
// the narrative collaborator knows what it is looking at.
func Descriptions(cfg models.IndicatorConfig) map[string]string {
	return map[string]string{
		"MA":        fmt.Sprintf("MA%d vs MA%d", cfg.MAShort, cfg.MALong),
		"RSI":       fmt.Sprintf("RSI(%d)", cfg.RSIPeriod),
		"MACD":      fmt.Sprintf("%d,%d,%d", cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		"KD":        fmt.Sprintf("%d,%d,%d (Slow)", cfg.StochLen, cfg.StochSmooth, cfg.StochDSmooth),
		"Bollinger": fmt.Sprintf("%d, %g", cfg.BBPeriod, cfg.BBStdDev),
	}
}

// BuildPayload serializes the most recent bars into the document handed
// to the narrative collaborator. Bars are keyed by HH:MM in the bar's
// own time zone; undefined values are replaced by Placeholder.
func BuildPayload(displayName, symbol, timeframe string, rows []models.IndicatorRow, cfg models.IndicatorConfig) *models.NarrativePayload {
	tail := rows
	if len(tail) > PayloadBars {
		tail = tail[len(tail)-PayloadBars:]
	}

	data := make(map[string]map[string]any, len(tail))
	for _, row := range tail {
		data[row.Bar.Time.Format("15:04")] = map[string]any{
			"Open":        row.Bar.Open,
			"High":        row.Bar.High,
			"Low":         row.Bar.Low,
			"Close":       row.Bar.Close,
			"Volume":      row.Bar.Volume,
			"MA_short":    cell(row.MAShort),
			"MA_long":     cell(row.MALong),
			"RSI":         cell(row.RSI),
			"MACD":        cell(row.MACD),
			"MACD_Signal": cell(row.MACDSignal),
			"MACD_Hist":   cell(row.MACDHist),
			"K":           cell(row.K),
			"D":           cell(row.D),
			"BB_Upper":    cell(row.BBUpper),
			"BB_Middle":   cell(row.BBMiddle),
			"BB_Lower":    cell(row.BBLower),
		}
	}

	return &models.NarrativePayload{
		Stock:      fmt.Sprintf("%s (%s)", displayName, symbol),
		Timeframe:  timeframe,
		Indicators: Descriptions(cfg),
		Data:       data,
	}
}

func cell(v models.NullFloat) any {
	if !v.Valid {
		return Placeholder
	}
	return v.Float64
}
