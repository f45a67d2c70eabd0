package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

// FormatSummary renders the latest bar and the verdict as a short text
// block shared by the CLI output and the Telegram bot.
func FormatSummary(displayName, symbol, timeframe string, rows []models.IndicatorRow, verdict models.SignalVerdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s (%s) · %s\n", signalMark(verdict.Label), displayName, symbol, timeframe)

	if len(rows) > 0 {
		last := rows[len(rows)-1]
		fmt.Fprintf(&b, "last bar %s  close %.2f  vol %s\n",
			last.Bar.Time.Format("15:04"), last.Bar.Close, humanize.Comma(last.Bar.Volume))
		fmt.Fprintf(&b, "MA %s/%s  RSI %s  K %s  D %s\n",
			fmtValue(last.MAShort), fmtValue(last.MALong),
			fmtValue(last.RSI), fmtValue(last.K), fmtValue(last.D))
	}

	fmt.Fprintf(&b, "signal: %s (score %+.1f)\n", verdict.Label, verdict.Score)
	for _, reason := range verdict.Reasons {
		fmt.Fprintf(&b, "  - %s\n", reason)
	}

	return b.String()
}

func fmtValue(v models.NullFloat) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func signalMark(label models.Label) string {
	switch label {
	case models.LabelStrongBullish, models.LabelMildBullish:
		return "📈"
	case models.LabelStrongBearish, models.LabelMildBearish:
		return "📉"
	default:
		return "➖"
	}
}
