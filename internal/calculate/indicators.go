package calculate

import "github.com/xgabrieliou-ai/my-stock-dashboard/models"

// Closes extracts the close column from a bar series.
func Closes(candles []models.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// BuildRows runs the full indicator set over a resampled series and
// returns one row per bar with every output aligned index-for-index.
// Bars without enough history simply carry undefined values; this
// never fails.
func BuildRows(bars []models.Candle, cfg models.IndicatorConfig) []models.IndicatorRow {
	closes := Closes(bars)

	maShort := SMA(closes, cfg.MAShort)
	maLong := SMA(closes, cfg.MALong)
	rsi := RSI(closes, cfg.RSIPeriod)
	k, d := Stochastic(bars, cfg.StochLen, cfg.StochSmooth, cfg.StochDSmooth)
	macdLine, macdSig, macdHist := MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	bbUpper, bbMiddle, bbLower := BollingerBands(closes, cfg.BBPeriod, cfg.BBStdDev)

	rows := make([]models.IndicatorRow, len(bars))
	for i, bar := range bars {
		rows[i] = models.IndicatorRow{
			Bar:        bar,
			MAShort:    maShort[i],
			MALong:     maLong[i],
			RSI:        rsi[i],
			K:          k[i],
			D:          d[i],
			MACD:       macdLine[i],
			MACDSignal: macdSig[i],
			MACDHist:   macdHist[i],
			BBUpper:    bbUpper[i],
			BBMiddle:   bbMiddle[i],
			BBLower:    bbLower[i],
		}
	}
	return rows
}
