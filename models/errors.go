package models

import "errors"

// Pipeline failure classes. Producers wrap these with %w so callers can
// classify with errors.Is without string matching.
var (
	// ErrInvalidConfig means a required credential or parameter is
	// missing or malformed. Surfaced before any fetch happens.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoData means the data source returned no candles (market
	// closed, unknown symbol, transport failure). No retry, no partial
	// result.
	ErrNoData = errors.New("no candle data available")

	// ErrInsufficientData means fewer bars than a computation needs.
	// Indicator values go undefined instead of raising this; only an
	// empty input series is a hard failure.
	ErrInsufficientData = errors.New("insufficient data")
)
