package models

import "context"

// CandleSource supplies native-resolution candles and display names for
// a symbol. The Fugle client implements it; tests use stubs.
type CandleSource interface {
	Candles(ctx context.Context, symbol string) ([]Candle, error)
	StockName(ctx context.Context, symbol string) (string, error)
}

// Narrator turns a payload into free-text commentary. Implementations
// decide their own fallback policy; a returned error is never fatal to
// the pipeline.
type Narrator interface {
	Commentary(ctx context.Context, payload *NarrativePayload) (string, error)
}
