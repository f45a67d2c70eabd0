package cache

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NameSource looks up the display name for a symbol. The Fugle client
// implements it.
type NameSource interface {
	StockName(ctx context.Context, symbol string) (string, error)
}

// Resolver answers display-name lookups through the cache. On a miss it
// asks the source and caches the result; when the source fails it
// echoes the raw symbol, so resolution is always best effort and never
// blocks a scan.
type Resolver struct {
	source NameSource
	cache  NameCache
	logger zerolog.Logger
}

func NewResolver(source NameSource, cache NameCache) *Resolver {
	return &Resolver{
		source: source,
		cache:  cache,
		logger: log.With().Str("component", "name_resolver").Logger(),
	}
}

func (r *Resolver) DisplayName(ctx context.Context, symbol string) string {
	if name, ok := r.cache.Get(ctx, symbol); ok {
		return name
	}

	name, err := r.source.StockName(ctx, symbol)
	if err != nil || name == "" {
		r.logger.Debug().Err(err).Str("symbol", symbol).Msg("Name lookup failed, echoing symbol")
		return symbol
	}

	r.cache.Set(ctx, symbol, name)
	return name
}
