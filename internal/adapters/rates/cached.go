package rates

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// CachedConverter serves conversions from a fresh cache entry when one
// exists, otherwise fetches the live rate table, and falls back to a
// stale cache entry when the feed is down. Only when all three fail
// does it report ErrUnavailable.
type CachedConverter struct {
	source RateSource
	cache  *Cache
	logger *slog.Logger
}

// Compile-time check that CachedConverter implements Converter
var _ Converter = (*CachedConverter)(nil)

// NewCachedConverter wires a rate source and a cache into a Converter.
func NewCachedConverter(source RateSource, cache *Cache, logger *slog.Logger) *CachedConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedConverter{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// Convert converts amount from one currency to another. Identical
// currencies short-circuit with rate 1.
func (c *CachedConverter) Convert(ctx context.Context, amount float64, from, to string) (Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return Conversion{ConvertedAmount: amount, Rate: 1}, nil
	}

	if rate, stale, ok := c.cache.Get(from, to); ok && !stale {
		return Conversion{ConvertedAmount: amount * rate, Rate: rate}, nil
	}

	table, fetchErr := c.source.FetchRates(ctx)
	if fetchErr == nil {
		rate, err := crossRate(table, from, to)
		if err == nil {
			c.cache.Put(from, to, rate)
			return Conversion{ConvertedAmount: amount * rate, Rate: rate}, nil
		}
		fetchErr = err
	}

	// Feed failed or lacks the pair; a stale entry beats no answer.
	if rate, _, ok := c.cache.Get(from, to); ok {
		c.logger.Warn("serving stale exchange rate",
			"from", from, "to", to, "error", fetchErr)
		return Conversion{ConvertedAmount: amount * rate, Rate: rate, Stale: true}, nil
	}

	return Conversion{}, fmt.Errorf("%w: %s/%s: %v", ErrUnavailable, from, to, fetchErr)
}

// crossRate derives from->to out of a EUR-based table.
func crossRate(table map[string]float64, from, to string) (float64, error) {
	fromRate, okFrom := table[from]
	toRate, okTo := table[to]
	if !okFrom || !okTo || fromRate == 0 {
		return 0, fmt.Errorf("currency pair %s/%s not in rate table", from, to)
	}
	return toRate / fromRate, nil
}
