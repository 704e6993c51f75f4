// Package rates provides the currency-rate collaborator used by the
// transfer matching engine: a reference-rate feed client, a TTL cache
// with an explicit stale-read mode, and a converter that chains them.
package rates

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no rate could be obtained from the
// feed or the cache (fresh or stale). Callers are expected to degrade
// to a wide tolerance band rather than fail.
var ErrUnavailable = errors.New("exchange rate unavailable")

// Conversion is the result of converting an amount between currencies.
type Conversion struct {
	ConvertedAmount float64
	Rate            float64
	Stale           bool // true when served from an expired cache entry
}

// Converter converts an amount between two ISO currency codes.
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (Conversion, error)
}
