package transfer

import (
	"fmt"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// Match is a candidate or applied pairing of two transfer legs.
// SourceID is the outgoing leg, TargetID the incoming one.
type Match struct {
	ID           string           `json:"id"`
	SourceID     string           `json:"source_transaction_id"`
	TargetID     string           `json:"target_transaction_id"`
	Confidence   float64          `json:"confidence"`
	MatchType    ledger.MatchType `json:"match_type"`
	DateDiffDays int              `json:"date_difference"`
	AmountDiff   float64          `json:"amount_difference"`
	Reasoning    string           `json:"reasoning"`
	IsVerified   bool             `json:"is_verified"`
}

// Result holds the outcome of one matching pass.
type Result struct {
	Matches   []Match              `json:"matches"`
	Unmatched []ledger.Transaction `json:"unmatched"`
}

// Options are the caller-tunable knobs of a matching pass.
type Options struct {
	MaxDaysDifference   int
	TolerancePercentage float64
}

// DefaultAutoOptions returns the automatic matching defaults.
func DefaultAutoOptions() Options {
	return Options{
		MaxDaysDifference:   7,
		TolerancePercentage: 0.01,
	}
}

// DefaultManualOptions returns the relaxed manual matching defaults.
func DefaultManualOptions() Options {
	return Options{
		MaxDaysDifference:   8,
		TolerancePercentage: 0.12,
	}
}

// Validate rejects invalid tolerance values before any scan begins.
func (o Options) Validate() error {
	if o.MaxDaysDifference < 0 {
		return fmt.Errorf("max days difference must not be negative, got %d", o.MaxDaysDifference)
	}
	if o.TolerancePercentage < 0 || o.TolerancePercentage > 1 {
		return fmt.Errorf("tolerance percentage must be in [0,1], got %v", o.TolerancePercentage)
	}
	return nil
}

// matchID derives the identifier of a pairing from its two legs.
func matchID(sourceID, targetID string) string {
	return sourceID + "-" + targetID
}

// pairKey builds the canonical unordered key for two transaction IDs.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
