package duplicate

import "fmt"

// DetectionConfig tunes how aggressively re-imported transactions are
// flagged as duplicates. The zero configuration is intentionally strict:
// a false positive silently blocks a legitimate re-import, which is far
// worse than letting a near-duplicate through for manual cleanup.
type DetectionConfig struct {
	// AmountTolerance is the allowed relative amount deviation (fraction
	// of the larger amount). 0 requires exact equality.
	AmountTolerance float64
	// DateToleranceDays is the allowed whole-day date gap. 0 requires the
	// same calendar day.
	DateToleranceDays int
	// RequireExactDescription demands byte-equal descriptions; when false
	// a whitespace/case-normalized comparison is used instead.
	RequireExactDescription bool
	// RequireSameAccount demands the same owning account.
	RequireSameAccount bool
}

// DefaultConfig returns the strict duplicate check used when the caller
// supplies no configuration.
func DefaultConfig() DetectionConfig {
	return DetectionConfig{
		AmountTolerance:         0,
		DateToleranceDays:       0,
		RequireExactDescription: true,
		RequireSameAccount:      true,
	}
}

// Validate rejects invalid tolerance values before any scan begins.
func (c DetectionConfig) Validate() error {
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance must not be negative, got %d", c.DateToleranceDays)
	}
	if c.AmountTolerance < 0 || c.AmountTolerance > 1 {
		return fmt.Errorf("amount tolerance must be in [0,1], got %v", c.AmountTolerance)
	}
	return nil
}
