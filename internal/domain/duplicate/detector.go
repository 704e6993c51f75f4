// Package duplicate partitions an incoming batch of not-yet-persisted
// transactions into duplicates of already-persisted rows and genuinely
// new rows. It only ever compares against the set it is handed: deleted
// transactions are simply absent, so re-importing a file after deleting
// its previous import yields zero duplicates.
package duplicate

import (
	"math"
	"strings"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// MatchType describes how close a duplicate candidate is.
type MatchType string

const (
	// MatchExact means every compared dimension was exactly equal.
	MatchExact MatchType = "exact"
	// MatchTolerance means all dimensions passed within configured
	// tolerances but at least one was not exactly equal.
	MatchTolerance MatchType = "tolerance"
)

// Similarity weights per dimension. Amount dominates, description and
// account break near-ties.
const (
	weightDate        = 0.30
	weightAmount      = 0.35
	weightDescription = 0.20
	weightAccount     = 0.15

	// toleranceDimScore is the credit a dimension earns when it passes
	// only within tolerance rather than exactly.
	toleranceDimScore = 0.75

	amountEpsilon = 1e-6
)

// Match records one incoming transaction judged to duplicate an
// existing one.
type Match struct {
	New         ledger.Transaction `json:"new_transaction"`
	Existing    ledger.Transaction `json:"existing_transaction"`
	Similarity  float64            `json:"similarity"`
	MatchType   MatchType          `json:"match_type"`
	MatchFields []string           `json:"match_fields"`
	AmountDiff  float64            `json:"amount_difference"`
	DaysDiff    int                `json:"days_difference"`
}

// Result partitions an incoming batch.
type Result struct {
	Duplicates []Match              `json:"duplicates"`
	Unique     []ledger.Transaction `json:"unique_transactions"`
}

// Detect compares every incoming transaction against the persisted set.
// Incoming transactions with no sufficiently similar persisted
// counterpart pass through into Unique untouched, sign and amount
// preserved. A nil config means the strict default.
func Detect(incoming, existing []ledger.Transaction, cfg *DetectionConfig) (*Result, error) {
	config := DefaultConfig()
	if cfg != nil {
		config = *cfg
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Duplicates: make([]Match, 0),
		Unique:     make([]ledger.Transaction, 0, len(incoming)),
	}

	for _, in := range incoming {
		if best, found := bestMatch(&in, existing, config); found {
			result.Duplicates = append(result.Duplicates, best)
		} else {
			result.Unique = append(result.Unique, in)
		}
	}

	return result, nil
}

// bestMatch returns the highest-similarity existing transaction that
// passes every configured gate, if any.
func bestMatch(in *ledger.Transaction, existing []ledger.Transaction, cfg DetectionConfig) (Match, bool) {
	var best Match
	found := false

	for i := range existing {
		m, ok := compare(in, &existing[i], cfg)
		if !ok {
			continue
		}
		if !found || m.Similarity > best.Similarity {
			best = m
			found = true
		}
	}

	return best, found
}

// compare evaluates one incoming/existing pair against the config. All
// four dimensions must pass their gate for the pair to count as a
// duplicate at all; similarity then grades how exact the match is.
func compare(in, ex *ledger.Transaction, cfg DetectionConfig) (Match, bool) {
	daysDiff := ledger.DaysBetween(in.Date, ex.Date)
	if daysDiff > cfg.DateToleranceDays {
		return Match{}, false
	}
	dateExact := daysDiff == 0

	// Signed comparison: an outflow is never a duplicate of an inflow.
	amountDiff := math.Abs(in.Amount - ex.Amount)
	amountExact := amountDiff <= amountEpsilon
	if !amountExact {
		larger := math.Max(math.Abs(in.Amount), math.Abs(ex.Amount))
		if larger == 0 || amountDiff/larger > cfg.AmountTolerance+amountEpsilon {
			return Match{}, false
		}
	}

	descExact := in.Description == ex.Description
	if !descExact {
		if cfg.RequireExactDescription {
			return Match{}, false
		}
		if normalizeDescription(in.Description) != normalizeDescription(ex.Description) {
			return Match{}, false
		}
	}

	accountExact := in.Account == ex.Account
	if cfg.RequireSameAccount && !accountExact {
		return Match{}, false
	}

	m := Match{
		New:        *in,
		Existing:   *ex,
		AmountDiff: amountDiff,
		DaysDiff:   daysDiff,
	}

	m.Similarity += dimension(&m, "date", dateExact, weightDate)
	m.Similarity += dimension(&m, "amount", amountExact, weightAmount)
	m.Similarity += dimension(&m, "description", descExact, weightDescription)
	if accountExact {
		m.Similarity += dimension(&m, "account", true, weightAccount)
	}

	if dateExact && amountExact && descExact && accountExact {
		m.MatchType = MatchExact
	} else {
		m.MatchType = MatchTolerance
	}

	return m, true
}

// dimension records a contributing field and returns its weighted score.
func dimension(m *Match, name string, exact bool, weight float64) float64 {
	if exact {
		m.MatchFields = append(m.MatchFields, name)
		return weight
	}
	m.MatchFields = append(m.MatchFields, name+" (tolerance)")
	return weight * toleranceDimScore
}

func normalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
