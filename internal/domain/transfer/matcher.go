// Package transfer implements transfer reconciliation: pairing the two
// legs of money moving between a user's own accounts, automatically at
// import time and manually on request.
//
// Automatic matching is greedy and one-to-one: candidates are scored
// with tight tolerances, ranked deterministically, and each transaction
// is claimed by at most one pair. Manual matching relaxes the bands and
// offers a menu of plausible pairs without committing anything.
package transfer

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// Matcher finds and applies transfer pairings over a transaction snapshot.
type Matcher struct {
	resolver *ToleranceResolver
	logger   *slog.Logger
}

// NewMatcher creates a matcher using the given tolerance resolver.
func NewMatcher(resolver *ToleranceResolver, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		resolver: resolver,
		logger:   logger,
	}
}

// FindMatches is the read-only preview of automatic matching: it scores
// every unordered candidate pair with strict tolerances and greedily
// selects a one-to-one set, without writing anything.
func (m *Matcher) FindMatches(ctx context.Context, txns []ledger.Transaction, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	eligible := eligibleIndexes(txns)
	candidates := m.scanPairs(ctx, txns, eligible, ModeAutomatic, opts)
	sortCandidates(candidates)
	candidates = DedupePairs(candidates)

	claimed := make(map[string]bool)
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if claimed[c.SourceID] || claimed[c.TargetID] {
			continue
		}
		claimed[c.SourceID] = true
		claimed[c.TargetID] = true
		matches = append(matches, c)
	}

	unmatched := make([]ledger.Transaction, 0)
	for _, i := range eligible {
		if !claimed[txns[i].ID] {
			unmatched = append(unmatched, txns[i])
		}
	}

	m.logger.Debug("automatic matching pass complete",
		"eligible", len(eligible), "matches", len(matches), "unmatched", len(unmatched))

	return &Result{Matches: matches, Unmatched: unmatched}, nil
}

// AutoMatch runs FindMatches and commits the result: every selected pair
// gets reciprocal reimbursement links and structured provenance written
// onto a copy of the snapshot. Transactions without a plausible
// counterpart are left untouched; that is expected steady state, not an
// error.
func (m *Matcher) AutoMatch(ctx context.Context, txns []ledger.Transaction, opts Options) ([]ledger.Transaction, *Result, error) {
	result, err := m.FindMatches(ctx, txns, opts)
	if err != nil {
		return nil, nil, err
	}

	out := ledger.CloneAll(txns)
	byID := indexByID(out)
	now := time.Now()
	for _, match := range result.Matches {
		applyLink(out, byID, match, now)
	}

	return out, result, nil
}

// scanPairs scores every unordered pair of eligible transactions and
// returns the passing candidates, source oriented to the outgoing leg.
func (m *Matcher) scanPairs(ctx context.Context, txns []ledger.Transaction, eligible []int, mode Mode, opts Options) []Match {
	var candidates []Match

	for x := 0; x < len(eligible); x++ {
		for y := x + 1; y < len(eligible); y++ {
			a := &txns[eligible[x]]
			b := &txns[eligible[y]]

			tol := m.resolver.Resolve(ctx, a, b, mode, opts)
			score := ScoreCandidate(a, b, tol, mode)
			if !score.IsMatch {
				continue
			}

			source, target := a, b
			if source.Amount > 0 {
				source, target = b, a
			}

			candidates = append(candidates, Match{
				ID:           matchID(source.ID, target.ID),
				SourceID:     source.ID,
				TargetID:     target.ID,
				Confidence:   score.Confidence,
				MatchType:    score.MatchType,
				DateDiffDays: score.DateDiffDays,
				AmountDiff:   score.AmountDiff,
				Reasoning:    score.Reasoning,
			})
		}
	}

	return candidates
}

// sortCandidates ranks by descending confidence, then smaller date gap,
// then canonical pair ID so runs are deterministic.
func sortCandidates(candidates []Match) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if candidates[i].DateDiffDays != candidates[j].DateDiffDays {
			return candidates[i].DateDiffDays < candidates[j].DateDiffDays
		}
		return pairKey(candidates[i].SourceID, candidates[i].TargetID) <
			pairKey(candidates[j].SourceID, candidates[j].TargetID)
	})
}

// eligibleIndexes selects transfer-categorized transactions that are not
// already linked to a counterpart.
func eligibleIndexes(txns []ledger.Transaction) []int {
	var out []int
	for i := range txns {
		if txns[i].IsTransfer() && !txns[i].IsLinked() {
			out = append(out, i)
		}
	}
	return out
}

func indexByID(txns []ledger.Transaction) map[string]int {
	byID := make(map[string]int, len(txns))
	for i := range txns {
		byID[txns[i].ID] = i
	}
	return byID
}

// applyLink writes the reciprocal reimbursement link and provenance for
// one pair onto the snapshot.
func applyLink(txns []ledger.Transaction, byID map[string]int, m Match, now time.Time) {
	si, okS := byID[m.SourceID]
	ti, okT := byID[m.TargetID]
	if !okS || !okT {
		return
	}

	txns[si].ReimbursementID = m.TargetID
	txns[si].Match = &ledger.MatchInfo{
		CounterpartID: m.TargetID,
		Confidence:    m.Confidence,
		MatchType:     m.MatchType,
		Reasoning:     m.Reasoning,
		MatchedAt:     now,
	}

	txns[ti].ReimbursementID = m.SourceID
	txns[ti].Match = &ledger.MatchInfo{
		CounterpartID: m.SourceID,
		Confidence:    m.Confidence,
		MatchType:     m.MatchType,
		Reasoning:     m.Reasoning,
		MatchedAt:     now,
	}
}
