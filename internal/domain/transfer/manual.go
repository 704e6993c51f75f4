package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// Errors surfaced to the caller on an invalid manual commit. These are
// user-input problems, not process failures.
var (
	ErrNotFound      = errors.New("transaction not found")
	ErrSelfMatch     = errors.New("cannot match a transaction to itself")
	ErrSameAccount   = errors.New("cannot match two transactions in the same account")
	ErrAlreadyLinked = errors.New("transaction is already linked; unlink it first")
	ErrMatchNotFound = errors.New("no applied match with that id")
)

// FindManualMatches surfaces all plausible candidate pairs for human
// review using relaxed tolerances. Nothing is committed and candidates
// are not consumed: the same transaction may appear in several suggested
// pairs, though each unordered pair appears exactly once.
func (m *Matcher) FindManualMatches(ctx context.Context, txns []ledger.Transaction, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	eligible := eligibleIndexes(txns)
	candidates := m.scanPairs(ctx, txns, eligible, ModeManual, opts)
	sortCandidates(candidates)
	matches := DedupePairs(candidates)

	suggested := make(map[string]bool)
	for _, match := range matches {
		suggested[match.SourceID] = true
		suggested[match.TargetID] = true
	}

	unmatched := make([]ledger.Transaction, 0)
	for _, i := range eligible {
		if !suggested[txns[i].ID] {
			unmatched = append(unmatched, txns[i])
		}
	}

	return &Result{Matches: matches, Unmatched: unmatched}, nil
}

// ApplyManualMatch commits one explicit pair chosen by a human: the same
// reciprocal reimbursement write automatic matching performs, for exactly
// one pair. It rejects self-matches, same-account pairs and endpoints
// that already point elsewhere.
func ApplyManualMatch(txns []ledger.Transaction, sourceID, targetID string) ([]ledger.Transaction, error) {
	if sourceID == targetID {
		return nil, fmt.Errorf("%w: %s", ErrSelfMatch, sourceID)
	}

	out := ledger.CloneAll(txns)
	byID := indexByID(out)

	si, ok := byID[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sourceID)
	}
	ti, ok := byID[targetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}

	source, target := &out[si], &out[ti]
	if source.Account == target.Account {
		return nil, fmt.Errorf("%w: %q", ErrSameAccount, source.Account)
	}
	if source.IsLinked() && source.ReimbursementID != targetID {
		return nil, fmt.Errorf("%w: %s -> %s", ErrAlreadyLinked, sourceID, source.ReimbursementID)
	}
	if target.IsLinked() && target.ReimbursementID != sourceID {
		return nil, fmt.Errorf("%w: %s -> %s", ErrAlreadyLinked, targetID, target.ReimbursementID)
	}

	applyLink(out, byID, Match{
		ID:        matchID(sourceID, targetID),
		SourceID:  sourceID,
		TargetID:  targetID,
		// A human confirmed the pair; the suggestion-mode cap does not apply.
		Confidence: 1.0,
		MatchType:  ledger.MatchManual,
		Reasoning:  "manually matched",
	}, time.Now())

	return out, nil
}

// Unmatch clears a committed pair identified by its match id, removing
// the reimbursement link and provenance on both sides. Legacy bracketed
// match markers in Notes are stripped while at it; they are never read.
func Unmatch(txns []ledger.Transaction, matchID string) ([]ledger.Transaction, error) {
	out := ledger.CloneAll(txns)
	byID := indexByID(out)

	// Transaction IDs may themselves contain dashes, so the match id is
	// resolved against actual links rather than split on a separator.
	for i := range out {
		t := &out[i]
		if !t.IsLinked() {
			continue
		}
		if t.ID+"-"+t.ReimbursementID != matchID && t.ReimbursementID+"-"+t.ID != matchID {
			continue
		}

		counterpartID := t.ReimbursementID
		clearLink(t)
		if ci, ok := byID[counterpartID]; ok {
			clearLink(&out[ci])
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
}

func clearLink(t *ledger.Transaction) {
	t.ReimbursementID = ""
	t.Match = nil
	t.Notes = stripMatchAnnotation(t.Notes)
}

// stripMatchAnnotation removes a "[Transfer: ...]" marker written by
// older versions that stored match metadata inside free-text notes.
func stripMatchAnnotation(notes string) string {
	start := strings.Index(notes, "[Transfer:")
	if start < 0 {
		return notes
	}
	end := strings.Index(notes[start:], "]")
	if end < 0 {
		return notes
	}
	return strings.TrimSpace(notes[:start] + notes[start+end+1:])
}
