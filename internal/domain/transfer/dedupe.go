package transfer

// DedupePairs reduces a candidate list to one instance per unordered
// pair of transaction IDs. A naive pairwise scan proposes both (A,B)
// and (B,A); without this step the same suggestion shows up twice in
// review. The first-found instance wins, so callers should pre-sort by
// preference. One transaction may survive in several matches as long as
// each counterpart differs.
func DedupePairs(candidates []Match) []Match {
	seen := make(map[string]bool, len(candidates))
	out := make([]Match, 0, len(candidates))

	for _, m := range candidates {
		key := pairKey(m.SourceID, m.TargetID)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}

	return out
}
