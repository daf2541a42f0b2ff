package recall

import (
	"freshMarket/domain"
	"sort"
)

// Fuse merges per-strategy recall results into one deduplicated, scored
// candidate set, ordered by descending score.
//
// An item at rank i of a strategy result of size n contributes
// weight * (1 - i/n). Contributions from different strategies sum rather than
// take the max: an item several strategies agree on outranks one a single
// strategy loves. The summing policy is tunable in principle but is the only
// fusion mode implemented.
func Fuse(results []domain.RecallResult, weights map[string]float64) []domain.FusedEntry {
	merged := make(map[uint64]*domain.FusedEntry)

	for _, res := range results {
		weight := weights[res.Strategy]
		if weight <= 0 || len(res.Items) == 0 {
			continue
		}

		n := float64(len(res.Items))
		for i, item := range res.Items {
			positionScore := 1 - float64(i)/n

			entry, ok := merged[item.ID]
			if !ok {
				entry = &domain.FusedEntry{Item: item}
				merged[item.ID] = entry
			}
			entry.Score += weight * positionScore
			entry.Strategies = append(entry.Strategies, res.Strategy)
		}
	}

	out := make([]domain.FusedEntry, 0, len(merged))
	for _, entry := range merged {
		sort.Strings(entry.Strategies)
		out = append(out, *entry)
	}

	// Tie-break on item id so the output is independent of map iteration
	// and of which strategy was merged first.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Item.ID < out[j].Item.ID
		}
		return out[i].Score > out[j].Score
	})

	return out
}
