package diversity

import (
	"freshMarket/domain"
	"math"
)

// CategoryEntropy is the normalized Shannon entropy of the category
// distribution of a result list: 0 when every item shares one category,
// 1 when items spread uniformly across the observed categories.
func CategoryEntropy(entries []domain.FusedEntry) float64 {
	if len(entries) == 0 {
		return 0
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Item.Category]++
	}
	if len(counts) <= 1 {
		return 0
	}

	total := float64(len(entries))
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}

	return entropy / math.Log2(float64(len(counts)))
}
