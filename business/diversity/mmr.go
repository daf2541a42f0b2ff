package diversity

import (
	"freshMarket/domain"
	"freshMarket/pkg/logger"
	"freshMarket/pkg/metrics"
	"math"
	"strings"
)

// Config tunes the MMR trade-off and the pairwise similarity signals.
type Config struct {
	// Lambda balances relevance against redundancy: 1 is pure relevance
	// ranking, 0 is pure diversity maximization.
	Lambda           float64
	MaxMerchantRatio float64

	CategoryWeight     float64
	MerchantWeight     float64
	PriceWeight        float64
	PriceDiffThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Lambda:             0.7,
		MaxMerchantRatio:   0.4,
		CategoryWeight:     0.5,
		MerchantWeight:     0.2,
		PriceWeight:        0.3,
		PriceDiffThreshold: 0.2,
	}
}

// Reranker reorders a fused candidate set with greedy Maximal Marginal
// Relevance under a soft per-merchant quota.
type Reranker struct {
	cfg Config
}

func NewReranker(cfg Config) *Reranker {
	return &Reranker{cfg: cfg}
}

// Rerank returns min(limit, len(entries)) entries. Entries already boosted;
// their Score is the relevance input.
//
// The merchant quota is soft: when every remaining candidate's merchant is
// exhausted, the pick falls back to the unconstrained MMR argmax rather than
// starving the result. Each fallback pick is counted so dominance of a single
// merchant stays visible.
func (r *Reranker) Rerank(entries []domain.FusedEntry, limit int) []domain.FusedEntry {
	if limit <= 0 || len(entries) == 0 {
		return []domain.FusedEntry{}
	}
	if len(entries) <= limit {
		return entries
	}

	maxScore := 0.0
	for _, e := range entries {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	maxPerMerchant := int(math.Ceil(float64(limit) * r.cfg.MaxMerchantRatio))
	if maxPerMerchant < 1 {
		maxPerMerchant = 1
	}

	remaining := make([]domain.FusedEntry, len(entries))
	copy(remaining, entries)

	// Seed with the single highest-relevance candidate.
	seedIdx := 0
	for i, e := range remaining {
		if e.Score > remaining[seedIdx].Score {
			seedIdx = i
		}
	}

	selected := make([]domain.FusedEntry, 0, limit)
	merchantCount := make(map[uint64]int, limit)

	pick := func(idx int) {
		selected = append(selected, remaining[idx])
		merchantCount[remaining[idx].Item.MerchantID]++
		remaining[idx] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	pick(seedIdx)

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx, bestMMR := -1, math.Inf(-1)
		fallbackIdx, fallbackMMR := -1, math.Inf(-1)

		for i, c := range remaining {
			relevance := c.Score / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				if sim := r.similarity(c.Item, sel.Item); sim > maxSim {
					maxSim = sim
				}
			}

			mmr := r.cfg.Lambda*relevance - (1-r.cfg.Lambda)*maxSim

			if mmr > fallbackMMR {
				fallbackMMR = mmr
				fallbackIdx = i
			}
			if merchantCount[c.Item.MerchantID] < maxPerMerchant && mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			// All merchants exhausted: soft quota, take the unconstrained argmax.
			metrics.MMRQuotaFallbackTotal.Inc()
			logger.Debug("mmr_quota_fallback",
				"selected", len(selected),
				"remaining", len(remaining),
				"max_per_merchant", maxPerMerchant,
			)
			bestIdx = fallbackIdx
		}

		pick(bestIdx)
	}

	return selected
}

// similarity is additive over three signals and capped at 1: shared top-level
// category, shared merchant, and price proximity.
func (r *Reranker) similarity(a, b domain.CandidateItem) float64 {
	sim := 0.0

	if topLevelCategory(a.Category) == topLevelCategory(b.Category) && a.Category != "" {
		sim += r.cfg.CategoryWeight
	}
	if a.MerchantID == b.MerchantID {
		sim += r.cfg.MerchantWeight
	}
	if priceDiffRatio(a.SalePrice, b.SalePrice) < r.cfg.PriceDiffThreshold {
		sim += r.cfg.PriceWeight
	}

	if sim > 1 {
		sim = 1
	}
	return sim
}

func topLevelCategory(category string) string {
	if idx := strings.IndexByte(category, '/'); idx >= 0 {
		return category[:idx]
	}
	return category
}

func priceDiffRatio(a, b float64) float64 {
	max := a
	if b > max {
		max = b
	}
	if max <= 0 {
		return 0
	}
	return math.Abs(a-b) / max
}
