package intervention

import (
	"context"
	"freshMarket/domain"
	"freshMarket/pkg/logger"
	"sync/atomic"
	"time"
)

// MerchantLookup is the batched merchant read contract; implemented by the
// postgres candidate repository.
type MerchantLookup interface {
	BatchGetMerchants(ctx context.Context, ids []uint64) (map[uint64]domain.MerchantInfo, error)
}

// Scorer layers business-driven score adjustments on top of fused relevance.
// Every term is additive; the fused score is never replaced.
type Scorer struct {
	merchants MerchantLookup
	cfg       atomic.Pointer[BoostConfig]
	now       func() time.Time
}

func NewScorer(merchants MerchantLookup) *Scorer {
	s := &Scorer{
		merchants: merchants,
		now:       time.Now,
	}
	cfg := DefaultBoostConfig()
	s.cfg.Store(&cfg)
	return s
}

func (s *Scorer) Config() BoostConfig {
	return *s.cfg.Load()
}

// UpdateConfig publishes a new snapshot; in-flight requests keep the one they
// already loaded.
func (s *Scorer) UpdateConfig(cfg BoostConfig) {
	s.cfg.Store(&cfg)
}

// BoostAll boosts every entry in place. Merchant snapshots are fetched in one
// batched query per result set; if the lookup fails, merchant-dependent terms
// contribute nothing and the rest still apply.
func (s *Scorer) BoostAll(ctx context.Context, entries []domain.FusedEntry) []domain.FusedEntry {
	if len(entries) == 0 {
		return entries
	}

	ids := make([]uint64, 0, len(entries))
	seen := make(map[uint64]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Item.MerchantID]; ok {
			continue
		}
		seen[e.Item.MerchantID] = struct{}{}
		ids = append(ids, e.Item.MerchantID)
	}

	merchants, err := s.merchants.BatchGetMerchants(ctx, ids)
	if err != nil {
		logger.Warn("boost_merchant_lookup_failed", "merchants", len(ids), "error", err)
		merchants = nil
	}

	cfg := s.Config()
	now := s.now()

	for i := range entries {
		merchant, ok := merchants[entries[i].Item.MerchantID]
		entries[i].Score += boost(cfg, entries[i].Item, merchant, ok, now)
	}

	return entries
}

// Boost computes the additive adjustment for a single item and merchant
// snapshot. haveMerchant=false zeroes only the merchant-dependent terms.
func (s *Scorer) Boost(item domain.CandidateItem, merchant domain.MerchantInfo, haveMerchant bool) float64 {
	return boost(s.Config(), item, merchant, haveMerchant, s.now())
}

func boost(cfg BoostConfig, item domain.CandidateItem, merchant domain.MerchantInfo, haveMerchant bool, now time.Time) float64 {
	total := 0.0

	if haveMerchant {
		total += newMerchantBoost(cfg, merchant, now)
		total += ratingBoost(cfg, merchant)
	}

	total += newItemBoost(cfg, item, now)
	total += promotionBoost(cfg, item)
	total += inventoryBoost(cfg, item)
	total += marginBoost(cfg, item)
	total += traceBoost(cfg, item)

	return total
}

// Full weight at day 0, linearly down to zero at the window edge.
func newMerchantBoost(cfg BoostConfig, merchant domain.MerchantInfo, now time.Time) float64 {
	window := float64(cfg.NewMerchantWindowDays)
	if window <= 0 || merchant.CreatedAt.IsZero() {
		return 0
	}

	ageDays := now.Sub(merchant.CreatedAt).Hours() / 24
	if ageDays < 0 || ageDays >= window {
		return 0
	}

	return cfg.NewMerchantWeight * (1 - ageDays/window)
}

// Linear ramp from 0 at the rating threshold to full weight at 5.0.
func ratingBoost(cfg BoostConfig, merchant domain.MerchantInfo) float64 {
	if merchant.Rating < cfg.RatingThreshold || cfg.RatingThreshold >= 5.0 {
		return 0
	}

	ramp := (merchant.Rating - cfg.RatingThreshold) / (5.0 - cfg.RatingThreshold)
	if ramp > 1 {
		ramp = 1
	}

	return cfg.RatingWeight * ramp
}

func newItemBoost(cfg BoostConfig, item domain.CandidateItem, now time.Time) float64 {
	window := float64(cfg.NewItemWindowDays)
	if window <= 0 || item.CreatedAt.IsZero() {
		return 0
	}

	ageDays := now.Sub(item.CreatedAt).Hours() / 24
	if ageDays < 0 || ageDays >= window {
		return 0
	}

	return cfg.NewItemWeight * (1 - ageDays/window)
}

// Promoted items earn a base bonus that grows with discount depth up to the
// configured ceiling. Discounts past the ceiling look like liquidation, not
// promotion, and only earn the floor bonus.
func promotionBoost(cfg BoostConfig, item domain.CandidateItem) float64 {
	if !item.IsPromoted() {
		return 0
	}

	depth := item.DiscountDepth()
	if cfg.DiscountDepthCeiling > 0 && depth >= cfg.DiscountDepthCeiling {
		return cfg.PromotionFloorBonus
	}

	scale := cfg.PromotionBaseRatio
	if cfg.DiscountDepthCeiling > 0 {
		scale += (1 - cfg.PromotionBaseRatio) * depth / cfg.DiscountDepthCeiling
	}

	return cfg.PromotionWeight * scale
}

func inventoryBoost(cfg BoostConfig, item domain.CandidateItem) float64 {
	if item.Stock < cfg.LowStockThreshold {
		return cfg.LowStockPenalty
	}

	if cfg.HighStockThreshold > 0 && item.Stock > cfg.HighStockThreshold {
		bonus := cfg.HighStockWeight * (item.Stock - cfg.HighStockThreshold) / cfg.HighStockThreshold
		if bonus > cfg.HighStockCap {
			bonus = cfg.HighStockCap
		}
		return bonus
	}

	return 0
}

func marginBoost(cfg BoostConfig, item domain.CandidateItem) float64 {
	rate := item.MarginRate()
	if rate <= cfg.MinMarginRate || cfg.MinMarginRate >= 1 {
		return 0
	}

	return cfg.MarginWeight * (rate - cfg.MinMarginRate) / (1 - cfg.MinMarginRate)
}

// Completeness is tag count against the target, capped at 1.
func traceBoost(cfg BoostConfig, item domain.CandidateItem) float64 {
	if cfg.TraceTagTarget <= 0 || len(item.TraceTags) == 0 {
		return 0
	}

	completeness := float64(len(item.TraceTags)) / float64(cfg.TraceTagTarget)
	if completeness > 1 {
		completeness = 1
	}

	return cfg.TraceWeight * completeness
}
