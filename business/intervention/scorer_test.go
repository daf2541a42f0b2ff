package intervention

import (
	"context"
	"errors"
	"testing"
	"time"

	"freshMarket/domain"

	"gorm.io/datatypes"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestScorer(merchants MerchantLookup) *Scorer {
	s := NewScorer(merchants)
	s.now = func() time.Time { return testNow }
	return s
}

type fakeMerchants struct {
	merchants map[uint64]domain.MerchantInfo
	err       error
}

func (f *fakeMerchants) BatchGetMerchants(ctx context.Context, ids []uint64) (map[uint64]domain.MerchantInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.merchants, nil
}

// neutralItem produces zero from every term: old, unpromoted, mid stock,
// margin at the threshold, no trace tags.
func neutralItem() domain.CandidateItem {
	return domain.CandidateItem{
		ID:         1,
		MerchantID: 1,
		SalePrice:  100,
		Cost:       80,
		Stock:      50,
		CreatedAt:  testNow.Add(-365 * 24 * time.Hour),
	}
}

func TestPromotedOutranksIdenticalUnpromoted(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})

	plain := neutralItem()
	promoted := neutralItem()
	promoted.ID = 2
	promoted.MarketPrice = 125 // 20% discount

	plainBoost := s.Boost(plain, domain.MerchantInfo{}, false)
	promotedBoost := s.Boost(promoted, domain.MerchantInfo{}, false)

	if promotedBoost <= plainBoost {
		t.Errorf("promoted item must score strictly higher: %v vs %v", promotedBoost, plainBoost)
	}
}

func TestPromotionDepthScaling(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})

	shallow := neutralItem()
	shallow.MarketPrice = 105 // ~4.8% off

	deep := neutralItem()
	deep.MarketPrice = 140 // ~28.6% off

	liquidation := neutralItem()
	liquidation.MarketPrice = 400 // 75% off, past the ceiling

	bShallow := s.Boost(shallow, domain.MerchantInfo{}, false)
	bDeep := s.Boost(deep, domain.MerchantInfo{}, false)
	bLiquidation := s.Boost(liquidation, domain.MerchantInfo{}, false)

	if bDeep <= bShallow {
		t.Errorf("deeper discount should boost more: %v vs %v", bDeep, bShallow)
	}
	if bLiquidation >= bShallow {
		t.Errorf("past-ceiling discount should only earn the floor bonus: %v vs %v", bLiquidation, bShallow)
	}
	if bLiquidation != defaultPromotionFloorBonus {
		t.Errorf("floor bonus = %v, want %v", bLiquidation, defaultPromotionFloorBonus)
	}
}

func TestCouponCountsAsPromotion(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})

	coupon := neutralItem()
	coupon.HasCoupon = true

	if s.Boost(coupon, domain.MerchantInfo{}, false) <= 0 {
		t.Error("coupon item should earn a promotion bonus")
	}
}

func TestNewMerchantDecay(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})
	item := neutralItem()

	day1 := domain.MerchantInfo{CreatedAt: testNow.Add(-1 * 24 * time.Hour)}
	day29 := domain.MerchantInfo{CreatedAt: testNow.Add(-29 * 24 * time.Hour)}
	day31 := domain.MerchantInfo{CreatedAt: testNow.Add(-31 * 24 * time.Hour)}

	b1 := s.Boost(item, day1, true)
	b29 := s.Boost(item, day29, true)
	b31 := s.Boost(item, day31, true)

	if b1 <= b29 {
		t.Errorf("boost should decay with merchant age: day1=%v day29=%v", b1, b29)
	}
	if b31 != 0 {
		t.Errorf("merchant past the window gets no boost, got %v", b31)
	}
}

func TestRatingRamp(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})
	item := neutralItem()
	old := testNow.Add(-365 * 24 * time.Hour)

	below := s.Boost(item, domain.MerchantInfo{Rating: 4.4, CreatedAt: old}, true)
	at := s.Boost(item, domain.MerchantInfo{Rating: 4.5, CreatedAt: old}, true)
	top := s.Boost(item, domain.MerchantInfo{Rating: 5.0, CreatedAt: old}, true)

	if below != 0 {
		t.Errorf("below threshold should earn nothing, got %v", below)
	}
	if at != 0 {
		t.Errorf("exactly at threshold is the ramp origin, got %v", at)
	}
	if top != defaultRatingWeight {
		t.Errorf("perfect rating earns full weight, got %v want %v", top, defaultRatingWeight)
	}
}

func TestInventoryTerms(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})

	low := neutralItem()
	low.Stock = 5

	high := neutralItem()
	high.Stock = 150

	huge := neutralItem()
	huge.Stock = 10000

	if got := s.Boost(low, domain.MerchantInfo{}, false); got != defaultLowStockPenalty {
		t.Errorf("low stock penalty = %v, want %v", got, defaultLowStockPenalty)
	}
	bHigh := s.Boost(high, domain.MerchantInfo{}, false)
	if bHigh <= 0 {
		t.Errorf("high stock should earn a bonus, got %v", bHigh)
	}
	if got := s.Boost(huge, domain.MerchantInfo{}, false); got != defaultHighStockCap {
		t.Errorf("high stock bonus must cap at %v, got %v", defaultHighStockCap, got)
	}
}

func TestMarginBoost(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})

	thin := neutralItem() // 20% margin, at the threshold
	fat := neutralItem()
	fat.Cost = 20 // 80% margin

	if got := s.Boost(thin, domain.MerchantInfo{}, false); got != 0 {
		t.Errorf("margin at threshold earns nothing, got %v", got)
	}
	if got := s.Boost(fat, domain.MerchantInfo{}, false); got <= 0 {
		t.Errorf("fat margin should earn a bonus, got %v", got)
	}
}

func TestTraceCompleteness(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})

	partial := neutralItem()
	partial.TraceTags = datatypes.JSONMap{"origin": "farm-12", "harvested": "2026-06-10"}

	full := neutralItem()
	full.TraceTags = datatypes.JSONMap{
		"origin": "farm-12", "harvested": "2026-06-10",
		"cold_chain": "yes", "inspection": "A", "batch": "B-9",
	}

	bPartial := s.Boost(partial, domain.MerchantInfo{}, false)
	bFull := s.Boost(full, domain.MerchantInfo{}, false)

	if bPartial <= 0 || bFull <= bPartial {
		t.Errorf("trace boost should grow with tag count: %v, %v", bPartial, bFull)
	}
	if bFull != defaultTraceWeight {
		t.Errorf("completeness caps at the full weight: %v want %v", bFull, defaultTraceWeight)
	}
}

func TestBoostAllMerchantLookupFailure(t *testing.T) {
	s := newTestScorer(&fakeMerchants{err: errors.New("db down")})

	item := neutralItem()
	item.MarketPrice = 125
	entries := []domain.FusedEntry{{Item: item, Score: 1.0}}

	out := s.BoostAll(context.Background(), entries)

	// item terms still apply even with no merchant snapshot
	if out[0].Score <= 1.0 {
		t.Errorf("item-level boosts must survive a merchant lookup failure, got %v", out[0].Score)
	}
}

func TestUpdateConfigSnapshot(t *testing.T) {
	s := newTestScorer(&fakeMerchants{})

	cfg := DefaultBoostConfig()
	cfg.PromotionWeight = 0

	s.UpdateConfig(cfg)

	promoted := neutralItem()
	promoted.MarketPrice = 125

	if got := s.Boost(promoted, domain.MerchantInfo{}, false); got != 0 {
		t.Errorf("zeroed promotion weight should disable the term, got %v", got)
	}
}
