package intervention

// Named defaults for every boost term so tests and admin tooling can assert
// on them directly instead of re-deriving magic numbers.
const (
	defaultNewMerchantWindowDays = 30
	defaultNewMerchantWeight     = 0.15

	defaultRatingThreshold = 4.5
	defaultRatingWeight    = 0.10

	defaultNewItemWindowDays = 7
	defaultNewItemWeight     = 0.12

	defaultPromotionWeight      = 0.15
	defaultPromotionBaseRatio   = 0.5
	defaultDiscountDepthCeiling = 0.5
	defaultPromotionFloorBonus  = 0.03

	defaultLowStockThreshold  = 10.0
	defaultLowStockPenalty    = -0.10
	defaultHighStockThreshold = 100.0
	defaultHighStockWeight    = 0.05
	defaultHighStockCap       = 0.10

	defaultMinMarginRate = 0.20
	defaultMarginWeight  = 0.10

	defaultTraceWeight    = 0.08
	defaultTraceTagTarget = 4
)

// BoostConfig is the runtime tuning of the business intervention layer.
// Published as a whole snapshot, never mutated field by field.
type BoostConfig struct {
	NewMerchantWindowDays int     `json:"new_merchant_window_days"`
	NewMerchantWeight     float64 `json:"new_merchant_weight"`

	RatingThreshold float64 `json:"rating_threshold"`
	RatingWeight    float64 `json:"rating_weight"`

	NewItemWindowDays int     `json:"new_item_window_days"`
	NewItemWeight     float64 `json:"new_item_weight"`

	PromotionWeight      float64 `json:"promotion_weight"`
	PromotionBaseRatio   float64 `json:"promotion_base_ratio"`
	DiscountDepthCeiling float64 `json:"discount_depth_ceiling"`
	PromotionFloorBonus  float64 `json:"promotion_floor_bonus"`

	LowStockThreshold  float64 `json:"low_stock_threshold"`
	LowStockPenalty    float64 `json:"low_stock_penalty"`
	HighStockThreshold float64 `json:"high_stock_threshold"`
	HighStockWeight    float64 `json:"high_stock_weight"`
	HighStockCap       float64 `json:"high_stock_cap"`

	MinMarginRate float64 `json:"min_margin_rate"`
	MarginWeight  float64 `json:"margin_weight"`

	TraceWeight    float64 `json:"trace_weight"`
	TraceTagTarget int     `json:"trace_tag_target"`
}

func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		NewMerchantWindowDays: defaultNewMerchantWindowDays,
		NewMerchantWeight:     defaultNewMerchantWeight,

		RatingThreshold: defaultRatingThreshold,
		RatingWeight:    defaultRatingWeight,

		NewItemWindowDays: defaultNewItemWindowDays,
		NewItemWeight:     defaultNewItemWeight,

		PromotionWeight:      defaultPromotionWeight,
		PromotionBaseRatio:   defaultPromotionBaseRatio,
		DiscountDepthCeiling: defaultDiscountDepthCeiling,
		PromotionFloorBonus:  defaultPromotionFloorBonus,

		LowStockThreshold:  defaultLowStockThreshold,
		LowStockPenalty:    defaultLowStockPenalty,
		HighStockThreshold: defaultHighStockThreshold,
		HighStockWeight:    defaultHighStockWeight,
		HighStockCap:       defaultHighStockCap,

		MinMarginRate: defaultMinMarginRate,
		MarginWeight:  defaultMarginWeight,

		TraceWeight:    defaultTraceWeight,
		TraceTagTarget: defaultTraceTagTarget,
	}
}
