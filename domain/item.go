package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.items (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     merchant_id     BIGINT NOT NULL,
//     category        TEXT,
//     sale_price      NUMERIC,
//     market_price    NUMERIC,
//     cost            NUMERIC,
//     stock           NUMERIC,
//     sales_volume    BIGINT,
//     has_coupon      BOOLEAN,
//     trace_tags      JSONB,
//     created_at      TIMESTAMPTZ DEFAULT NOW()
// );

// CandidateItem is an immutable snapshot of one recommendable item for the
// duration of a single ranking request.
type CandidateItem struct {
	ID          uint64            `gorm:"primaryKey" json:"id"`
	MerchantID  uint64            `gorm:"column:merchant_id;not null" json:"merchant_id"`
	Category    string            `gorm:"column:category;type:text" json:"category"`
	SalePrice   float64           `gorm:"column:sale_price;type:numeric" json:"sale_price"`
	MarketPrice float64           `gorm:"column:market_price;type:numeric" json:"market_price"`
	Cost        float64           `gorm:"column:cost;type:numeric" json:"cost"`
	Stock       float64           `gorm:"column:stock;type:numeric" json:"stock"`
	SalesVolume int64             `gorm:"column:sales_volume" json:"sales_volume"`
	HasCoupon   bool              `gorm:"column:has_coupon;default:false" json:"has_coupon"`
	TraceTags   datatypes.JSONMap `gorm:"column:trace_tags;type:jsonb" json:"trace_tags"`
	CreatedAt   time.Time         `gorm:"column:created_at" json:"created_at"`
}

func (CandidateItem) TableName() string {
	return "items"
}

// IsPromoted reports whether the item currently counts as a promotion
// (selling below market price or carrying an active coupon).
func (i CandidateItem) IsPromoted() bool {
	return (i.MarketPrice > 0 && i.SalePrice < i.MarketPrice) || i.HasCoupon
}

// DiscountDepth returns (market - sale) / market in [0,1], 0 when unknown.
func (i CandidateItem) DiscountDepth() float64 {
	if i.MarketPrice <= 0 || i.SalePrice >= i.MarketPrice {
		return 0
	}
	return (i.MarketPrice - i.SalePrice) / i.MarketPrice
}

// MarginRate returns (sale - cost) / sale in [0,1], 0 when price is unknown.
func (i CandidateItem) MarginRate() float64 {
	if i.SalePrice <= 0 || i.Cost >= i.SalePrice {
		return 0
	}
	return (i.SalePrice - i.Cost) / i.SalePrice
}
