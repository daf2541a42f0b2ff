package domain

import "time"

// MerchantInfo is the snapshot used for business-boost computation. It is
// fetched in one batched query per result set, never per item.
type MerchantInfo struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"column:name;type:text" json:"name"`
	Rating    float64   `gorm:"column:rating;type:numeric" json:"rating"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (MerchantInfo) TableName() string {
	return "merchants"
}
