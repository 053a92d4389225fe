package domain

import (
	"time"
)

// Promotion types
const (
	PromoAuto   = "auto"
	PromoCode   = "code"
	PromoHybrid = "hybrid"
)

type Promotion struct {
	ID        int64     `json:"id,string" form:"id"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Type      string    `json:"type" form:"type"`
	Code      string    `gorm:"index" json:"code" form:"code"`
	Discount  float64   `json:"discount" form:"discount"` // percentage 0..100
	ProductID int64     `gorm:"index" json:"product_id,string" form:"product_id"`
	StartDate time.Time `json:"start_date" form:"start_date"`
	EndDate   time.Time `json:"end_date" form:"end_date"`
	IsActive  bool      `gorm:"index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Promotion) TableName() string {
	return "shop_promotion"
}

// ActiveAt reports whether the validity window covers t. The stored
// IsActive flag is a denormalized copy refreshed on read and by the
// background job.
func (p *Promotion) ActiveAt(t time.Time) bool {
	if p.StartDate.After(t) {
		return false
	}
	if !p.EndDate.IsZero() && p.EndDate.Before(t) {
		return false
	}
	return true
}
