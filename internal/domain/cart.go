package domain

import (
	"time"
)

// Cart is ephemeral: owned by a logged-in user or a guest cookie session,
// reconstructed from server state on every read.
type Cart struct {
	ID        int64      `json:"id,string"`
	UserID    int64      `gorm:"index" json:"user_id,string"`
	SessionID string     `gorm:"index" json:"session_id"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName Specify table name
func (Cart) TableName() string {
	return "shop_cart"
}

type CartItem struct {
	ID        int64     `json:"id,string"`
	CartID    int64     `gorm:"index" json:"cart_id,string"`
	ProductID int64     `gorm:"index" json:"product_id,string"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CartItem) TableName() string {
	return "shop_cart_item"
}
