package domain

import (
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
)

// Order status values
const (
	OrderPending   = "Pending"
	OrderShipped   = "Shipped"
	OrderDelivered = "Delivered"
	OrderCancelled = "Cancelled"
	OrderRefunded  = "Refunded"
)

// Refund sub-record states
const (
	RefundNone      = ""
	RefundRequested = "requested"
	RefundApproved  = "approved"
	RefundRejected  = "rejected"
)

type Int64List []int64

func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		l = Int64List{}
	}
	return json.MarshalToString(l)
}

func (l *Int64List) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = Int64List{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.UnmarshalFromString(v, l)
	default:
		return errors.Errorf("unsupported int64 list column type %T", src)
	}
}

// OrderItem snapshots the product at checkout time so later catalog
// changes never alter historical orders.
type OrderItem struct {
	ID            int64   `json:"id,string"`
	OrderID       int64   `gorm:"index" json:"order_id,string"`
	ProductID     int64   `gorm:"index" json:"product_id,string"`
	ProductName   string  `json:"product_name"`
	ProductImage  string  `json:"product_image"`
	UnitPrice     float64 `json:"unit_price"`
	DiscountPrice float64 `json:"discount_price"`
	Quantity      int     `json:"quantity"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "shop_order_item"
}

type Order struct {
	ID          int64       `json:"id,string"`
	OrderNumber string      `gorm:"uniqueIndex" json:"order_number"`
	UserID      int64       `gorm:"index" json:"user_id,string"`
	Items       []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Status      string      `gorm:"index" json:"status"`

	// Shipping address snapshot
	ShipName     string `json:"ship_name"`
	ShipAddress  string `json:"ship_address"`
	ShipCity     string `json:"ship_city"`
	ShipCountry  string `json:"ship_country"`
	ShipPostcode string `json:"ship_postcode"`
	ShipPhone    string `json:"ship_phone"`

	// Display label, not a stable reference. Preserved as stored by the
	// checkout payload, see design notes.
	PaymentMethod string `json:"payment_method"`

	PromoCode string  `json:"promo_code"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`

	RefundStatus string    `gorm:"index" json:"refund_status"`
	RefundReason string    `json:"refund_reason"`
	RefundAmount float64   `json:"refund_amount"`
	RefundItems  Int64List `gorm:"type:text" json:"refund_items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "shop_order"
}
