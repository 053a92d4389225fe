package domain

import (
	"database/sql/driver"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Category struct {
	ID          int64     `json:"id,string" form:"id"`
	Name        string    `gorm:"uniqueIndex" json:"name" form:"name"`
	Description string    `json:"description" form:"description"`
	Image       string    `gorm:"size:1024" json:"image" form:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Category) TableName() string {
	return "shop_category"
}

// Attribute declares a product option key and its allowed values.
type Attribute struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Variant is one attribute-value combination with its own price/stock/image.
type Variant struct {
	Selection map[string]string `json:"selection"`
	Price     float64           `json:"price"`
	Stock     int               `json:"stock"`
	Image     string            `json:"image"`
}

type AttributeList []Attribute

func (l AttributeList) Value() (driver.Value, error) {
	if l == nil {
		l = AttributeList{}
	}
	return json.MarshalToString(l)
}

func (l *AttributeList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = AttributeList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.UnmarshalFromString(v, l)
	default:
		return errors.Errorf("unsupported attribute column type %T", src)
	}
}

type VariantList []Variant

func (l VariantList) Value() (driver.Value, error) {
	if l == nil {
		l = VariantList{}
	}
	return json.MarshalToString(l)
}

func (l *VariantList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = VariantList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.UnmarshalFromString(v, l)
	default:
		return errors.Errorf("unsupported variant column type %T", src)
	}
}

type Product struct {
	ID          int64         `json:"id,string" form:"id"`
	Name        string        `gorm:"index" json:"name" form:"name"`
	Brand       string        `json:"brand" form:"brand"`
	Description string        `json:"description" form:"description"`
	Price       float64       `json:"price" form:"price"`
	Stock       int           `json:"stock" form:"stock"`
	Image       string        `gorm:"size:1024" json:"image" form:"image"`
	CategoryID  int64         `gorm:"index" json:"category_id,string" form:"category_id"`
	Category    *Category     `json:"category,omitempty"`
	Attributes  AttributeList `gorm:"type:text" json:"attributes"`
	Variants    VariantList   `gorm:"type:text" json:"variants"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "shop_product"
}

type Review struct {
	ID        int64     `json:"id,string"`
	ProductID int64     `gorm:"index" json:"product_id,string"`
	UserID    int64     `gorm:"index" json:"user_id,string"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (Review) TableName() string {
	return "shop_review"
}
