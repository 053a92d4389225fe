package shop

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/evercart/evercart/internal/domain"
)

var (
	ErrCodeRequired     = errors.New("promotion code is required unless type is auto")
	ErrInvalidPromoType = errors.New("promotion type must be auto, code or hybrid")
	ErrInvalidWindow    = errors.New("promotion end date is before start date")
	ErrPromoNotFound    = errors.New("promotion code is invalid or expired")
)

// NormalizePromotion applies the form-submission rules before persistence:
// a non-auto promotion must carry a code, an auto promotion discards any
// code typed earlier, and the validity window must be ordered.
func NormalizePromotion(p *domain.Promotion, now time.Time) error {
	p.Type = strings.TrimSpace(strings.ToLower(p.Type))
	p.Code = strings.TrimSpace(p.Code)
	switch p.Type {
	case domain.PromoAuto:
		p.Code = ""
	case domain.PromoCode, domain.PromoHybrid:
		if p.Code == "" {
			return ErrCodeRequired
		}
	default:
		return ErrInvalidPromoType
	}
	if p.Discount < 0 || p.Discount > 100 {
		return errors.New("discount must be a percentage between 0 and 100")
	}
	if !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return ErrInvalidWindow
	}
	p.IsActive = p.ActiveAt(now)
	return nil
}

// ResolveCode finds the active promotion matching an entered code. Only
// code and hybrid promotions are addressable by code.
func ResolveCode(promos []domain.Promotion, code string, now time.Time) (*domain.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	for i := range promos {
		p := &promos[i]
		if p.Type == domain.PromoAuto {
			continue
		}
		if strings.EqualFold(p.Code, code) && p.ActiveAt(now) {
			return p, nil
		}
	}
	return nil, ErrPromoNotFound
}

// DiscountFor returns the best discount percentage applicable to a product:
// auto and hybrid promotions apply on their own, and resolved is the
// code-entered promotion, if any. ProductID zero on a promotion means
// storewide.
func DiscountFor(productID int64, promos []domain.Promotion, resolved *domain.Promotion, now time.Time) float64 {
	best := 0.0
	consider := func(p *domain.Promotion) {
		if p.ProductID != 0 && p.ProductID != productID {
			return
		}
		if !p.ActiveAt(now) {
			return
		}
		if p.Discount > best {
			best = p.Discount
		}
	}
	for i := range promos {
		p := &promos[i]
		if p.Type == domain.PromoAuto || p.Type == domain.PromoHybrid {
			consider(p)
		}
	}
	if resolved != nil {
		consider(resolved)
	}
	return best
}

// roundCents rounds to two decimals; every stored money figure passes
// through here.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// DiscountedPrice applies a percentage discount, rounded to cents.
func DiscountedPrice(price, discount float64) float64 {
	if discount <= 0 {
		return price
	}
	return roundCents(price * (100 - discount) / 100)
}

// PricedLine is a display/snapshot row: unit price, effective price after
// promotions, and line total.
type PricedLine struct {
	ProductID     int64   `json:"product_id,string"`
	ProductName   string  `json:"product_name"`
	ProductImage  string  `json:"product_image"`
	UnitPrice     float64 `json:"unit_price"`
	DiscountPrice float64 `json:"discount_price"`
	Quantity      int     `json:"quantity"`
	Stock         int     `json:"stock"`
	LineTotal     float64 `json:"line_total"`
}

// CartTotals sums priced lines; the server-side figure is authoritative.
type CartTotals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// PriceCart resolves every cart line against the catalog and active
// promotions. Lines whose product vanished are dropped silently.
func PriceCart(items []domain.CartItem, products map[int64]*domain.Product, promos []domain.Promotion, resolved *domain.Promotion, now time.Time) ([]PricedLine, CartTotals) {
	lines := make([]PricedLine, 0, len(items))
	var totals CartTotals
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		discount := DiscountFor(product.ID, promos, resolved, now)
		line := PricedLine{
			ProductID:     product.ID,
			ProductName:   product.Name,
			ProductImage:  product.Image,
			UnitPrice:     product.Price,
			DiscountPrice: DiscountedPrice(product.Price, discount),
			Quantity:      item.Quantity,
			Stock:         product.Stock,
		}
		line.LineTotal = line.DiscountPrice * float64(item.Quantity)
		lines = append(lines, line)
		totals.Subtotal += line.UnitPrice * float64(item.Quantity)
		totals.Total += line.LineTotal
	}
	totals.Discount = roundCents(totals.Subtotal - totals.Total)
	totals.Subtotal = roundCents(totals.Subtotal)
	totals.Total = roundCents(totals.Total)
	return lines, totals
}
