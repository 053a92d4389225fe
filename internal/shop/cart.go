package shop

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/pkg/common"
)

var (
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	ErrEmptyCart         = errors.New("cart is empty")
)

// CartService owns the per-user/per-session cart. Every mutation returns
// the recomputed cart view; the client converges on server truth by
// re-reading it.
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// CartView is the canonical cart payload.
type CartView struct {
	ID     int64        `json:"id,string"`
	Lines  []PricedLine `json:"items"`
	Totals CartTotals   `json:"totals"`
}

// Fetch loads the cart for a user (preferred) or a guest session,
// creating it on first touch.
func (s *CartService) Fetch(ctx context.Context, userID int64, sessionID string) (*domain.Cart, error) {
	db := s.db.WithContext(ctx)
	var cart domain.Cart
	query := db.Preload("Items")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	} else {
		query = query.Where("session_id = ? AND user_id = 0", sessionID)
	}
	err := query.First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = domain.Cart{ID: common.UUIDint64(), UserID: userID, SessionID: sessionID}
		if err := db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Add increments a line by qty, creating it when absent. Stock is
// re-checked against the resulting quantity.
func (s *CartService) Add(ctx context.Context, cart *domain.Cart, productID int64, qty int) error {
	if qty <= 0 {
		qty = 1
	}
	current := 0
	for _, item := range cart.Items {
		if item.ProductID == productID {
			current = item.Quantity
			break
		}
	}
	return s.setQuantity(ctx, cart, productID, current+qty)
}

// UpdateDelta applies a ±n change; dropping to zero or below removes the line.
func (s *CartService) UpdateDelta(ctx context.Context, cart *domain.Cart, productID int64, delta int) error {
	for _, item := range cart.Items {
		if item.ProductID == productID {
			next := item.Quantity + delta
			if next <= 0 {
				return s.Remove(ctx, cart, productID)
			}
			return s.setQuantity(ctx, cart, productID, next)
		}
	}
	if delta > 0 {
		return s.setQuantity(ctx, cart, productID, delta)
	}
	return nil
}

// Set stores an absolute quantity. A value beyond stock fails and leaves
// the stored quantity untouched.
func (s *CartService) Set(ctx context.Context, cart *domain.Cart, productID int64, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, cart, productID)
	}
	return s.setQuantity(ctx, cart, productID, qty)
}

func (s *CartService) setQuantity(ctx context.Context, cart *domain.Cart, productID int64, qty int) error {
	db := s.db.WithContext(ctx)
	var product domain.Product
	if err := db.First(&product, productID).Error; err != nil {
		return errors.Wrap(err, "product not found")
	}
	if qty > product.Stock {
		return ErrInsufficientStock
	}
	var item domain.CartItem
	err := db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = domain.CartItem{
			ID:        common.UUIDint64(),
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  qty,
		}
		return db.Create(&item).Error
	case err != nil:
		return err
	}
	return db.Model(&domain.CartItem{}).Where("id = ?", item.ID).
		Updates(map[string]interface{}{"quantity": qty, "updated_at": time.Now()}).Error
}

// Remove deletes one line.
func (s *CartService) Remove(ctx context.Context, cart *domain.Cart, productID int64) error {
	return s.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		Delete(&domain.CartItem{}).Error
}

// Clear empties the cart after checkout.
func (s *CartService) Clear(ctx context.Context, cart *domain.Cart) error {
	return s.db.WithContext(ctx).Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error
}

// View reloads the cart lines and prices them against the catalog and the
// currently active promotions.
func (s *CartService) View(ctx context.Context, cart *domain.Cart, promoCode string) (*CartView, error) {
	db := s.db.WithContext(ctx)
	var items []domain.CartItem
	if err := db.Where("cart_id = ?", cart.ID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	products, err := s.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}
	promos, err := s.activePromotions(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	resolved, err := ResolveCode(promos, promoCode, now)
	if err != nil {
		return nil, err
	}
	lines, totals := PriceCart(items, products, promos, resolved, now)
	return &CartView{ID: cart.ID, Lines: lines, Totals: totals}, nil
}

func (s *CartService) loadProducts(ctx context.Context, items []domain.CartItem) (map[int64]*domain.Product, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	result := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var products []domain.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

func (s *CartService) activePromotions(ctx context.Context) ([]domain.Promotion, error) {
	var promos []domain.Promotion
	err := s.db.WithContext(ctx).Find(&promos).Error
	return promos, err
}

// Merge folds a guest session cart into the user cart at login.
func (s *CartService) Merge(ctx context.Context, userID int64, sessionID string) error {
	if sessionID == "" || userID == 0 {
		return nil
	}
	db := s.db.WithContext(ctx)
	var guest domain.Cart
	err := db.Preload("Items").Where("session_id = ? AND user_id = 0", sessionID).First(&guest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || len(guest.Items) == 0 {
		return nil
	}
	if err != nil {
		return err
	}
	userCart, err := s.Fetch(ctx, userID, "")
	if err != nil {
		return err
	}
	// only lines that actually made it into the user cart leave the guest
	// cart; a stock overflow keeps the line where it was
	var merged []int64
	for _, item := range guest.Items {
		if err := s.Add(ctx, userCart, item.ProductID, item.Quantity); err != nil {
			continue
		}
		merged = append(merged, item.ID)
	}
	if len(merged) == 0 {
		return nil
	}
	return db.Where("id IN ?", merged).Delete(&domain.CartItem{}).Error
}
