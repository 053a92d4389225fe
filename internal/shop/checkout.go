package shop

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/pkg/common"
)

// CheckoutRequest bundles the shipping snapshot, the payment method
// display label and an optional promo code.
type CheckoutRequest struct {
	ShipName     string `json:"ship_name" validate:"required"`
	ShipAddress  string `json:"ship_address" validate:"required"`
	ShipCity     string `json:"ship_city" validate:"required"`
	ShipCountry  string `json:"ship_country" validate:"required"`
	ShipPostcode string `json:"ship_postcode"`
	ShipPhone    string `json:"ship_phone"`

	PaymentMethod string `json:"payment_method" validate:"required"`
	PromoCode     string `json:"promo_code"`
}

// CheckoutService turns a cart into an order: stock is reserved
// atomically and prices/address are snapshotted so later catalog edits
// never alter the historical order.
type CheckoutService struct {
	db   *gorm.DB
	cart *CartService
}

func NewCheckoutService(db *gorm.DB, cart *CartService) *CheckoutService {
	return &CheckoutService{db: db, cart: cart}
}

func (s *CheckoutService) Checkout(ctx context.Context, userID int64, cart *domain.Cart, req CheckoutRequest) (*domain.Order, error) {
	var items []domain.CartItem
	if err := s.db.WithContext(ctx).Where("cart_id = ?", cart.ID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var promos []domain.Promotion
	if err := s.db.WithContext(ctx).Find(&promos).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	resolved, err := ResolveCode(promos, req.PromoCode, now)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderID := common.UUIDint64()
		var orderItems []domain.OrderItem
		var subtotal, total float64
		for _, item := range items {
			var product domain.Product
			if err := tx.First(&product, item.ProductID).Error; err != nil {
				return errors.Wrapf(err, "product %d not found", item.ProductID)
			}
			// conditional decrement: concurrent checkouts race on the same
			// row, so the guard lives in the UPDATE itself
			res := tx.Model(&domain.Product{}).
				Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errors.Wrapf(ErrInsufficientStock, "product %s", product.Name)
			}
			discount := DiscountFor(product.ID, promos, resolved, now)
			discountPrice := DiscountedPrice(product.Price, discount)
			orderItems = append(orderItems, domain.OrderItem{
				ID:            common.UUIDint64(),
				OrderID:       orderID,
				ProductID:     product.ID,
				ProductName:   product.Name,
				ProductImage:  product.Image,
				UnitPrice:     product.Price,
				DiscountPrice: discountPrice,
				Quantity:      item.Quantity,
			})
			subtotal += product.Price * float64(item.Quantity)
			total += discountPrice * float64(item.Quantity)
		}

		promoCode := ""
		if resolved != nil {
			promoCode = resolved.Code
		}
		order = &domain.Order{
			ID:            orderID,
			OrderNumber:   common.OrderNumber(),
			UserID:        userID,
			Status:        domain.OrderPending,
			ShipName:      req.ShipName,
			ShipAddress:   req.ShipAddress,
			ShipCity:      req.ShipCity,
			ShipCountry:   req.ShipCountry,
			ShipPostcode:  req.ShipPostcode,
			ShipPhone:     req.ShipPhone,
			PaymentMethod: req.PaymentMethod,
			PromoCode:     promoCode,
			Discount:      roundCents(subtotal - total),
			Total:         roundCents(total),
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return err
		}
		order.Items = orderItems
		return tx.Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindByNumber fetches an order for the confirmation view.
func (s *CheckoutService) FindByNumber(ctx context.Context, userID int64, number string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("order_number = ? AND user_id = ?", number, userID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder moves an order to Cancelled and restores reserved stock.
func CancelOrder(db *gorm.DB, order *domain.Order) error {
	if !CanTransition(order.Status, domain.OrderCancelled) {
		return errors.Errorf("order %s cannot be cancelled from status %s", order.OrderNumber, order.Status)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var items []domain.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.Model(&domain.Product{}).Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{"status": domain.OrderCancelled, "updated_at": time.Now()}).Error
	})
}
