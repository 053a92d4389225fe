package shop

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/pkg/common"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "shop.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{ID: common.UUIDint64(), Name: name, Price: price, Stock: stock}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return p
}

func TestSetBeyondStockLeavesQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	mug := seedProduct(t, db, "Mug", 10, 3)
	cart, err := svc.Fetch(ctx, 0, "guest-1")
	if err != nil {
		t.Fatalf("fetch cart: %v", err)
	}
	if err := svc.Add(ctx, cart, mug.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Set(ctx, cart, mug.ID, 10); err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var item domain.CartItem
	if err := db.Where("cart_id = ? AND product_id = ?", cart.ID, mug.ID).First(&item).Error; err != nil {
		t.Fatalf("reload line: %v", err)
	}
	if item.Quantity != 2 {
		t.Fatalf("failed set must leave the stored quantity, got %d", item.Quantity)
	}
}

func TestMergeKeepsOverflowingGuestLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	mug := seedProduct(t, db, "Mug", 10, 5)
	hat := seedProduct(t, db, "Hat", 20, 5)

	guest, err := svc.Fetch(ctx, 0, "guest-2")
	if err != nil {
		t.Fatalf("fetch guest cart: %v", err)
	}
	if err := svc.Add(ctx, guest, mug.ID, 3); err != nil {
		t.Fatalf("add mug: %v", err)
	}
	if err := svc.Add(ctx, guest, hat.ID, 2); err != nil {
		t.Fatalf("add hat: %v", err)
	}
	// the mug sells out between the guest adding it and the login
	if err := db.Model(&domain.Product{}).Where("id = ?", mug.ID).Update("stock", 2).Error; err != nil {
		t.Fatalf("shrink stock: %v", err)
	}

	userID := common.UUIDint64()
	if err := svc.Merge(ctx, userID, "guest-2"); err != nil {
		t.Fatalf("merge: %v", err)
	}

	userCart, err := svc.Fetch(ctx, userID, "")
	if err != nil {
		t.Fatalf("fetch user cart: %v", err)
	}
	if len(userCart.Items) != 1 || userCart.Items[0].ProductID != hat.ID {
		t.Fatalf("only the in-stock line moves over, got %+v", userCart.Items)
	}
	var leftover []domain.CartItem
	if err := db.Where("cart_id = ?", guest.ID).Find(&leftover).Error; err != nil {
		t.Fatalf("reload guest lines: %v", err)
	}
	if len(leftover) != 1 || leftover[0].ProductID != mug.ID || leftover[0].Quantity != 3 {
		t.Fatalf("overflowing line must stay in the guest cart, got %+v", leftover)
	}
}

func TestCheckoutDecrementsStock(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	svc := NewCheckoutService(db, carts)
	ctx := context.Background()

	mug := seedProduct(t, db, "Mug", 10, 5)
	userID := common.UUIDint64()
	cart, err := carts.Fetch(ctx, userID, "")
	if err != nil {
		t.Fatalf("fetch cart: %v", err)
	}
	if err := carts.Add(ctx, cart, mug.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	order, err := svc.Checkout(ctx, userID, cart, CheckoutRequest{
		ShipName: "A", ShipAddress: "B", ShipCity: "C", ShipCountry: "D",
		PaymentMethod: "Cash on delivery",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.Total != 20 {
		t.Fatalf("expected total 20, got %v", order.Total)
	}
	var reloaded domain.Product
	if err := db.First(&reloaded, mug.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("expected stock 3 after checkout, got %d", reloaded.Stock)
	}
	var lines int64
	db.Model(&domain.CartItem{}).Where("cart_id = ?", cart.ID).Count(&lines)
	if lines != 0 {
		t.Fatalf("cart must be emptied after checkout, got %d lines", lines)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	svc := NewCheckoutService(db, carts)
	ctx := context.Background()

	mug := seedProduct(t, db, "Mug", 10, 1)
	userID := common.UUIDint64()
	cart, err := carts.Fetch(ctx, userID, "")
	if err != nil {
		t.Fatalf("fetch cart: %v", err)
	}
	if err := carts.Add(ctx, cart, mug.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	// a concurrent checkout claims the last unit before ours commits
	if err := db.Model(&domain.Product{}).Where("id = ?", mug.ID).Update("stock", 0).Error; err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err = svc.Checkout(ctx, userID, cart, CheckoutRequest{
		ShipName: "A", ShipAddress: "B", ShipCity: "C", ShipCountry: "D",
		PaymentMethod: "Cash on delivery",
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var reloaded domain.Product
	if err := db.First(&reloaded, mug.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 0 {
		t.Fatalf("failed checkout must not touch stock, got %d", reloaded.Stock)
	}
	var lines int64
	db.Model(&domain.CartItem{}).Where("cart_id = ?", cart.ID).Count(&lines)
	if lines != 1 {
		t.Fatalf("failed checkout must keep the cart, got %d lines", lines)
	}
	var orders int64
	db.Model(&domain.Order{}).Where("user_id = ?", userID).Count(&orders)
	if orders != 0 {
		t.Fatalf("failed checkout must not create an order, got %d", orders)
	}
}
