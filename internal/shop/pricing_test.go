package shop

import (
	"testing"
	"time"

	"github.com/evercart/evercart/internal/domain"
)

func promoWindow(days int) (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-24 * time.Hour), now.Add(time.Duration(days) * 24 * time.Hour)
}

func TestNormalizePromotionCodeRequired(t *testing.T) {
	start, end := promoWindow(7)
	p := &domain.Promotion{Name: "Spring", Type: "code", Code: "", StartDate: start, EndDate: end}
	if err := NormalizePromotion(p, time.Now()); err != ErrCodeRequired {
		t.Fatalf("expected ErrCodeRequired, got %v", err)
	}
	p.Code = " SPRING10 "
	if err := NormalizePromotion(p, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Code != "SPRING10" {
		t.Fatalf("code not trimmed: %q", p.Code)
	}
}

func TestNormalizePromotionAutoDiscardsCode(t *testing.T) {
	start, end := promoWindow(7)
	p := &domain.Promotion{Name: "Flash", Type: "auto", Code: "TYPED-EARLIER", StartDate: start, EndDate: end}
	if err := NormalizePromotion(p, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Code != "" {
		t.Fatalf("auto promotion must not keep a code, got %q", p.Code)
	}
	if !p.IsActive {
		t.Fatalf("promotion inside its window must be active")
	}
}

func TestNormalizePromotionInvalidWindow(t *testing.T) {
	now := time.Now()
	p := &domain.Promotion{Name: "Bad", Type: "hybrid", Code: "X", StartDate: now, EndDate: now.Add(-time.Hour)}
	if err := NormalizePromotion(p, now); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestResolveCode(t *testing.T) {
	start, end := promoWindow(7)
	promos := []domain.Promotion{
		{Type: "auto", Discount: 5, StartDate: start, EndDate: end},
		{Type: "code", Code: "TEN", Discount: 10, StartDate: start, EndDate: end},
		{Type: "code", Code: "OLD", Discount: 50, StartDate: start.Add(-48 * time.Hour), EndDate: start.Add(-24 * time.Hour)},
	}
	now := time.Now()

	p, err := ResolveCode(promos, "ten", now)
	if err != nil || p == nil || p.Discount != 10 {
		t.Fatalf("expected TEN to resolve case-insensitively, got %v %v", p, err)
	}
	if _, err := ResolveCode(promos, "OLD", now); err != ErrPromoNotFound {
		t.Fatalf("expired code must not resolve, got %v", err)
	}
	if _, err := ResolveCode(promos, "NOPE", now); err != ErrPromoNotFound {
		t.Fatalf("unknown code must not resolve, got %v", err)
	}
	if p, err := ResolveCode(promos, "", now); p != nil || err != nil {
		t.Fatalf("blank code resolves to nothing, got %v %v", p, err)
	}
}

func TestPriceCartTotalsAndDiscounts(t *testing.T) {
	start, end := promoWindow(7)
	products := map[int64]*domain.Product{
		1: {ID: 1, Name: "Mug", Price: 10, Stock: 100},
		2: {ID: 2, Name: "Cap", Price: 20, Stock: 100},
	}
	promos := []domain.Promotion{
		{Type: "auto", ProductID: 1, Discount: 10, StartDate: start, EndDate: end},
	}
	items := []domain.CartItem{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
		{ProductID: 99, Quantity: 1}, // vanished product is dropped
	}
	lines, totals := PriceCart(items, products, promos, nil, time.Now())
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].DiscountPrice != 9 {
		t.Fatalf("expected discounted price 9, got %v", lines[0].DiscountPrice)
	}
	if totals.Subtotal != 70 {
		t.Fatalf("expected subtotal 70, got %v", totals.Subtotal)
	}
	if totals.Total != 67 {
		t.Fatalf("expected total 67, got %v", totals.Total)
	}
	if totals.Discount != 3 {
		t.Fatalf("expected discount 3, got %v", totals.Discount)
	}
}

func TestDiscountForPicksBestApplicable(t *testing.T) {
	start, end := promoWindow(7)
	promos := []domain.Promotion{
		{Type: "auto", ProductID: 0, Discount: 5, StartDate: start, EndDate: end},   // storewide
		{Type: "hybrid", ProductID: 7, Discount: 15, StartDate: start, EndDate: end},
		{Type: "code", ProductID: 7, Discount: 30, Code: "BIG", StartDate: start, EndDate: end},
	}
	now := time.Now()
	if d := DiscountFor(7, promos, nil, now); d != 15 {
		t.Fatalf("hybrid applies without code, expected 15 got %v", d)
	}
	resolved := &promos[2]
	if d := DiscountFor(7, promos, resolved, now); d != 30 {
		t.Fatalf("resolved code wins, expected 30 got %v", d)
	}
	if d := DiscountFor(8, promos, resolved, now); d != 5 {
		t.Fatalf("other product only gets storewide, expected 5 got %v", d)
	}
}
