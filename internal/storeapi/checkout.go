package storeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/shop"
	"github.com/evercart/evercart/internal/webserver"
)

func registerCheckoutRoutes() {
	webserver.AuthPOST("/orders/checkout", placeOrder)
	webserver.AuthGET("/orders", listMyOrders)
	webserver.AuthGET("/orders/order-confirmation", orderConfirmation)
	webserver.AuthPOST("/orders/:number/cancel", cancelMyOrder)
	webserver.AuthPOST("/orders/:number/refund", requestRefund)
}

func placeOrder(c echo.Context) error {
	var req shop.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return webserver.BadRequest(c, "Unable to parse checkout")
	}
	if err := c.Validate(&req); err != nil {
		return webserver.BadRequest(c, "Shipping address and payment method are required")
	}
	who := webserver.GetIdentity(c)
	cart, err := carts.Fetch(c.Request().Context(), who.ID, "")
	if err != nil {
		return webserver.ServerError(c, err)
	}

	order, err := checkout.Checkout(c.Request().Context(), who.ID, cart, req)
	switch {
	case errors.Is(err, shop.ErrEmptyCart):
		return webserver.BadRequest(c, "Your cart is empty")
	case errors.Is(err, shop.ErrInsufficientStock):
		return webserver.Fail(c, http.StatusConflict, "OUT_OF_STOCK", err.Error())
	case errors.Is(err, shop.ErrPromoNotFound):
		return webserver.BadRequest(c, "Promo code is invalid or expired")
	case err != nil:
		return webserver.ServerError(c, err)
	}

	// confirmation email is best effort and never blocks the response
	mailer := webserver.GetAppContext(c)
	go func(email, number string, total float64) {
		if err := mailer.SendOrderConfirmation(email, number, total); err != nil {
			zap.L().Debug("order confirmation skipped", zap.Error(err))
		}
	}(who.Email, order.OrderNumber, order.Total)

	return webserver.OK(c, order)
}

func listMyOrders(c echo.Context) error {
	who := webserver.GetIdentity(c)
	var rows []domain.Order
	if err := webserver.GetDB(c).Preload("Items").
		Where("user_id = ?", who.ID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	return webserver.OK(c, rows)
}

// orderConfirmation re-reads a just-placed order by its number; the
// order id never travels through the storefront URL.
func orderConfirmation(c echo.Context) error {
	number := strings.TrimSpace(c.QueryParam("orderNumber"))
	if number == "" {
		return webserver.BadRequest(c, "orderNumber is required")
	}
	who := webserver.GetIdentity(c)
	order, err := checkout.FindByNumber(c.Request().Context(), who.ID, number)
	if err != nil {
		return webserver.NotFound(c, "Order not found")
	}
	return webserver.OK(c, order)
}

func myOrderByNumber(c echo.Context) (*domain.Order, error) {
	who := webserver.GetIdentity(c)
	number := strings.TrimSpace(c.Param("number"))
	var order domain.Order
	err := webserver.GetDB(c).
		Where("order_number = ? AND user_id = ?", number, who.ID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// cancelMyOrder lets a customer cancel while the order is still Pending.
func cancelMyOrder(c echo.Context) error {
	order, err := myOrderByNumber(c)
	if err != nil {
		return webserver.NotFound(c, "Order not found")
	}
	if err := shop.CancelOrder(webserver.GetDB(c), order); err != nil {
		return webserver.BadRequest(c, err.Error())
	}
	order.Status = domain.OrderCancelled
	return webserver.OK(c, order)
}

type refundPayload struct {
	Reason string  `json:"reason" validate:"required,min=3,max=2000"`
	Amount float64 `json:"amount"`
	Items  []int64 `json:"items"`
}

// requestRefund files a refund request on a shipped or delivered order;
// an admin approves or rejects it from the back office.
func requestRefund(c echo.Context) error {
	order, err := myOrderByNumber(c)
	if err != nil {
		return webserver.NotFound(c, "Order not found")
	}
	if !shop.CanTransition(order.Status, domain.OrderRefunded) {
		return webserver.BadRequest(c, "This order is not eligible for a refund")
	}
	if order.RefundStatus == domain.RefundRequested {
		return webserver.BadRequest(c, "A refund request is already pending")
	}
	var payload refundPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.BadRequest(c, "Unable to parse refund request")
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.BadRequest(c, "A reason is required")
	}
	amount := payload.Amount
	if amount <= 0 || amount > order.Total {
		amount = order.Total
	}
	err = webserver.GetDB(c).Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"refund_status": domain.RefundRequested,
			"refund_reason": strings.TrimSpace(payload.Reason),
			"refund_amount": amount,
			"refund_items":  domain.Int64List(payload.Items),
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return webserver.ServerError(c, err)
	}
	return webserver.OKMsg(c, "refund request submitted")
}
