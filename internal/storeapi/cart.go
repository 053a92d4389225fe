package storeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/shop"
	"github.com/evercart/evercart/internal/webserver"
)

type cartLinePayload struct {
	ProductID int64 `json:"product_id,string" validate:"required"`
	Quantity  int   `json:"quantity"`
}

// Cart routes work for guests (cookie session) and customers alike.
func registerCartRoutes() {
	webserver.PubGET("/cart", getCart, optionalAuth())
	webserver.PubPOST("/cart/add", addToCart, optionalAuth())
	webserver.PubPOST("/cart/update", updateCartLine, optionalAuth())
	webserver.PubPOST("/cart/set", setCartLine, optionalAuth())
	webserver.PubPOST("/cart/remove", removeCartLine, optionalAuth())
	webserver.PubPOST("/cart/clear", clearCart, optionalAuth())
}

func currentCart(c echo.Context) (*domain.Cart, error) {
	var userID int64
	if who := webserver.GetIdentity(c); who != nil {
		userID = who.ID
	}
	sid, err := webserver.EnsureSessionID(c)
	if err != nil {
		return nil, err
	}
	return carts.Fetch(c.Request().Context(), userID, sid)
}

func renderCart(c echo.Context, cart *domain.Cart) error {
	view, err := carts.View(c.Request().Context(), cart, c.QueryParam("promo_code"))
	if err != nil {
		if errors.Is(err, shop.ErrPromoNotFound) {
			return webserver.BadRequest(c, err.Error())
		}
		return webserver.ServerError(c, err)
	}
	return webserver.OK(c, view)
}

func getCart(c echo.Context) error {
	cart, err := currentCart(c)
	if err != nil {
		return webserver.ServerError(c, err)
	}
	return renderCart(c, cart)
}

func bindCartLine(c echo.Context) (*cartLinePayload, error) {
	var payload cartLinePayload
	if err := c.Bind(&payload); err != nil {
		return nil, err
	}
	if err := c.Validate(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func cartMutation(c echo.Context, mutate func(cart *domain.Cart, payload *cartLinePayload) error) error {
	payload, err := bindCartLine(c)
	if err != nil {
		return webserver.BadRequest(c, "Invalid cart request")
	}
	cart, err := currentCart(c)
	if err != nil {
		return webserver.ServerError(c, err)
	}
	if err := mutate(cart, payload); err != nil {
		if errors.Is(err, shop.ErrInsufficientStock) {
			return webserver.Fail(c, http.StatusConflict, "OUT_OF_STOCK", err.Error())
		}
		return webserver.BadRequest(c, err.Error())
	}
	return renderCart(c, cart)
}

func addToCart(c echo.Context) error {
	return cartMutation(c, func(cart *domain.Cart, payload *cartLinePayload) error {
		return carts.Add(c.Request().Context(), cart, payload.ProductID, payload.Quantity)
	})
}

func updateCartLine(c echo.Context) error {
	return cartMutation(c, func(cart *domain.Cart, payload *cartLinePayload) error {
		return carts.UpdateDelta(c.Request().Context(), cart, payload.ProductID, payload.Quantity)
	})
}

// setCartLine stores an absolute quantity. When the requested amount
// exceeds stock the server keeps the previous quantity and answers 409;
// the client re-reads the cart to converge.
func setCartLine(c echo.Context) error {
	return cartMutation(c, func(cart *domain.Cart, payload *cartLinePayload) error {
		return carts.Set(c.Request().Context(), cart, payload.ProductID, payload.Quantity)
	})
}

func removeCartLine(c echo.Context) error {
	return cartMutation(c, func(cart *domain.Cart, payload *cartLinePayload) error {
		return carts.Remove(c.Request().Context(), cart, payload.ProductID)
	})
}

func clearCart(c echo.Context) error {
	cart, err := currentCart(c)
	if err != nil {
		return webserver.ServerError(c, err)
	}
	if err := carts.Clear(c.Request().Context(), cart); err != nil {
		return webserver.ServerError(c, err)
	}
	return renderCart(c, cart)
}
