// Package storeapi implements the public storefront surface: catalog
// browsing, guest carts, checkout and account self-service.
package storeapi

import (
	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/app"
	"github.com/evercart/evercart/internal/shop"
	"github.com/evercart/evercart/internal/webserver"
)

var (
	appCtx   app.AppContext
	carts    *shop.CartService
	checkout *shop.CheckoutService
)

// InitRouter wires the storefront services and registers all routes.
func InitRouter(ctx app.AppContext) {
	appCtx = ctx
	carts = shop.NewCartService(ctx.DB())
	checkout = shop.NewCheckoutService(ctx.DB(), carts)

	registerAuthRoutes()
	registerCatalogRoutes()
	registerCartRoutes()
	registerCheckoutRoutes()
	registerAccountRoutes()
}

func optionalAuth() echo.MiddlewareFunc {
	return webserver.OptionalAuth(appCtx)
}
