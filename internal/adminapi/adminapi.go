// Package adminapi implements the back-office REST surface. Every
// route sits behind jwt authentication; mutating routes additionally
// carry a permission gate.
package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/webserver"
)

// InitRouter registers all back-office routes on the web server.
func InitRouter() {
	webserver.ApiGET("/session", getSession)

	registerDashboardRoutes()
	registerProductRoutes()
	registerCategoryRoutes()
	registerOrderRoutes()
	registerUserRoutes()
	registerCustomerRoutes()
	registerRoleRoutes()
	registerPromotionRoutes()
	registerReviewRoutes()
	registerActivityLogRoutes()
	registerReportRoutes()
	registerSettingRoutes()
}

// getSession returns the caller's identity and flattened permission
// grants; the front end uses it to decide what to render.
func getSession(c echo.Context) error {
	return ok(c, identity(c))
}
