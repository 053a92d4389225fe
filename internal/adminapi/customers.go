package adminapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
)

// Customers are users holding the customer role; they share sys_user
// with back-office accounts but get their own management screen.

func registerCustomerRoutes() {
	webserver.ApiGET("/customers", listCustomers, webserver.RequirePermission("view_customer"))
	webserver.ApiGET("/customers/:id", getCustomer, webserver.RequirePermission("view_customer"))
	webserver.ApiGET("/customers/:id/orders", listCustomerOrders, webserver.RequirePermission("view_customer", "view_order"))
	webserver.ApiDELETE("/customers/:id", deleteCustomer, webserver.RequirePermission("delete_customer"))
	webserver.ApiPUT("/customers/:id/status", updateUserStatus, webserver.RequirePermission("block_user"))
}

func customerScope(db *gorm.DB) *gorm.DB {
	return db.Where("id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).
			Table("sys_user_role").
			Select("sys_user_role.user_id").
			Joins("JOIN sys_role ON sys_role.id = sys_user_role.role_id").
			Where("sys_role.name = ?", "customer"))
}

func listCustomers(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := customerScope(GetDB(c).Model(&domain.User{}))
	db = searchWhere(db, c.QueryParam("q"), "username", "email", "realname")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err.Error())
	}
	var rows []domain.User
	if err := db.Order(sortClause(c, userSortColumns, "created_at")).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getCustomer(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var user domain.User
	if err := customerScope(GetDB(c).Model(&domain.User{})).First(&user, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}
	return ok(c, user)
}

func listCustomerOrders(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.Order{}).Where("user_id = ?", id)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	var rows []domain.Order
	if err := db.Preload("Items").Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func deleteCustomer(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var user domain.User
	if err := customerScope(GetDB(c).Model(&domain.User{})).First(&user, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}
	db := GetDB(c)
	if err := db.Model(&user).Association("Roles").Clear(); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to detach roles", err.Error())
	}
	// wishlist and carts go with the account; orders stay for the books
	if err := db.Where("user_id = ?", id).Delete(&domain.WishlistItem{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to clear wishlist", err.Error())
	}
	if err := db.Delete(&domain.User{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete customer", err.Error())
	}
	audit(c, "delete_customer", domain.LogStatusDeleted,
		fmt.Sprintf("deleted customer <b>%s</b>", user.Username))
	return ok(c, map[string]interface{}{"id": id})
}
