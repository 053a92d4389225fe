package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
	"github.com/evercart/evercart/pkg/common"
)

type categoryPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func registerCategoryRoutes() {
	webserver.ApiGET("/categories", listCategories, webserver.RequirePermission("view_category"))
	webserver.ApiGET("/categories/:id", getCategory, webserver.RequirePermission("view_category"))
	webserver.ApiPOST("/categories", createCategory, webserver.RequirePermission("add_category"))
	webserver.ApiPUT("/categories/:id", updateCategory, webserver.RequirePermission("edit_category"))
	webserver.ApiDELETE("/categories/:id", deleteCategory, webserver.RequirePermission("delete_category"))
	webserver.ApiPOST("/categories/deleteSelected", deleteSelectedCategories, webserver.RequirePermission("delete_category"))
}

var categorySortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"created_at": "created_at",
}

func listCategories(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.Category{})
	db = searchWhere(db, c.QueryParam("q"), "name", "description")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	var rows []domain.Category
	if err := db.Order(sortClause(c, categorySortColumns, "name")).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getCategory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var category domain.Category
	if err := GetDB(c).First(&category, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Category not found", nil)
	}
	return ok(c, category)
}

func createCategory(c echo.Context) error {
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid category", err.Error())
	}
	category := domain.Category{
		ID:          common.UUIDint64(),
		Name:        strings.TrimSpace(payload.Name),
		Description: payload.Description,
		Image:       strings.TrimSpace(payload.Image),
	}
	if err := GetDB(c).Create(&category).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create category", err.Error())
	}
	audit(c, "create_category", domain.LogStatusSuccess,
		fmt.Sprintf("created category <b>%s</b>", category.Name))
	return ok(c, category)
}

func updateCategory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var category domain.Category
	if err := GetDB(c).First(&category, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Category not found", nil)
	}
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid category", err.Error())
	}
	category.Name = strings.TrimSpace(payload.Name)
	category.Description = payload.Description
	category.Image = strings.TrimSpace(payload.Image)
	category.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&category).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update category", err.Error())
	}
	audit(c, "update_category", domain.LogStatusUpdated,
		fmt.Sprintf("updated category <b>%s</b>", category.Name))
	return ok(c, category)
}

func deleteCategory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var category domain.Category
	if err := GetDB(c).First(&category, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Category not found", nil)
	}

	// Products keep their rows; the category reference is cleared so the
	// storefront falls back to "uncategorized".
	if err := GetDB(c).Model(&domain.Product{}).Where("category_id = ?", id).
		Update("category_id", 0).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to detach products", err.Error())
	}
	if err := GetDB(c).Delete(&domain.Category{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete category", err.Error())
	}
	audit(c, "delete_category", domain.LogStatusDeleted,
		fmt.Sprintf("deleted category <b>%s</b>", category.Name))
	return ok(c, map[string]interface{}{"id": id})
}

func deleteSelectedCategories(c echo.Context) error {
	ids, err := bindIds(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse selection", err.Error())
	}
	if len(ids) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SELECTION", "Please select at least one category", nil)
	}
	if err := GetDB(c).Model(&domain.Product{}).Where("category_id IN ?", ids).
		Update("category_id", 0).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to detach products", err.Error())
	}
	if err := GetDB(c).Delete(&domain.Category{}, ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete categories", err.Error())
	}
	audit(c, "delete_category", domain.LogStatusDeleted,
		fmt.Sprintf("deleted %d selected categories", len(ids)))
	return okmsg(c, fmt.Sprintf("%d categories deleted", len(ids)))
}
