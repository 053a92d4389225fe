package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/shop"
	"github.com/evercart/evercart/internal/webserver"
	"github.com/evercart/evercart/pkg/common"
)

type promotionPayload struct {
	Name      string    `json:"name" validate:"required,min=1,max=100"`
	Type      string    `json:"type" validate:"required"`
	Code      string    `json:"code"`
	Discount  float64   `json:"discount"`
	ProductID int64     `json:"product_id,string"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func registerPromotionRoutes() {
	webserver.ApiGET("/promotions", listPromotions, webserver.RequirePermission("view_promotion"))
	webserver.ApiGET("/promotions/:id", getPromotion, webserver.RequirePermission("view_promotion"))
	webserver.ApiPOST("/promotions", createPromotion, webserver.RequirePermission("add_promotion"))
	webserver.ApiPUT("/promotions/:id", updatePromotion, webserver.RequirePermission("edit_promotion"))
	webserver.ApiDELETE("/promotions/:id", deletePromotion, webserver.RequirePermission("delete_promotion"))
	webserver.ApiPOST("/promotions/deleteSelected", deleteSelectedPromotions, webserver.RequirePermission("delete_promotion"))
}

var promotionSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"type":       "type",
	"discount":   "discount",
	"start_date": "start_date",
	"end_date":   "end_date",
	"created_at": "created_at",
}

func listPromotions(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.Promotion{})
	db = searchWhere(db, c.QueryParam("q"), "name", "code")
	if ptype := strings.TrimSpace(c.QueryParam("type")); ptype != "" {
		db = db.Where("type = ?", ptype)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query promotions", err.Error())
	}
	var rows []domain.Promotion
	if err := db.Order(sortClause(c, promotionSortColumns, "created_at")).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query promotions", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getPromotion(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid promotion ID", nil)
	}
	var promo domain.Promotion
	if err := GetDB(c).First(&promo, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Promotion not found", nil)
	}
	return ok(c, promo)
}

func createPromotion(c echo.Context) error {
	var payload promotionPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse promotion", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid promotion", err.Error())
	}
	promo := domain.Promotion{
		ID:        common.UUIDint64(),
		Name:      strings.TrimSpace(payload.Name),
		Type:      payload.Type,
		Code:      payload.Code,
		Discount:  payload.Discount,
		ProductID: payload.ProductID,
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
	}
	if err := shop.NormalizePromotion(&promo, time.Now()); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	if err := GetDB(c).Create(&promo).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create promotion", err.Error())
	}
	audit(c, "create_promotion", domain.LogStatusSuccess,
		fmt.Sprintf("created promotion <b>%s</b> (%s, %.0f%%)", promo.Name, promo.Type, promo.Discount))
	return ok(c, promo)
}

func updatePromotion(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid promotion ID", nil)
	}
	var promo domain.Promotion
	if err := GetDB(c).First(&promo, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Promotion not found", nil)
	}
	var payload promotionPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse promotion", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid promotion", err.Error())
	}

	promo.Name = strings.TrimSpace(payload.Name)
	promo.Type = payload.Type
	promo.Code = payload.Code
	promo.Discount = payload.Discount
	promo.ProductID = payload.ProductID
	promo.StartDate = payload.StartDate
	promo.EndDate = payload.EndDate
	promo.UpdatedAt = time.Now()
	if err := shop.NormalizePromotion(&promo, time.Now()); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	if err := GetDB(c).Save(&promo).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update promotion", err.Error())
	}
	audit(c, "update_promotion", domain.LogStatusUpdated,
		fmt.Sprintf("updated promotion <b>%s</b>", promo.Name))
	return ok(c, promo)
}

func deletePromotion(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid promotion ID", nil)
	}
	var promo domain.Promotion
	if err := GetDB(c).First(&promo, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Promotion not found", nil)
	}
	if err := GetDB(c).Delete(&domain.Promotion{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete promotion", err.Error())
	}
	audit(c, "delete_promotion", domain.LogStatusDeleted,
		fmt.Sprintf("deleted promotion <b>%s</b>", promo.Name))
	return ok(c, map[string]interface{}{"id": id})
}

func deleteSelectedPromotions(c echo.Context) error {
	ids, err := bindIds(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse selection", err.Error())
	}
	if len(ids) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SELECTION", "Please select at least one promotion", nil)
	}
	if err := GetDB(c).Delete(&domain.Promotion{}, ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete promotions", err.Error())
	}
	audit(c, "delete_promotion", domain.LogStatusDeleted,
		fmt.Sprintf("deleted %d selected promotions", len(ids)))
	return okmsg(c, fmt.Sprintf("%d promotions deleted", len(ids)))
}
