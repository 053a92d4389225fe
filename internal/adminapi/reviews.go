package adminapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
)

// Review moderation: admins can browse all reviews and remove abusive
// ones. Creation happens on the storefront only.

func registerReviewRoutes() {
	webserver.ApiGET("/reviews", listReviews, webserver.RequirePermission("view_product"))
	webserver.ApiDELETE("/reviews/:id", deleteReview, webserver.RequirePermission("delete_review"))
	webserver.ApiPOST("/reviews/deleteSelected", deleteSelectedReviews, webserver.RequirePermission("delete_review"))
}

var reviewSortColumns = map[string]string{
	"id":         "id",
	"rating":     "rating",
	"username":   "username",
	"created_at": "created_at",
}

func listReviews(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.Review{})
	db = searchWhere(db, c.QueryParam("q"), "username", "comment")
	if pid, err := strconv.ParseInt(c.QueryParam("product_id"), 10, 64); err == nil && pid > 0 {
		db = db.Where("product_id = ?", pid)
	}
	if rating, err := strconv.Atoi(c.QueryParam("rating")); err == nil && rating >= 1 && rating <= 5 {
		db = db.Where("rating = ?", rating)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query reviews", err.Error())
	}
	var rows []domain.Review
	if err := db.Order(sortClause(c, reviewSortColumns, "created_at")).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query reviews", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func deleteReview(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid review ID", nil)
	}
	var review domain.Review
	if err := GetDB(c).First(&review, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Review not found", nil)
	}
	if err := GetDB(c).Delete(&domain.Review{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete review", err.Error())
	}
	audit(c, "delete_review", domain.LogStatusDeleted,
		fmt.Sprintf("deleted review by <b>%s</b> on product %d", review.Username, review.ProductID))
	return ok(c, map[string]interface{}{"id": id})
}

func deleteSelectedReviews(c echo.Context) error {
	ids, err := bindIds(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse selection", err.Error())
	}
	if len(ids) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SELECTION", "Please select at least one review", nil)
	}
	if err := GetDB(c).Delete(&domain.Review{}, ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete reviews", err.Error())
	}
	audit(c, "delete_review", domain.LogStatusDeleted,
		fmt.Sprintf("deleted %d selected reviews", len(ids)))
	return okmsg(c, fmt.Sprintf("%d reviews deleted", len(ids)))
}
