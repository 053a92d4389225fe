package adminapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
)

func registerActivityLogRoutes() {
	webserver.ApiGET("/activities", listActivities, webserver.RequirePermission("view_activity"))
	webserver.ApiPOST("/activities/deleteSelected", deleteSelectedActivities, webserver.RequirePermission("delete_activity"))
	webserver.ApiPOST("/activities/clear", clearActivities, webserver.RequirePermission("delete_activity"))
}

var activitySortColumns = map[string]string{
	"id":         "id",
	"operator":   "operator",
	"action":     "action",
	"status":     "status",
	"created_at": "created_at",
}

func listActivities(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.ActivityLog{})
	db = searchWhere(db, c.QueryParam("q"), "operator", "action", "details")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query activity log", err.Error())
	}
	var rows []domain.ActivityLog
	if err := db.Order(sortClause(c, activitySortColumns, "created_at")).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query activity log", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func deleteSelectedActivities(c echo.Context) error {
	ids, err := bindIds(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse selection", err.Error())
	}
	if len(ids) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SELECTION", "Please select at least one entry", nil)
	}
	if err := GetDB(c).Delete(&domain.ActivityLog{}, ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete entries", err.Error())
	}
	audit(c, "delete_activity", domain.LogStatusDeleted,
		fmt.Sprintf("deleted %d activity entries", len(ids)))
	return okmsg(c, fmt.Sprintf("%d entries deleted", len(ids)))
}

// clearActivities truncates the whole trail. The clearing action itself
// is logged afterwards, so the trail never goes fully silent.
func clearActivities(c echo.Context) error {
	res := GetDB(c).Where("1 = 1").Delete(&domain.ActivityLog{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to clear activity log", res.Error.Error())
	}
	audit(c, "delete_activity", domain.LogStatusDeleted,
		fmt.Sprintf("cleared activity log (%d entries)", res.RowsAffected))
	return okmsg(c, "activity log cleared")
}
