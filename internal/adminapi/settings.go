package adminapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
)

type settingUpdatePayload struct {
	Values map[string]string `json:"values" validate:"required"`
}

func registerSettingRoutes() {
	webserver.ApiGET("/settings", listSettings, webserver.RequirePermission("view_setting"))
	webserver.ApiPUT("/settings", updateSettings, webserver.RequirePermission("edit_setting"))
}

// listSettings groups rows by category for the settings screen.
func listSettings(c echo.Context) error {
	var rows []domain.SysConfig
	if err := GetDB(c).Order("sort ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query settings", err.Error())
	}
	grouped := map[string][]domain.SysConfig{}
	for _, row := range rows {
		grouped[row.Type] = append(grouped[row.Type], row)
	}
	return ok(c, grouped)
}

// updateSettings takes a flat map of "category.name" keys. Unknown keys
// are rejected so the schema stays the single source of truth.
func updateSettings(c echo.Context) error {
	var payload settingUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", err.Error())
	}
	if len(payload.Values) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No settings provided", nil)
	}

	db := GetDB(c)
	updated := 0
	for key, value := range payload.Values {
		res := db.Model(&domain.SysConfig{}).
			Where("type || '.' || name = ?", key).
			Updates(map[string]interface{}{"value": value, "updated_at": time.Now()})
		if res.Error != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update setting", res.Error.Error())
		}
		if res.RowsAffected == 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("Unknown setting: %s", key), nil)
		}
		updated++
	}

	webserver.GetAppContext(c).Settings().Invalidate()
	audit(c, "update_setting", domain.LogStatusUpdated,
		fmt.Sprintf("updated %d settings", updated))
	return okmsg(c, "settings saved")
}
