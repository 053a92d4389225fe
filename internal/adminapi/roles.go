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

type rolePayload struct {
	Name          string  `json:"name" validate:"required,min=1,max=64"`
	Remark        string  `json:"remark"`
	PermissionIds []int64 `json:"permission_ids"`
}

func registerRoleRoutes() {
	webserver.ApiGET("/roles", listRoles, webserver.RequirePermission("view_role"))
	webserver.ApiGET("/roles/:id", getRole, webserver.RequirePermission("view_role"))
	webserver.ApiPOST("/roles", createRole, webserver.RequirePermission("add_role"))
	webserver.ApiPUT("/roles/:id", updateRole, webserver.RequirePermission("edit_role"))
	webserver.ApiDELETE("/roles/:id", deleteRole, webserver.RequirePermission("delete_role"))
	webserver.ApiGET("/permissions", listPermissions, webserver.RequirePermission("view_role"))
}

// listPermissions returns the full immutable catalog for the role form.
func listPermissions(c echo.Context) error {
	var rows []domain.Permission
	if err := GetDB(c).Order("name ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query permissions", err.Error())
	}
	return ok(c, rows)
}

func listRoles(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.Role{})
	db = searchWhere(db, c.QueryParam("q"), "name", "remark")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query roles", err.Error())
	}
	var rows []domain.Role
	if err := db.Preload("Permissions").Order("name ASC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query roles", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getRole(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid role ID", nil)
	}
	var role domain.Role
	if err := GetDB(c).Preload("Permissions").First(&role, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Role not found", nil)
	}
	return ok(c, role)
}

func createRole(c echo.Context) error {
	var payload rolePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse role", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid role", err.Error())
	}
	perms, err := loadPermissions(c, payload.PermissionIds)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown permission in selection", err.Error())
	}
	role := domain.Role{
		ID:          common.UUIDint64(),
		Name:        strings.TrimSpace(payload.Name),
		Remark:      payload.Remark,
		Permissions: perms,
	}
	if err := GetDB(c).Create(&role).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create role", err.Error())
	}
	audit(c, "create_role", domain.LogStatusSuccess,
		fmt.Sprintf("created role <b>%s</b> with %d permissions", role.Name, len(perms)))
	return ok(c, role)
}

func updateRole(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid role ID", nil)
	}
	var role domain.Role
	if err := GetDB(c).First(&role, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Role not found", nil)
	}
	var payload rolePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse role", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid role", err.Error())
	}
	perms, err := loadPermissions(c, payload.PermissionIds)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown permission in selection", err.Error())
	}

	role.Name = strings.TrimSpace(payload.Name)
	role.Remark = payload.Remark
	role.UpdatedAt = time.Now()
	db := GetDB(c)
	if err := db.Save(&role).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role", err.Error())
	}
	if err := db.Model(&role).Association("Permissions").Replace(perms); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role permissions", err.Error())
	}
	role.Permissions = perms
	audit(c, "update_role", domain.LogStatusUpdated,
		fmt.Sprintf("updated role <b>%s</b>, now %d permissions", role.Name, len(perms)))
	return ok(c, role)
}

// deleteRole removes the role and its grants. Users keep their other
// roles; holders of only this role simply lose its permissions.
func deleteRole(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid role ID", nil)
	}
	var role domain.Role
	if err := GetDB(c).First(&role, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Role not found", nil)
	}
	db := GetDB(c)
	if err := db.Model(&role).Association("Permissions").Clear(); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to clear role permissions", err.Error())
	}
	if err := db.Exec("DELETE FROM sys_user_role WHERE role_id = ?", id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to detach role from users", err.Error())
	}
	if err := db.Delete(&domain.Role{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete role", err.Error())
	}
	audit(c, "delete_role", domain.LogStatusDeleted,
		fmt.Sprintf("deleted role <b>%s</b>", role.Name))
	return ok(c, map[string]interface{}{"id": id})
}

func loadPermissions(c echo.Context, ids []int64) ([]domain.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var perms []domain.Permission
	if err := GetDB(c).Where("id IN ?", ids).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}
