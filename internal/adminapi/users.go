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

type userPayload struct {
	Username string  `json:"username" validate:"required,min=2,max=64"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password"`
	Realname string  `json:"realname"`
	Mobile   string  `json:"mobile"`
	Image    string  `json:"image"`
	RoleIds  []int64 `json:"role_ids"`
}

type statusPayload struct {
	Status string `json:"status" validate:"required,oneof=active blocked"`
}

func registerUserRoutes() {
	webserver.ApiGET("/users", listUsers, webserver.RequirePermission("view_user"))
	webserver.ApiGET("/users/:id", getUser, webserver.RequirePermission("view_user"))
	webserver.ApiPOST("/users", createUser, webserver.RequirePermission("add_user"))
	webserver.ApiPUT("/users/:id", updateUser, webserver.RequirePermission("edit_user"))
	webserver.ApiPUT("/users/:id/status", updateUserStatus, webserver.RequirePermission("block_user"))
	webserver.ApiDELETE("/users/:id", deleteUser, webserver.RequirePermission("delete_user"))
	webserver.ApiPOST("/users/deleteSelected", deleteSelectedUsers, webserver.RequirePermission("delete_user"))
}

var userSortColumns = map[string]string{
	"id":         "id",
	"username":   "username",
	"email":      "email",
	"status":     "status",
	"last_login": "last_login",
	"created_at": "created_at",
}

func listUsers(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.User{})
	db = searchWhere(db, c.QueryParam("q"), "username", "email", "realname")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	var rows []domain.User
	if err := db.Preload("Roles").Order(sortClause(c, userSortColumns, "created_at")).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var user domain.User
	if err := GetDB(c).Preload("Roles").First(&user, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	return ok(c, user)
}

func createUser(c echo.Context) error {
	var payload userPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid user", err.Error())
	}
	if len(payload.Password) < 6 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Password must be at least 6 characters", nil)
	}
	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "ERROR", "Failed to hash password", err.Error())
	}
	roles, err := loadRoles(c, payload.RoleIds)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown role in selection", err.Error())
	}
	user := domain.User{
		ID:       common.UUIDint64(),
		Username: strings.TrimSpace(payload.Username),
		Email:    strings.ToLower(strings.TrimSpace(payload.Email)),
		Password: hashed,
		Realname: payload.Realname,
		Mobile:   payload.Mobile,
		Image:    strings.TrimSpace(payload.Image),
		Status:   domain.UserActive,
		Roles:    roles,
	}
	if err := GetDB(c).Create(&user).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", err.Error())
	}
	audit(c, "create_user", domain.LogStatusSuccess,
		fmt.Sprintf("created user <b>%s</b>", user.Username))
	return ok(c, user)
}

func updateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var user domain.User
	if err := GetDB(c).First(&user, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	var payload userPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid user", err.Error())
	}
	roles, err := loadRoles(c, payload.RoleIds)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown role in selection", err.Error())
	}

	user.Username = strings.TrimSpace(payload.Username)
	user.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	user.Realname = payload.Realname
	user.Mobile = payload.Mobile
	user.Image = strings.TrimSpace(payload.Image)
	user.UpdatedAt = time.Now()
	// blank password means keep the current one
	if payload.Password != "" {
		if len(payload.Password) < 6 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Password must be at least 6 characters", nil)
		}
		hashed, herr := common.HashPassword(payload.Password)
		if herr != nil {
			return fail(c, http.StatusInternalServerError, "ERROR", "Failed to hash password", herr.Error())
		}
		user.Password = hashed
	}

	db := GetDB(c)
	if err := db.Save(&user).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user", err.Error())
	}
	if err := db.Model(&user).Association("Roles").Replace(roles); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user roles", err.Error())
	}
	user.Roles = roles
	audit(c, "update_user", domain.LogStatusUpdated,
		fmt.Sprintf("updated user <b>%s</b>", user.Username))
	return ok(c, user)
}

// updateUserStatus toggles active/blocked. A blocked user keeps their
// account but is cut off at the next request.
func updateUserStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var user domain.User
	if err := GetDB(c).First(&user, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	var payload statusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Status must be active or blocked", err.Error())
	}
	if who := identity(c); who != nil && who.ID == user.ID && payload.Status == domain.UserBlocked {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "You cannot block your own account", nil)
	}
	if err := GetDB(c).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": payload.Status, "updated_at": time.Now()}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update status", err.Error())
	}
	audit(c, "block_user", domain.LogStatusModified,
		fmt.Sprintf("set user <b>%s</b> status to %s", user.Username, payload.Status))
	return okmsg(c, "status updated")
}

func deleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var user domain.User
	if err := GetDB(c).First(&user, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	if who := identity(c); who != nil && who.ID == user.ID {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "You cannot delete your own account", nil)
	}
	db := GetDB(c)
	if err := db.Model(&user).Association("Roles").Clear(); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to detach roles", err.Error())
	}
	if err := db.Delete(&domain.User{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete user", err.Error())
	}
	audit(c, "delete_user", domain.LogStatusDeleted,
		fmt.Sprintf("deleted user <b>%s</b>", user.Username))
	return ok(c, map[string]interface{}{"id": id})
}

func deleteSelectedUsers(c echo.Context) error {
	ids, err := bindIds(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse selection", err.Error())
	}
	if len(ids) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SELECTION", "Please select at least one user", nil)
	}
	if who := identity(c); who != nil && common.InSlice64(who.ID, ids) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Selection includes your own account", nil)
	}
	db := GetDB(c)
	if err := db.Exec("DELETE FROM sys_user_role WHERE user_id IN ?", ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to detach roles", err.Error())
	}
	if err := db.Delete(&domain.User{}, ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete users", err.Error())
	}
	audit(c, "delete_user", domain.LogStatusDeleted,
		fmt.Sprintf("deleted %d selected users", len(ids)))
	return okmsg(c, fmt.Sprintf("%d users deleted", len(ids)))
}

func loadRoles(c echo.Context, ids []int64) ([]domain.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var roles []domain.Role
	if err := GetDB(c).Where("id IN ?", ids).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
