package storeapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
	"github.com/evercart/evercart/pkg/common"
)

type registerPayload struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Realname string `json:"realname"`
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func registerAuthRoutes() {
	webserver.PubPOST("/auth/register", registerAccount)
	webserver.PubPOST("/auth/login", login)
	webserver.PubPOST("/auth/logout", logout)
	webserver.PubGET("/auth/session", getStoreSession, optionalAuth())
}

// registerAccount creates a storefront account holding the customer role.
func registerAccount(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.BadRequest(c, "Unable to parse registration")
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.BadRequest(c, "Invalid registration details")
	}
	db := webserver.GetDB(c)

	username := strings.TrimSpace(payload.Username)
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	var count int64
	db.Model(&domain.User{}).Where("username = ? OR email = ?", username, email).Count(&count)
	if count > 0 {
		return webserver.Fail(c, http.StatusConflict, "DUPLICATE", "Username or email already registered")
	}

	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return webserver.ServerError(c, err)
	}
	var customerRole domain.Role
	if err := db.Where("name = ?", "customer").First(&customerRole).Error; err != nil {
		return webserver.ServerError(c, errors.Wrap(err, "customer role missing"))
	}
	user := domain.User{
		ID:       common.UUIDint64(),
		Username: username,
		Email:    email,
		Password: hashed,
		Realname: payload.Realname,
		Status:   domain.UserActive,
		Roles:    []domain.Role{customerRole},
	}
	if err := db.Create(&user).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	zap.L().Info("customer registered", zap.String("username", username))
	return issueLogin(c, &user)
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.BadRequest(c, "Unable to parse login")
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.BadRequest(c, "Username and password are required")
	}
	db := webserver.GetDB(c)

	var user domain.User
	err := db.Preload("Roles.Permissions").
		Where("username = ? OR email = ?", payload.Username, strings.ToLower(payload.Username)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !common.CheckPassword(user.Password, payload.Password)) {
		return webserver.Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password")
	}
	if err != nil {
		return webserver.ServerError(c, err)
	}
	if user.Status == domain.UserBlocked {
		return webserver.Fail(c, http.StatusForbidden, "BLOCKED", "This account is blocked")
	}

	db.Model(&domain.User{}).Where("id = ?", user.ID).Update("last_login", time.Now())

	// fold the guest cart into the account cart
	if sid, err := webserver.EnsureSessionID(c); err == nil {
		if err := carts.Merge(c.Request().Context(), user.ID, sid); err != nil {
			zap.L().Warn("guest cart merge failed", zap.Error(err))
		}
	}
	return issueLogin(c, &user)
}

func issueLogin(c echo.Context, user *domain.User) error {
	token, err := webserver.IssueToken(webserver.GetAppContext(c), user)
	if err != nil {
		return webserver.ServerError(c, err)
	}
	cfg := webserver.GetAppContext(c).Config().Web
	c.SetCookie(&http.Cookie{
		Name:     webserver.TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(time.Duration(cfg.JwtExpire) * time.Hour),
	})
	return webserver.OK(c, map[string]interface{}{
		"token": token,
		"user":  identityView(user),
	})
}

func logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     webserver.TokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return webserver.OKMsg(c, "logged out")
}

// getStoreSession reports the current login, or a null user for guests.
func getStoreSession(c echo.Context) error {
	return webserver.OK(c, webserver.GetIdentity(c))
}

// identityView keeps the snowflake id as a string so it survives
// javascript number parsing.
func identityView(user *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       strconv.FormatInt(user.ID, 10),
		"username": user.Username,
		"email":    user.Email,
		"realname": user.Realname,
		"image":    user.Image,
	}
}
