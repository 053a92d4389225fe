package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/app"
	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/perm"
	"github.com/evercart/evercart/pkg/common"
)

const TokenCookieName = "evercart_token"

// TokenClaims is the jwt payload for both back-office and storefront logins.
type TokenClaims struct {
	UserID   int64  `json:"uid,string"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueToken signs a jwt for the given user with the configured expiry.
func IssueToken(appCtx app.AppContext, user *domain.User) (string, error) {
	cfg := appCtx.Config().Web
	claims := TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.JwtExpire) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

func jwtMiddleware(appCtx app.AppContext) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(appCtx.Config().Web.Secret),
		TokenLookup: "header:Authorization:Bearer ,cookie:" + TokenCookieName,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(TokenClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
		},
	})
}

// identityMiddleware resolves the verified jwt into a full identity with
// roles and flattened permission grants. Blocked accounts are cut off
// here even when they hold a still-valid token.
func identityMiddleware(appCtx app.AppContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
			}
			claims, ok := token.Claims.(*TokenClaims)
			if !ok {
				return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
			}
			identity, err := loadIdentity(appCtx.DB(), claims.UserID)
			if err != nil {
				return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "account not found")
			}
			if identity.Status == domain.UserBlocked {
				return Fail(c, http.StatusForbidden, "BLOCKED", "account is blocked")
			}
			c.Set(ContextIdentityKey, identity)
			return next(c)
		}
	}
}

func loadIdentity(db *gorm.DB, userID int64) (*perm.Identity, error) {
	var user domain.User
	if err := db.Preload("Roles.Permissions").First(&user, userID).Error; err != nil {
		return nil, err
	}
	return perm.NewIdentity(&user), nil
}

// OptionalAuth loads an identity when a valid token is present and
// stays silent otherwise, so guests share handlers with logged-in
// customers.
func OptionalAuth(appCtx app.AppContext) echo.MiddlewareFunc {
	secret := []byte(appCtx.Config().Web.Secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return next(c)
			}
			claims := new(TokenClaims)
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err != nil || !token.Valid {
				return next(c)
			}
			identity, err := loadIdentity(appCtx.DB(), claims.UserID)
			if err != nil || identity.Status == domain.UserBlocked {
				return next(c)
			}
			c.Set(ContextIdentityKey, identity)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth rejects requests that carry no resolved identity.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetIdentity(c) == nil {
				return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
			}
			return next(c)
		}
	}
}

// RequirePermission grants access when the identity holds ANY of the
// named permissions.
func RequirePermission(names ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := GetIdentity(c)
			if !perm.HasPermission(identity, names...) {
				zap.L().Warn("permission denied",
					zap.String("path", c.Path()),
					zap.Strings("required", names))
				return Forbidden(c)
			}
			return next(c)
		}
	}
}

// Context accessors shared by all handler packages.

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(ContextAppKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB()
}

func GetIdentity(c echo.Context) *perm.Identity {
	if v, ok := c.Get(ContextIdentityKey).(*perm.Identity); ok {
		return v
	}
	return nil
}

// EnsureSessionID returns the browser's cart session id, minting one on
// first contact.
func EnsureSessionID(c echo.Context) (string, error) {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return "", err
	}
	if sid, ok := sess.Values["sid"].(string); ok && sid != "" {
		return sid, nil
	}
	sid := common.UUID()
	sess.Values["sid"] = sid
	sess.Options.Path = "/"
	sess.Options.HttpOnly = true
	sess.Options.MaxAge = 86400 * 30
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", err
	}
	return sid, nil
}
