package webserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/evercart/evercart/internal/app"
	"github.com/evercart/evercart/pkg/metrics"
)

const (
	ContextAppKey      = "evercart_app"
	ContextIdentityKey = "evercart_identity"
	SessionName        = "evercart_session"
)

var server *WebServer

type WebServer struct {
	root   *echo.Echo
	appCtx app.AppContext
	api    *echo.Group // public storefront surface
	authed *echo.Group // storefront surface requiring a login
	admin  *echo.Group // back office, jwt + identity + permission gates
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

type webValidator struct {
	validate *validator.Validate
}

func (v *webValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

// Init builds the echo server and route groups.
func Init(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = &webValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(appCtx.Config().Web.Secret))))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextAppKey, appCtx)
			_ = metrics.InsertGauge(metrics.MetricAPICount, 1)
			return next(c)
		}
	})

	server = &WebServer{root: e, appCtx: appCtx}
	server.api = e.Group("/api")
	server.authed = e.Group("/api", OptionalAuth(appCtx), RequireAuth())
	server.admin = e.Group("/api/admin", jwtMiddleware(appCtx), identityMiddleware(appCtx))
	return server
}

// Instance returns the singleton, for handler registration.
func Instance() *WebServer {
	return server
}

// Start listens until the context is cancelled.
func Start(ctx context.Context) error {
	cfg := server.appCtx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.S().Infof("admin api listening on %s", addr)

	errch := make(chan error, 1)
	go func() {
		errch <- server.root.Start(addr)
	}()
	select {
	case <-ctx.Done():
		return server.root.Shutdown(context.Background())
	case err := <-errch:
		return err
	}
}

// Public storefront routes.

func PubGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func PubPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

// Authenticated storefront routes.

func AuthGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.authed.GET(path, h, m...)
}

func AuthPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.authed.POST(path, h, m...)
}

func AuthDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.authed.DELETE(path, h, m...)
}

// Back-office routes: jwt + identity always, permission gates per route.

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.PUT(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.DELETE(path, h, m...)
}
