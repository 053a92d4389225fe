package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Every JSON endpoint answers with this envelope.
type WebRestResult struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type PageData struct {
	Items   interface{} `json:"items"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"perPage"`
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, WebRestResult{Code: "OK", Data: data})
}

func OKMsg(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, WebRestResult{Code: "OK", Message: message})
}

func Paged(c echo.Context, items interface{}, total int64, page, perPage int) error {
	return c.JSON(http.StatusOK, WebRestResult{
		Code: "OK",
		Data: PageData{Items: items, Total: total, Page: page, PerPage: perPage},
	})
}

func Fail(c echo.Context, status int, code string, message string) error {
	return c.JSON(status, WebRestResult{Code: code, Message: message})
}

func BadRequest(c echo.Context, message string) error {
	return Fail(c, http.StatusBadRequest, "INVALID", message)
}

func NotFound(c echo.Context, message string) error {
	return Fail(c, http.StatusNotFound, "NOT_FOUND", message)
}

func Forbidden(c echo.Context) error {
	return Fail(c, http.StatusForbidden, "FORBIDDEN", "permission denied")
}

func ServerError(c echo.Context, err error) error {
	return Fail(c, http.StatusInternalServerError, "ERROR", err.Error())
}
