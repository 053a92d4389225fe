package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.JSONSerializer = jsonSerializer{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestOKEnvelope(t *testing.T) {
	c, rec := newTestContext()
	err := OK(c, map[string]string{"hello": "world"})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"OK"`)
	assert.Contains(t, rec.Body.String(), `"hello":"world"`)
}

func TestPagedEnvelope(t *testing.T) {
	c, rec := newTestContext()
	err := Paged(c, []string{"a", "b"}, 42, 2, 15)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"total":42`)
	assert.Contains(t, body, `"page":2`)
	assert.Contains(t, body, `"perPage":15`)
	assert.Contains(t, body, `"items":["a","b"]`)
}

func TestFailEnvelope(t *testing.T) {
	c, rec := newTestContext()
	err := Fail(c, http.StatusForbidden, "FORBIDDEN", "permission denied")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"FORBIDDEN"`)
	assert.Contains(t, rec.Body.String(), `"message":"permission denied"`)
}
