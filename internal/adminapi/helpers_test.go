package adminapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func testContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestParsePaginationDefaults(t *testing.T) {
	page, perPage := parsePagination(testContext("/"))
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, perPage)
}

func TestParsePaginationClampsPerPage(t *testing.T) {
	// only the fixed choices are accepted
	page, perPage := parsePagination(testContext("/?page=3&perPage=25"))
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, perPage)

	_, perPage = parsePagination(testContext("/?perPage=9999"))
	assert.Equal(t, 10, perPage)

	_, perPage = parsePagination(testContext("/?perPage=-5"))
	assert.Equal(t, 10, perPage)

	page, _ = parsePagination(testContext("/?page=0"))
	assert.Equal(t, 1, page)
}

func TestSortClauseWhitelist(t *testing.T) {
	allowed := map[string]string{"name": "name", "created_at": "created_at"}

	clause := sortClause(testContext("/?sort=name&order=asc"), allowed, "created_at")
	assert.Equal(t, "name ASC", clause)

	// unknown columns fall back, unknown order becomes DESC
	clause = sortClause(testContext("/?sort=password;drop&order=up"), allowed, "created_at")
	assert.Equal(t, "created_at DESC", clause)
}

func TestBindIdsEmptyBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ids, err := bindIds(c)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBindIds(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":[1,2,3]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ids, err := bindIds(c)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}
