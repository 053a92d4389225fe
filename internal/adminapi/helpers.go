package adminapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/events"
	"github.com/evercart/evercart/internal/webserver"
)

// Local aliases keep handler bodies short.
var (
	ok       = webserver.OK
	okmsg    = webserver.OKMsg
	paged    = webserver.Paged
	GetDB    = webserver.GetDB
	identity = webserver.GetIdentity
)

func fail(c echo.Context, status int, code string, message string, detail interface{}) error {
	if detail != nil {
		zap.L().Debug("request failed",
			zap.String("path", c.Path()),
			zap.String("code", code),
			zap.Any("detail", detail))
	}
	return webserver.Fail(c, status, code, message)
}

// perPage is clamped to the fixed choices the list UI offers.
var perPageChoices = []int{10, 15, 20, 25, 50}

func parsePagination(c echo.Context) (page int, perPage int) {
	page = 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	perPage = perPageChoices[0]
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil {
		for _, choice := range perPageChoices {
			if ps == choice {
				perPage = ps
				break
			}
		}
	}
	return page, perPage
}

// searchWhere appends a case-insensitive substring match over the given
// columns. Postgres gets ILIKE, everything else a LOWER() fallback.
func searchWhere(db *gorm.DB, q string, columns ...string) *gorm.DB {
	q = strings.TrimSpace(q)
	if q == "" || len(columns) == 0 {
		return db
	}
	var clauses []string
	var args []interface{}
	if strings.EqualFold(db.Name(), "postgres") {
		for _, col := range columns {
			clauses = append(clauses, col+" ILIKE ?")
			args = append(args, "%"+q+"%")
		}
	} else {
		for _, col := range columns {
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, "%"+strings.ToLower(q)+"%")
		}
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}

// sortClause validates sort/order against a whitelist to keep raw query
// params out of the ORDER BY.
func sortClause(c echo.Context, allowed map[string]string, fallback string) string {
	col, ok := allowed[strings.TrimSpace(c.QueryParam("sort"))]
	if !ok || col == "" {
		col = fallback
	}
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return col + " " + order
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid id")
	}
	return id, nil
}

// idsPayload is the bulk-delete body. An empty selection is rejected by
// handlers before touching the database.
type idsPayload struct {
	Ids []int64 `json:"ids"`
}

func bindIds(c echo.Context) ([]int64, error) {
	var payload idsPayload
	if err := c.Bind(&payload); err != nil {
		return nil, err
	}
	return payload.Ids, nil
}

// audit publishes an activity event for the current operator.
func audit(c echo.Context, action, status, details string) {
	who := identity(c)
	ev := events.ActivityEvent{
		OperatorIP: c.RealIP(),
		Action:     action,
		Details:    details,
		Status:     status,
	}
	if who != nil {
		ev.OperatorID = who.ID
		ev.Operator = who.Username
	}
	events.PublishActivity(ev)
}
