package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
)

func registerReportRoutes() {
	webserver.ApiGET("/reports/sales", salesReport, webserver.RequirePermission("view_report"))
	webserver.ApiGET("/reports/sales/export", exportSalesReport, webserver.RequirePermission("view_report"))
}

// reportRange parses free-form start/end query params; dateparse accepts
// most human formats. The default window is the trailing 30 days.
func reportRange(c echo.Context) (time.Time, time.Time) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if s := strings.TrimSpace(c.QueryParam("start")); s != "" {
		if t, err := dateparse.ParseAny(s); err == nil {
			start = t
		}
	}
	if s := strings.TrimSpace(c.QueryParam("end")); s != "" {
		if t, err := dateparse.ParseAny(s); err == nil {
			// make the end day inclusive
			end = t.Add(24*time.Hour - time.Second)
		}
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start, end
}

type salesDay struct {
	Day     string  `json:"day" csv:"day"`
	Orders  int     `json:"orders" csv:"orders"`
	Revenue float64 `json:"revenue" csv:"revenue"`
}

type topProduct struct {
	ProductID   int64   `json:"product_id,string"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

type salesSummary struct {
	Start         string  `json:"start"`
	End           string  `json:"end"`
	OrderCount    int     `json:"order_count"`
	Revenue       float64 `json:"revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
	MedianOrder   float64 `json:"median_order"`
	RefundedCount int     `json:"refunded_count"`
}

type salesReportPayload struct {
	Summary     salesSummary `json:"summary"`
	Days        []salesDay   `json:"days"`
	TopProducts []topProduct `json:"top_products"`
}

// reportStatuses: cancelled orders never count; refunded ones are
// reported separately.
var reportStatuses = []string{domain.OrderPending, domain.OrderShipped, domain.OrderDelivered}

func buildSalesReport(c echo.Context) (*salesReportPayload, error) {
	start, end := reportRange(c)
	db := GetDB(c)

	var orders []domain.Order
	if err := db.Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, err
	}

	dayIndex := map[string]*salesDay{}
	var dayOrder []string
	var totals []float64
	refunded := 0
	for _, o := range orders {
		if o.Status == domain.OrderRefunded {
			refunded++
		}
		counted := false
		for _, s := range reportStatuses {
			if o.Status == s {
				counted = true
				break
			}
		}
		if !counted {
			continue
		}
		day := o.CreatedAt.Format("2006-01-02")
		entry, found := dayIndex[day]
		if !found {
			entry = &salesDay{Day: day}
			dayIndex[day] = entry
			dayOrder = append(dayOrder, day)
		}
		entry.Orders++
		entry.Revenue += o.Total
		totals = append(totals, o.Total)
	}

	days := make([]salesDay, 0, len(dayOrder))
	for _, day := range dayOrder {
		days = append(days, *dayIndex[day])
	}

	summary := salesSummary{
		Start:         start.Format("2006-01-02"),
		End:           end.Format("2006-01-02"),
		OrderCount:    len(totals),
		RefundedCount: refunded,
	}
	if len(totals) > 0 {
		sum, _ := stats.Sum(totals)
		mean, _ := stats.Mean(totals)
		median, _ := stats.Median(totals)
		summary.Revenue, _ = stats.Round(sum, 2)
		summary.AvgOrderValue, _ = stats.Round(mean, 2)
		summary.MedianOrder, _ = stats.Round(median, 2)
	}

	top, err := topProducts(c, start, end)
	if err != nil {
		return nil, err
	}
	return &salesReportPayload{Summary: summary, Days: days, TopProducts: top}, nil
}

func topProducts(c echo.Context, start, end time.Time) ([]topProduct, error) {
	var top []topProduct
	err := GetDB(c).Table("shop_order_item").
		Select("shop_order_item.product_id, shop_order_item.product_name, "+
			"SUM(shop_order_item.quantity) AS quantity, "+
			"SUM(shop_order_item.discount_price * shop_order_item.quantity) AS revenue").
		Joins("JOIN shop_order ON shop_order.id = shop_order_item.order_id").
		Where("shop_order.created_at BETWEEN ? AND ?", start, end).
		Where("shop_order.status IN ?", reportStatuses).
		Group("shop_order_item.product_id, shop_order_item.product_name").
		Order("quantity DESC").
		Limit(10).
		Scan(&top).Error
	return top, err
}

func salesReport(c echo.Context) error {
	report, err := buildSalesReport(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build report", err.Error())
	}
	return ok(c, report)
}

func exportSalesReport(c echo.Context) error {
	report, err := buildSalesReport(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build report", err.Error())
	}
	stamp := time.Now().Format("20060102150405")
	audit(c, "export_report", domain.LogStatusSuccess,
		"exported sales report "+report.Summary.Start+" to "+report.Summary.End)

	switch strings.ToLower(c.QueryParam("format")) {
	case "pdf":
		headers := []string{"Day", "Orders", "Revenue"}
		table := make([][]string, 0, len(report.Days))
		for _, d := range report.Days {
			table = append(table, []string{d.Day, strconv.Itoa(d.Orders), fmt.Sprintf("%.2f", d.Revenue)})
		}
		return writePDF(c, "sales-"+stamp+".pdf", "Sales Report", headers, table)
	case "excel":
		headers := []string{"Day", "Orders", "Revenue"}
		table := make([][]interface{}, 0, len(report.Days))
		for _, d := range report.Days {
			table = append(table, []interface{}{d.Day, d.Orders, d.Revenue})
		}
		return writeExcel(c, "sales-"+stamp+".xlsx", headers, table)
	default:
		return writeCSV(c, "sales-"+stamp+".csv", &report.Days)
	}
}
