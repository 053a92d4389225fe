package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
	"github.com/evercart/evercart/pkg/metrics"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard", getDashboard, webserver.RequirePermission("view_dashboard"))
	webserver.ApiGET("/dashboard/metrics", getDashboardMetrics, webserver.RequirePermission("view_dashboard"))
}

type dashboardPayload struct {
	ProductCount   int64            `json:"product_count"`
	CategoryCount  int64            `json:"category_count"`
	CustomerCount  int64            `json:"customer_count"`
	OrderCount     int64            `json:"order_count"`
	PendingOrders  int64            `json:"pending_orders"`
	PendingRefunds int64            `json:"pending_refunds"`
	RevenueToday   float64          `json:"revenue_today"`
	RevenueMonth   float64          `json:"revenue_month"`
	LowStock       []domain.Product `json:"low_stock"`
	RecentOrders   []domain.Order   `json:"recent_orders"`
	CPUUsage       float64          `json:"cpu_usage"`
	MemUsage       float64          `json:"mem_usage"`
}

func getDashboard(c echo.Context) error {
	db := GetDB(c)
	var payload dashboardPayload

	db.Model(&domain.Product{}).Count(&payload.ProductCount)
	db.Model(&domain.Category{}).Count(&payload.CategoryCount)
	customerScope(db.Model(&domain.User{})).Count(&payload.CustomerCount)
	db.Model(&domain.Order{}).Count(&payload.OrderCount)
	db.Model(&domain.Order{}).Where("status = ?", domain.OrderPending).Count(&payload.PendingOrders)
	db.Model(&domain.Order{}).Where("refund_status = ?", domain.RefundRequested).Count(&payload.PendingRefunds)

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	revenue := func(since time.Time) float64 {
		var total float64
		db.Model(&domain.Order{}).
			Where("created_at >= ? AND status IN ?", since, reportStatuses).
			Select("COALESCE(SUM(total), 0)").Scan(&total)
		return total
	}
	payload.RevenueToday = revenue(dayStart)
	payload.RevenueMonth = revenue(monthStart)

	threshold := webserver.GetAppContext(c).Settings().GetInt64("shop", "low_stock_threshold")
	if threshold <= 0 {
		threshold = 5
	}
	if err := db.Where("stock <= ?", threshold).Order("stock ASC").Limit(10).
		Find(&payload.LowStock).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query low stock", err.Error())
	}
	if err := db.Preload("Items").Order("created_at DESC").Limit(10).
		Find(&payload.RecentOrders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query recent orders", err.Error())
	}

	payload.CPUUsage, _ = metrics.Latest(metrics.MetricCPUUsage)
	payload.MemUsage, _ = metrics.Latest(metrics.MetricMemUsage)
	return ok(c, payload)
}

type metricPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// getDashboardMetrics returns the trailing 24h of a named gauge for the
// dashboard charts.
func getDashboardMetrics(c echo.Context) error {
	metric := c.QueryParam("metric")
	switch metric {
	case metrics.MetricCPUUsage, metrics.MetricMemUsage, metrics.MetricAPICount:
	default:
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown metric", nil)
	}
	now := time.Now().Unix()
	points, err := metrics.SelectRange(metric, now-24*3600, now+1)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "ERROR", "Failed to query metrics", err.Error())
	}
	out := make([]metricPoint, 0, len(points))
	for _, p := range points {
		out = append(out, metricPoint{Timestamp: p.Timestamp, Value: p.Value})
	}
	return ok(c, out)
}
