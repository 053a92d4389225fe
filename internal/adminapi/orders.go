package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/shop"
	"github.com/evercart/evercart/internal/webserver"
)

type orderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type refundDecisionPayload struct {
	Note string `json:"note"`
}

func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders, webserver.RequirePermission("view_order"))
	webserver.ApiGET("/orders/:id", getOrder, webserver.RequirePermission("view_order"))
	webserver.ApiPUT("/orders/:id/status", updateOrderStatus, webserver.RequirePermission("edit_order"))
	webserver.ApiPOST("/orders/:id/refund/approve", approveRefund, webserver.RequirePermission("edit_order"))
	webserver.ApiPOST("/orders/:id/refund/reject", rejectRefund, webserver.RequirePermission("edit_order"))
	webserver.ApiDELETE("/orders/:id", deleteOrder, webserver.RequirePermission("delete_order"))
	webserver.ApiPOST("/orders/deleteSelected", deleteSelectedOrders, webserver.RequirePermission("delete_order"))
	webserver.ApiGET("/orders/export", exportOrders, webserver.RequirePermission("export_order"))
}

var orderSortColumns = map[string]string{
	"id":           "id",
	"order_number": "order_number",
	"status":       "status",
	"total":        "total",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

func listOrders(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.Order{})
	db = searchWhere(db, c.QueryParam("q"), "order_number", "ship_name", "ship_city")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	if refund := strings.TrimSpace(c.QueryParam("refund_status")); refund != "" {
		db = db.Where("refund_status = ?", refund)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	var rows []domain.Order
	if err := db.Preload("Items").Order(sortClause(c, orderSortColumns, "created_at")).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getOrder(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).Preload("Items").First(&order, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	return ok(c, order)
}

// updateOrderStatus walks the lifecycle graph. Cancelling restores the
// reserved stock; every other hop is a plain status write.
func updateOrderStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).First(&order, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	var payload orderStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	next := strings.TrimSpace(payload.Status)
	if !shop.CanTransition(order.Status, next) {
		return fail(c, http.StatusBadRequest, "INVALID_TRANSITION",
			fmt.Sprintf("Order cannot go from %s to %s", order.Status, next), nil)
	}

	if next == domain.OrderCancelled {
		if err := shop.CancelOrder(GetDB(c), &order); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to cancel order", err.Error())
		}
	} else {
		if err := GetDB(c).Model(&domain.Order{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": next, "updated_at": time.Now()}).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", err.Error())
		}
	}
	audit(c, "update_order", domain.LogStatusModified,
		fmt.Sprintf("order <b>%s</b>: %s → %s", order.OrderNumber, order.Status, next))
	order.Status = next
	return ok(c, order)
}

// approveRefund finalizes a customer refund request: the refund record
// flips to approved and the order itself moves to Refunded.
func approveRefund(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).First(&order, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	if order.RefundStatus != domain.RefundRequested {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Order has no pending refund request", nil)
	}
	if !shop.CanTransition(order.Status, domain.OrderRefunded) {
		return fail(c, http.StatusBadRequest, "INVALID_TRANSITION",
			fmt.Sprintf("Order in status %s cannot be refunded", order.Status), nil)
	}
	if err := GetDB(c).Model(&domain.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.OrderRefunded,
			"refund_status": domain.RefundApproved,
			"updated_at":    time.Now(),
		}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to approve refund", err.Error())
	}
	audit(c, "approve_refund", domain.LogStatusModified,
		fmt.Sprintf("approved refund of %.2f on order <b>%s</b>", order.RefundAmount, order.OrderNumber))
	return okmsg(c, "refund approved")
}

func rejectRefund(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).First(&order, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	if order.RefundStatus != domain.RefundRequested {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Order has no pending refund request", nil)
	}
	var payload refundDecisionPayload
	_ = c.Bind(&payload)
	updates := map[string]interface{}{
		"refund_status": domain.RefundRejected,
		"updated_at":    time.Now(),
	}
	if note := strings.TrimSpace(payload.Note); note != "" {
		updates["refund_reason"] = order.RefundReason + " | rejected: " + note
	}
	if err := GetDB(c).Model(&domain.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to reject refund", err.Error())
	}
	audit(c, "reject_refund", domain.LogStatusModified,
		fmt.Sprintf("rejected refund request on order <b>%s</b>", order.OrderNumber))
	return okmsg(c, "refund rejected")
}

func deleteOrder(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).First(&order, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	db := GetDB(c)
	if err := db.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete order items", err.Error())
	}
	if err := db.Delete(&domain.Order{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete order", err.Error())
	}
	audit(c, "delete_order", domain.LogStatusDeleted,
		fmt.Sprintf("deleted order <b>%s</b>", order.OrderNumber))
	return ok(c, map[string]interface{}{"id": id})
}

func deleteSelectedOrders(c echo.Context) error {
	ids, err := bindIds(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse selection", err.Error())
	}
	if len(ids) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SELECTION", "Please select at least one order", nil)
	}
	db := GetDB(c)
	if err := db.Where("order_id IN ?", ids).Delete(&domain.OrderItem{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete order items", err.Error())
	}
	if err := db.Delete(&domain.Order{}, ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete orders", err.Error())
	}
	audit(c, "delete_order", domain.LogStatusDeleted,
		fmt.Sprintf("deleted %d selected orders", len(ids)))
	return okmsg(c, fmt.Sprintf("%d orders deleted", len(ids)))
}

type orderExportRow struct {
	OrderNumber   string  `csv:"order_number"`
	Status        string  `csv:"status"`
	ShipName      string  `csv:"ship_name"`
	ShipCity      string  `csv:"ship_city"`
	ShipCountry   string  `csv:"ship_country"`
	PaymentMethod string  `csv:"payment_method"`
	PromoCode     string  `csv:"promo_code"`
	Discount      float64 `csv:"discount"`
	Total         float64 `csv:"total"`
	CreatedAt     string  `csv:"created_at"`
}

func exportOrders(c echo.Context) error {
	db := GetDB(c).Model(&domain.Order{})
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	var orders []domain.Order
	if err := db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	rows := make([]orderExportRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, orderExportRow{
			OrderNumber:   o.OrderNumber,
			Status:        o.Status,
			ShipName:      o.ShipName,
			ShipCity:      o.ShipCity,
			ShipCountry:   o.ShipCountry,
			PaymentMethod: o.PaymentMethod,
			PromoCode:     o.PromoCode,
			Discount:      o.Discount,
			Total:         o.Total,
			CreatedAt:     o.CreatedAt.Format(exportTimeLayout),
		})
	}

	stamp := time.Now().Format("20060102150405")
	audit(c, "export_order", domain.LogStatusSuccess,
		fmt.Sprintf("exported %d orders", len(rows)))

	switch strings.ToLower(c.QueryParam("format")) {
	case "csv":
		return writeCSV(c, "orders-"+stamp+".csv", &rows)
	case "pdf":
		headers := []string{"Order", "Status", "Name", "City", "Payment", "Total", "Created"}
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			table = append(table, []string{
				r.OrderNumber, r.Status, r.ShipName, r.ShipCity,
				r.PaymentMethod, strconv.FormatFloat(r.Total, 'f', 2, 64), r.CreatedAt,
			})
		}
		return writePDF(c, "orders-"+stamp+".pdf", "Orders", headers, table)
	default:
		headers := []string{"Order", "Status", "Name", "City", "Country", "Payment", "Promo", "Discount", "Total", "Created"}
		table := make([][]interface{}, 0, len(rows))
		for _, r := range rows {
			table = append(table, []interface{}{
				r.OrderNumber, r.Status, r.ShipName, r.ShipCity, r.ShipCountry,
				r.PaymentMethod, r.PromoCode, r.Discount, r.Total, r.CreatedAt,
			})
		}
		return writeExcel(c, "orders-"+stamp+".xlsx", headers, table)
	}
}
