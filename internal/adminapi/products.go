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
	"github.com/evercart/evercart/pkg/common"
)

type productPayload struct {
	Name        string               `json:"name" validate:"required,min=1,max=200"`
	Brand       string               `json:"brand"`
	Description string               `json:"description"`
	Price       float64              `json:"price" validate:"gte=0"`
	Stock       int                  `json:"stock" validate:"gte=0"`
	Image       string               `json:"image"`
	CategoryID  int64                `json:"category_id,string"`
	Attributes  domain.AttributeList `json:"attributes"`
	Variants    domain.VariantList   `json:"variants"`
}

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts, webserver.RequirePermission("view_product"))
	webserver.ApiGET("/products/:id", getProduct, webserver.RequirePermission("view_product"))
	webserver.ApiPOST("/products", createProduct, webserver.RequirePermission("add_product"))
	webserver.ApiPUT("/products/:id", updateProduct, webserver.RequirePermission("edit_product"))
	webserver.ApiDELETE("/products/:id", deleteProduct, webserver.RequirePermission("delete_product"))
	webserver.ApiPOST("/products/deleteSelected", deleteSelectedProducts, webserver.RequirePermission("delete_product"))
	webserver.ApiGET("/products/export", exportProducts, webserver.RequirePermission("export_product"))
	webserver.ApiPOST("/products/import", importProducts, webserver.RequirePermission("import_product"))
}

var productSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"brand":      "brand",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func listProducts(c echo.Context) error {
	page, perPage := parsePagination(c)

	db := GetDB(c).Model(&domain.Product{})
	db = searchWhere(db, c.QueryParam("q"), "name", "brand", "description")
	if cid, err := strconv.ParseInt(c.QueryParam("category_id"), 10, 64); err == nil && cid > 0 {
		db = db.Where("category_id = ?", cid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	var rows []domain.Product
	if err := db.Preload("Category").
		Order(sortClause(c, productSortColumns, "created_at")).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var product domain.Product
	if err := GetDB(c).Preload("Category").First(&product, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, product)
}

// normalizeProductPayload applies the variant-form rules: attributes are
// cleaned first, then stale selections are pruned, then the subset
// invariant is checked.
func normalizeProductPayload(payload *productPayload) error {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Attributes = shop.NormalizeAttributes(payload.Attributes)
	payload.Variants = shop.PruneVariantSelections(payload.Attributes, payload.Variants)
	return shop.ValidateVariants(payload.Attributes, payload.Variants)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product", err.Error())
	}
	if err := normalizeProductPayload(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	product := domain.Product{
		ID:          common.UUIDint64(),
		Name:        payload.Name,
		Brand:       strings.TrimSpace(payload.Brand),
		Description: payload.Description,
		Price:       payload.Price,
		Stock:       payload.Stock,
		Image:       strings.TrimSpace(payload.Image),
		CategoryID:  payload.CategoryID,
		Attributes:  payload.Attributes,
		Variants:    payload.Variants,
	}
	if err := GetDB(c).Create(&product).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	audit(c, "create_product", domain.LogStatusSuccess,
		fmt.Sprintf("created product <b>%s</b>", product.Name))
	return ok(c, product)
}

func updateProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var product domain.Product
	if err := GetDB(c).First(&product, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product", err.Error())
	}
	if err := normalizeProductPayload(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	product.Name = payload.Name
	product.Brand = strings.TrimSpace(payload.Brand)
	product.Description = payload.Description
	product.Price = payload.Price
	product.Stock = payload.Stock
	product.Image = strings.TrimSpace(payload.Image)
	product.CategoryID = payload.CategoryID
	product.Attributes = payload.Attributes
	product.Variants = payload.Variants
	product.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&product).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	audit(c, "update_product", domain.LogStatusUpdated,
		fmt.Sprintf("updated product <b>%s</b>", product.Name))
	return ok(c, product)
}

func deleteProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var product domain.Product
	if err := GetDB(c).First(&product, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err := GetDB(c).Delete(&domain.Product{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	audit(c, "delete_product", domain.LogStatusDeleted,
		fmt.Sprintf("deleted product <b>%s</b>", product.Name))
	return ok(c, map[string]interface{}{"id": id})
}

func deleteSelectedProducts(c echo.Context) error {
	ids, err := bindIds(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse selection", err.Error())
	}
	if len(ids) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SELECTION", "Please select at least one product", nil)
	}
	if err := GetDB(c).Delete(&domain.Product{}, ids).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete products", err.Error())
	}
	audit(c, "delete_product", domain.LogStatusDeleted,
		fmt.Sprintf("deleted %d selected products", len(ids)))
	return okmsg(c, fmt.Sprintf("%d products deleted", len(ids)))
}
