package storeapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/shop"
	"github.com/evercart/evercart/internal/webserver"
	"github.com/evercart/evercart/pkg/common"
)

func registerCatalogRoutes() {
	webserver.PubGET("/categories", listStoreCategories)
	webserver.PubGET("/products", listStoreProducts)
	webserver.PubGET("/products/:id", getStoreProduct)
	webserver.PubGET("/products/:id/reviews", listProductReviews)
	webserver.AuthPOST("/products/:id/reviews", createProductReview)
}

func listStoreCategories(c echo.Context) error {
	var rows []domain.Category
	if err := webserver.GetDB(c).Order("name ASC").Find(&rows).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	return webserver.OK(c, rows)
}

// storeProduct decorates a catalog row with the current promo price.
type storeProduct struct {
	domain.Product
	DiscountPrice float64 `json:"discount_price"`
	Discount      float64 `json:"discount"`
}

var storeSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"created_at": "created_at",
}

func listStoreProducts(c echo.Context) error {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	perPage := 12
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 50 {
		perPage = ps
	}

	db := webserver.GetDB(c).Model(&domain.Product{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") {
			db = db.Where("name ILIKE ? OR brand ILIKE ?", "%"+q+"%", "%"+q+"%")
		} else {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", like, like)
		}
	}
	if cid, err := strconv.ParseInt(c.QueryParam("category_id"), 10, 64); err == nil && cid > 0 {
		db = db.Where("category_id = ?", cid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return webserver.ServerError(c, err)
	}

	sortCol, found := storeSortColumns[c.QueryParam("sort")]
	if !found {
		sortCol = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(c.QueryParam("order"), "asc") {
		order = "ASC"
	}
	var rows []domain.Product
	if err := db.Preload("Category").Order(sortCol + " " + order).
		Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return webserver.ServerError(c, err)
	}

	promos, err := activePromotions(c)
	if err != nil {
		return webserver.ServerError(c, err)
	}
	now := time.Now()
	out := make([]storeProduct, 0, len(rows))
	for _, p := range rows {
		discount := shop.DiscountFor(p.ID, promos, nil, now)
		out = append(out, storeProduct{
			Product:       p,
			Discount:      discount,
			DiscountPrice: shop.DiscountedPrice(p.Price, discount),
		})
	}
	return webserver.Paged(c, out, total, page, perPage)
}

func getStoreProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return webserver.BadRequest(c, "Invalid product ID")
	}
	var product domain.Product
	if err := webserver.GetDB(c).Preload("Category").First(&product, id).Error; err != nil {
		return webserver.NotFound(c, "Product not found")
	}
	promos, err := activePromotions(c)
	if err != nil {
		return webserver.ServerError(c, err)
	}
	now := time.Now()
	discount := shop.DiscountFor(product.ID, promos, nil, now)
	return webserver.OK(c, storeProduct{
		Product:       product,
		Discount:      discount,
		DiscountPrice: shop.DiscountedPrice(product.Price, discount),
	})
}

func activePromotions(c echo.Context) ([]domain.Promotion, error) {
	var promos []domain.Promotion
	err := webserver.GetDB(c).Where("is_active = ?", true).Find(&promos).Error
	return promos, err
}

func listProductReviews(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return webserver.BadRequest(c, "Invalid product ID")
	}
	var rows []domain.Review
	if err := webserver.GetDB(c).Where("product_id = ?", id).
		Order("created_at DESC").Limit(100).Find(&rows).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	return webserver.OK(c, rows)
}

type reviewPayload struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func createProductReview(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return webserver.BadRequest(c, "Invalid product ID")
	}
	var payload reviewPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.BadRequest(c, "Unable to parse review")
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.BadRequest(c, "Rating must be between 1 and 5")
	}
	db := webserver.GetDB(c)
	var product domain.Product
	if err := db.First(&product, id).Error; err != nil {
		return webserver.NotFound(c, "Product not found")
	}

	who := webserver.GetIdentity(c)
	// one review per customer per product; a second submission replaces it
	var existing domain.Review
	err = db.Where("product_id = ? AND user_id = ?", id, who.ID).First(&existing).Error
	if err == nil {
		existing.Rating = payload.Rating
		existing.Comment = strings.TrimSpace(payload.Comment)
		if err := db.Save(&existing).Error; err != nil {
			return webserver.ServerError(c, err)
		}
		return webserver.OK(c, existing)
	}

	review := domain.Review{
		ID:        common.UUIDint64(),
		ProductID: id,
		UserID:    who.ID,
		Username:  who.Username,
		Rating:    payload.Rating,
		Comment:   strings.TrimSpace(payload.Comment),
	}
	if err := db.Create(&review).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	return webserver.OK(c, review)
}
