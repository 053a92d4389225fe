package storeapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/internal/webserver"
	"github.com/evercart/evercart/pkg/common"
)

type profilePayload struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Realname string `json:"realname"`
	Mobile   string `json:"mobile"`
	Image    string `json:"image"`
	Password string `json:"password"`
}

func registerAccountRoutes() {
	webserver.AuthGET("/account/profile", getProfile)
	webserver.AuthPOST("/account/profile", updateProfile)
	webserver.AuthGET("/account/wishlist", listWishlist)
	webserver.AuthPOST("/account/wishlist", addWishlistItem)
	webserver.AuthDELETE("/account/wishlist/:productId", removeWishlistItem)
}

func getProfile(c echo.Context) error {
	who := webserver.GetIdentity(c)
	var user domain.User
	if err := webserver.GetDB(c).First(&user, who.ID).Error; err != nil {
		return webserver.NotFound(c, "Account not found")
	}
	return webserver.OK(c, user)
}

func updateProfile(c echo.Context) error {
	who := webserver.GetIdentity(c)
	var user domain.User
	if err := webserver.GetDB(c).First(&user, who.ID).Error; err != nil {
		return webserver.NotFound(c, "Account not found")
	}
	var payload profilePayload
	if err := c.Bind(&payload); err != nil {
		return webserver.BadRequest(c, "Unable to parse profile")
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.BadRequest(c, "Invalid profile details")
	}

	if email := strings.ToLower(strings.TrimSpace(payload.Email)); email != "" {
		user.Email = email
	}
	user.Realname = payload.Realname
	user.Mobile = payload.Mobile
	user.Image = strings.TrimSpace(payload.Image)
	user.UpdatedAt = time.Now()
	if payload.Password != "" {
		if len(payload.Password) < 6 {
			return webserver.BadRequest(c, "Password must be at least 6 characters")
		}
		hashed, err := common.HashPassword(payload.Password)
		if err != nil {
			return webserver.ServerError(c, err)
		}
		user.Password = hashed
	}
	if err := webserver.GetDB(c).Save(&user).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	return webserver.OK(c, user)
}

type wishlistEntry struct {
	domain.WishlistItem
	Product *domain.Product `json:"product,omitempty"`
}

func listWishlist(c echo.Context) error {
	who := webserver.GetIdentity(c)
	db := webserver.GetDB(c)
	var items []domain.WishlistItem
	if err := db.Where("user_id = ?", who.ID).Order("created_at DESC").Find(&items).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	productsByID := map[int64]*domain.Product{}
	if len(ids) > 0 {
		var products []domain.Product
		if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return webserver.ServerError(c, err)
		}
		for i := range products {
			productsByID[products[i].ID] = &products[i]
		}
	}
	out := make([]wishlistEntry, 0, len(items))
	for _, item := range items {
		out = append(out, wishlistEntry{WishlistItem: item, Product: productsByID[item.ProductID]})
	}
	return webserver.OK(c, out)
}

type wishlistPayload struct {
	ProductID int64 `json:"product_id,string" validate:"required"`
}

func addWishlistItem(c echo.Context) error {
	who := webserver.GetIdentity(c)
	var payload wishlistPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.BadRequest(c, "Unable to parse wishlist request")
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.BadRequest(c, "product_id is required")
	}
	db := webserver.GetDB(c)
	var product domain.Product
	if err := db.First(&product, payload.ProductID).Error; err != nil {
		return webserver.NotFound(c, "Product not found")
	}

	// adding twice is a no-op
	var existing domain.WishlistItem
	err := db.Where("user_id = ? AND product_id = ?", who.ID, payload.ProductID).First(&existing).Error
	if err == nil {
		return webserver.OK(c, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return webserver.ServerError(c, err)
	}
	item := domain.WishlistItem{
		ID:        common.UUIDint64(),
		UserID:    who.ID,
		ProductID: payload.ProductID,
	}
	if err := db.Create(&item).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	return webserver.OK(c, item)
}

func removeWishlistItem(c echo.Context) error {
	who := webserver.GetIdentity(c)
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return webserver.BadRequest(c, "Invalid product ID")
	}
	if err := webserver.GetDB(c).
		Where("user_id = ? AND product_id = ?", who.ID, productID).
		Delete(&domain.WishlistItem{}).Error; err != nil {
		return webserver.ServerError(c, err)
	}
	return webserver.OKMsg(c, "removed")
}
