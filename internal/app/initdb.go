package app

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/pkg/common"
)

// permissionCatalog is the immutable reference data gating the admin UI
// and re-checked server-side on every mutating endpoint.
var permissionCatalog = []domain.Permission{
	{Name: "view_dashboard", Description: "View the admin dashboard"},
	{Name: "view_product", Description: "View products"},
	{Name: "add_product", Description: "Create products"},
	{Name: "edit_product", Description: "Edit products"},
	{Name: "delete_product", Description: "Delete products"},
	{Name: "import_product", Description: "Import products from spreadsheet"},
	{Name: "export_product", Description: "Export products"},
	{Name: "view_category", Description: "View categories"},
	{Name: "add_category", Description: "Create categories"},
	{Name: "edit_category", Description: "Edit categories"},
	{Name: "delete_category", Description: "Delete categories"},
	{Name: "view_order", Description: "View orders"},
	{Name: "edit_order", Description: "Change order status and refunds"},
	{Name: "delete_order", Description: "Delete orders"},
	{Name: "export_order", Description: "Export orders"},
	{Name: "view_user", Description: "View back-office users"},
	{Name: "add_user", Description: "Create users"},
	{Name: "edit_user", Description: "Edit users"},
	{Name: "delete_user", Description: "Delete users"},
	{Name: "block_user", Description: "Toggle user status"},
	{Name: "view_customer", Description: "View customers"},
	{Name: "edit_customer", Description: "Edit customers"},
	{Name: "delete_customer", Description: "Delete customers"},
	{Name: "view_role", Description: "View roles"},
	{Name: "add_role", Description: "Create roles"},
	{Name: "edit_role", Description: "Edit roles"},
	{Name: "delete_role", Description: "Delete roles"},
	{Name: "view_promotion", Description: "View promotions"},
	{Name: "add_promotion", Description: "Create promotions"},
	{Name: "edit_promotion", Description: "Edit promotions"},
	{Name: "delete_promotion", Description: "Delete promotions"},
	{Name: "view_activity", Description: "View the activity log"},
	{Name: "delete_activity", Description: "Clear the activity log"},
	{Name: "view_report", Description: "View sales reports"},
	{Name: "view_setting", Description: "View system settings"},
	{Name: "edit_setting", Description: "Edit system settings"},
	{Name: "delete_review", Description: "Moderate product reviews"},
}

// customer role is view-only on the storefront catalog.
var customerPermissions = []string{"view_product", "view_category"}

func (a *Application) checkPermissions() {
	for _, p := range permissionCatalog {
		var count int64
		a.gormDB.Model(&domain.Permission{}).Where("name = ?", p.Name).Count(&count)
		if count == 0 {
			a.gormDB.Create(&domain.Permission{
				ID:          common.UUIDint64(),
				Name:        p.Name,
				Description: p.Description,
			})
		}
	}
}

func (a *Application) checkRoles() {
	a.ensureRole("admin", "Full access", func(p domain.Permission) bool { return true })
	a.ensureRole("customer", "Storefront customer", func(p domain.Permission) bool {
		return common.InSlice(p.Name, customerPermissions)
	})
}

func (a *Application) ensureRole(name, remark string, include func(domain.Permission) bool) {
	var role domain.Role
	err := a.gormDB.Where("name = ?", name).First(&role).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Error("failed to query role", zap.String("role", name), zap.Error(err))
		return
	}
	var perms []domain.Permission
	if err := a.gormDB.Find(&perms).Error; err != nil {
		zap.L().Error("failed to load permissions", zap.Error(err))
		return
	}
	role = domain.Role{ID: common.UUIDint64(), Name: name, Remark: remark}
	for _, p := range perms {
		if include(p) {
			role.Permissions = append(role.Permissions, p)
		}
	}
	if err := a.gormDB.Create(&role).Error; err != nil {
		zap.L().Error("failed to create seed role", zap.String("role", name), zap.Error(err))
		return
	}
	zap.L().Info("initialized seed role", zap.String("role", name))
}

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "evercart"

	var user domain.User
	err := a.gormDB.Where("username = ?", superUsername).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, herr := common.HashPassword(defaultPassword)
		if herr != nil {
			zap.L().Error("failed to hash default password", zap.Error(herr))
			return
		}
		var adminRole domain.Role
		if err := a.gormDB.Where("name = ?", "admin").First(&adminRole).Error; err != nil {
			zap.L().Error("admin role missing, cannot seed super user", zap.Error(err))
			return
		}
		if err := a.gormDB.Create(&domain.User{
			ID:        common.UUIDint64(),
			Username:  superUsername,
			Email:     "admin@evercart.local",
			Password:  hashed,
			Realname:  "administrator",
			Status:    domain.UserActive,
			Roles:     []domain.Role{adminRole},
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	if strings.EqualFold(user.Status, domain.UserActive) {
		return
	}
	if err := a.gormDB.Model(&domain.User{}).Where("id = ?", user.ID).
		Update("status", domain.UserActive).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default super admin account", zap.String("username", superUsername))
}

// settingsSchema declares the default system settings.
type settingSchema struct {
	Key         string
	Default     string
	Description string
}

var settingsSchema = []settingSchema{
	{Key: "system.site_name", Default: "Evercart", Description: "Storefront display name"},
	{Key: "system.currency", Default: "USD", Description: "Display currency code"},
	{Key: "shop.low_stock_threshold", Default: "5", Description: "Dashboard low-stock warning level"},
	{Key: "shop.activity_retention_days", Default: "365", Description: "Days to keep activity log rows"},
	{Key: "smtp.enabled", Default: "false", Description: "Send order confirmation email"},
	{Key: "smtp.host", Default: "", Description: "SMTP server host"},
	{Key: "smtp.port", Default: "587", Description: "SMTP server port"},
	{Key: "smtp.username", Default: "", Description: "SMTP username"},
	{Key: "smtp.password", Default: "", Description: "SMTP password"},
	{Key: "smtp.from", Default: "no-reply@evercart.local", Description: "Sender address"},
}

func (a *Application) checkSettings() {
	for sortid, schema := range settingsSchema {
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}
		category, name := parts[0], parts[1]

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)
		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     common.UUIDint64(),
				Sort:   sortid,
				Type:   category,
				Name:   name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}
