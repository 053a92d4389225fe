package domain

import (
	"time"
)

// User status values
const (
	UserActive  = "active"
	UserBlocked = "blocked"
)

// Permission is immutable reference data seeded at init.
type Permission struct {
	ID          int64  `json:"id,string"`
	Name        string `gorm:"uniqueIndex" json:"name"`
	Description string `json:"description"`
}

// TableName Specify table name
func (Permission) TableName() string {
	return "sys_permission"
}

// Role bundles permissions. Deleting a role does not cascade to users.
type Role struct {
	ID          int64        `json:"id,string"`
	Name        string       `gorm:"uniqueIndex" json:"name"`
	Remark      string       `json:"remark"`
	Permissions []Permission `gorm:"many2many:sys_role_permission" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName Specify table name
func (Role) TableName() string {
	return "sys_role"
}

type User struct {
	ID        int64     `json:"id,string" form:"id"`
	Username  string    `gorm:"uniqueIndex" json:"username" form:"username"`
	Email     string    `gorm:"uniqueIndex" json:"email" form:"email"`
	Password  string    `json:"-"`
	Realname  string    `json:"realname" form:"realname"`
	Mobile    string    `json:"mobile" form:"mobile"`
	Image     string    `gorm:"size:1024" json:"image" form:"image"`
	Status    string    `gorm:"index" json:"status" form:"status"`
	Roles     []Role    `gorm:"many2many:sys_user_role" json:"roles"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (User) TableName() string {
	return "sys_user"
}

// WishlistItem links a user to a saved product.
type WishlistItem struct {
	ID        int64     `json:"id,string"`
	UserID    int64     `gorm:"index:idx_wishlist_user_product,unique" json:"user_id,string"`
	ProductID int64     `gorm:"index:idx_wishlist_user_product,unique" json:"product_id,string"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (WishlistItem) TableName() string {
	return "shop_wishlist_item"
}
