package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&ActivityLog{},
	&Permission{},
	&Role{},
	&User{},
	// Catalog
	&Category{},
	&Product{},
	&Review{},
	// Shop
	&Cart{},
	&CartItem{},
	&Order{},
	&OrderItem{},
	&Promotion{},
	&WishlistItem{},
}
