package perm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evercart/evercart/internal/domain"
)

func TestHasPermissionNilUser(t *testing.T) {
	assert.False(t, HasPermission(nil, "view_product"))
	assert.False(t, HasPermission(nil))
}

func TestHasPermissionEmptyGrants(t *testing.T) {
	u := &Identity{Username: "bob"}
	assert.False(t, HasPermission(u, "view_product"))
	assert.False(t, HasPermission(u, "a", "b", "c"))
}

func TestHasPermissionAnySemantics(t *testing.T) {
	u := &Identity{Permissions: []string{"a", "b"}}
	assert.True(t, HasPermission(u, "b", "c"), "any requested name held must pass")
	assert.False(t, HasPermission(u, "x", "y"))
	assert.True(t, HasPermission(u, "a"))
	assert.False(t, HasPermission(u), "no requested names never matches")
}

func TestFlattenDeduplicates(t *testing.T) {
	roles := []domain.Role{
		{Name: "admin", Permissions: []domain.Permission{{Name: "view_product"}, {Name: "edit_product"}}},
		{Name: "staff", Permissions: []domain.Permission{{Name: "view_product"}, {Name: "view_order"}}},
	}
	got := Flatten(roles)
	assert.ElementsMatch(t, []string{"view_product", "edit_product", "view_order"}, got)
}

func TestNewIdentity(t *testing.T) {
	u := &domain.User{
		ID:       7,
		Username: "alice",
		Status:   domain.UserActive,
		Roles: []domain.Role{
			{Name: "admin", Permissions: []domain.Permission{{Name: "view_user"}}},
		},
	}
	id := NewIdentity(u)
	assert.Equal(t, []string{"admin"}, id.Roles)
	assert.True(t, HasPermission(id, "view_user", "delete_user"))

	assert.Nil(t, NewIdentity(nil))
}
