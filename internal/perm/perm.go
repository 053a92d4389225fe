// Package perm evaluates permission grants for the admin surface.
//
// The evaluator is a rendering hint on the client and the authorization
// check on the server; every mutating endpoint re-validates through
// RequireAny-style middleware built on HasPermission.
package perm

import (
	"github.com/evercart/evercart/internal/domain"
)

// Identity is the flattened view of an authenticated user carried by the
// request context: role names plus the deduplicated permission-name set.
type Identity struct {
	ID          int64    `json:"id,string"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Realname    string   `json:"realname"`
	Image       string   `json:"image"`
	Status      string   `json:"status"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// NewIdentity flattens a user's roles into an Identity.
func NewIdentity(user *domain.User) *Identity {
	if user == nil {
		return nil
	}
	id := &Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Realname: user.Realname,
		Image:    user.Image,
		Status:   user.Status,
	}
	for _, role := range user.Roles {
		id.Roles = append(id.Roles, role.Name)
	}
	id.Permissions = Flatten(user.Roles)
	return id
}

// Flatten collects the deduplicated permission names granted by roles.
func Flatten(roles []domain.Role) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, role := range roles {
		for _, p := range role.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}
	return names
}

// HasPermission reports whether user holds ANY of the requested names
// (logical OR). A nil user or a user with no grants always yields false;
// no name ever matches the empty grant set.
//
// The OR semantics mean a caller guarding one element with several names
// renders it for a user holding either; individual actions inside must be
// gated separately when least privilege matters.
func HasPermission(user *Identity, names ...string) bool {
	if user == nil || len(user.Permissions) == 0 {
		return false
	}
	granted := make(map[string]struct{}, len(user.Permissions))
	for _, p := range user.Permissions {
		granted[p] = struct{}{}
	}
	for _, name := range names {
		if _, ok := granted[name]; ok {
			return true
		}
	}
	return false
}
