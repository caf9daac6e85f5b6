package authz

import (
	"time"

	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

// Identity is the logged-in actor.
type Identity struct {
	ID          int64
	Name        string
	Email       string
	Roles       RoleSet
	Permissions PermissionSet
}

// HasRole reports whether the identity holds role.
func (i Identity) HasRole(role Role) bool {
	return i.Roles.Has(role)
}

// HasAnyRole reports whether the identity holds at least one of roles.
func (i Identity) HasAnyRole(roles ...Role) bool {
	return i.Roles.HasAny(roles...)
}

// HasPermission reports whether the identity carries the permission code.
func (i Identity) HasPermission(code string) bool {
	return i.Permissions.Has(code)
}

// BundleUser is the identity part of an authentication result.
type BundleUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Bundle is the authentication result consumed by EstablishSession. A nil Roles
// slice means the field was missing from the payload; an empty one is valid.
type Bundle struct {
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time   `json:"expires_at,omitempty"`
	User         *BundleUser `json:"user"`
	Roles        []string    `json:"roles"`
	Permissions  []string    `json:"permissions"`
}

// Resolve validates the bundle and converts it to an Identity.
func (b *Bundle) Resolve() (Identity, error) {
	if b == nil {
		return Identity{}, appErrors.Clone(appErrors.ErrInvalidSessionBundle, "session bundle is empty")
	}
	if b.User == nil || b.User.ID == 0 {
		return Identity{}, appErrors.Clone(appErrors.ErrInvalidSessionBundle, "session bundle lacks an identity id")
	}
	if b.Roles == nil {
		return Identity{}, appErrors.Clone(appErrors.ErrInvalidSessionBundle, "session bundle lacks a roles array")
	}
	roles, err := ParseRoleSet(b.Roles)
	if err != nil {
		return Identity{}, appErrors.Wrap(err, appErrors.ErrInvalidSessionBundle.Code, appErrors.ErrInvalidSessionBundle.Status, "session bundle carries an unknown role")
	}
	return Identity{
		ID:          b.User.ID,
		Name:        b.User.FullName,
		Email:       b.User.Email,
		Roles:       roles,
		Permissions: NewPermissionSet(b.Permissions...),
	}, nil
}

func (b *Bundle) clone() *Bundle {
	if b == nil {
		return nil
	}
	out := *b
	if b.User != nil {
		user := *b.User
		out.User = &user
	}
	if b.Roles != nil {
		out.Roles = append([]string{}, b.Roles...)
	}
	if b.Permissions != nil {
		out.Permissions = append([]string{}, b.Permissions...)
	}
	return &out
}
