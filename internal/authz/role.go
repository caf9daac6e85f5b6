package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Role is a coarse authorization tag. Roles are independent bits: holding ADMIN
// does not imply MAESTRO or PADRE.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "MAESTRO"
	RoleParent  Role = "PADRE"
)

// AllRoles lists the closed role enumeration in landing priority order.
var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleParent}

// ParseRole validates a raw role tag.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleTeacher, RoleParent:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// ParseRoleSet converts raw tags, failing on the first unknown tag.
func ParseRoleSet(raw []string) (RoleSet, error) {
	set := make(RoleSet, len(raw))
	for _, tag := range raw {
		role, err := ParseRole(tag)
		if err != nil {
			return nil, err
		}
		set[role] = struct{}{}
	}
	return set, nil
}

// Has reports membership.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// HasAny reports whether at least one of roles is held.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Strings returns the sorted role tags.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// Permission codes granted through role_permissions.
const (
	PermissionProceduresCreate     = "procedures:create"
	PermissionProceduresTransition = "procedures:transition"
	PermissionProceduresAssign     = "procedures:assign"
	PermissionInvoicesManage       = "invoices:manage"
	PermissionUsersManage          = "users:manage"
	PermissionAuditRead            = "audit:read"
	PermissionReportsExport        = "reports:export"
)

// PermissionSet is an unordered set of permission codes.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from raw codes, ignoring blanks.
func NewPermissionSet(codes ...string) PermissionSet {
	set := make(PermissionSet, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s PermissionSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Strings returns the sorted codes.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
