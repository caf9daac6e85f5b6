package authz

import "strings"

// Requirement is the role requirement declared by a route family.
type Requirement int

const (
	// RequireAuthenticated admits any established session.
	RequireAuthenticated Requirement = iota
	// RequireAnonymous admits only callers without a session (login).
	RequireAnonymous
	RequireAdmin
	RequireTeacher
	RequireParent
)

// String returns a stable name for logs.
func (r Requirement) String() string {
	switch r {
	case RequireAnonymous:
		return "anonymous"
	case RequireAdmin:
		return string(RoleAdmin)
	case RequireTeacher:
		return string(RoleTeacher)
	case RequireParent:
		return string(RoleParent)
	default:
		return "authenticated"
	}
}

// Role returns the single role a requirement demands, if any.
func (r Requirement) Role() (Role, bool) {
	switch r {
	case RequireAdmin:
		return RoleAdmin, true
	case RequireTeacher:
		return RoleTeacher, true
	case RequireParent:
		return RoleParent, true
	default:
		return "", false
	}
}

// Landing pages.
const (
	PathLogin       = "/login"
	PathAdminHome   = "/admin"
	PathTeacherHome = "/teacher"
	PathParentHome  = "/parent"
)

// Route is a statically declared screen.
type Route struct {
	Name        string
	Pattern     string
	Requirement Requirement
}

// NotFound is returned by Match for unknown paths.
var NotFound = Route{Name: "notfound", Pattern: "", Requirement: RequireAuthenticated}

// Routes is the application route table.
var Routes = []Route{
	{Name: "login", Pattern: "/", Requirement: RequireAnonymous},
	{Name: "login", Pattern: PathLogin, Requirement: RequireAnonymous},

	{Name: "parent", Pattern: PathParentHome, Requirement: RequireParent},
	{Name: "parent_invoices", Pattern: "/parent/students/:id/invoices", Requirement: RequireParent},
	{Name: "parent_procedures", Pattern: "/parent/students/:id/procedures", Requirement: RequireParent},

	{Name: "admin", Pattern: PathAdminHome, Requirement: RequireAdmin},
	{Name: "admin_students", Pattern: "/admin/students", Requirement: RequireAdmin},
	{Name: "admin_procedures", Pattern: "/admin/procedures", Requirement: RequireAdmin},
	{Name: "admin_invoices", Pattern: "/admin/invoices", Requirement: RequireAdmin},
	{Name: "admin_programs", Pattern: "/admin/programs", Requirement: RequireAdmin},
	{Name: "admin_users", Pattern: "/admin/users", Requirement: RequireAdmin},
	{Name: "admin_reports", Pattern: "/admin/reports", Requirement: RequireAdmin},
	{Name: "admin_audit", Pattern: "/admin/audit", Requirement: RequireAdmin},

	{Name: "teacher", Pattern: PathTeacherHome, Requirement: RequireTeacher},
	{Name: "teacher_procedures", Pattern: "/teacher/procedures", Requirement: RequireTeacher},
}

// Match resolves a concrete path against the route table. Path parameters
// (":name" segments) only match numeric identifiers.
func Match(path string) (Route, map[string]string) {
	path = normalizePath(path)
	for _, route := range Routes {
		if params, ok := matchPattern(route.Pattern, path); ok {
			return route, params
		}
	}
	return NotFound, nil
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func matchPattern(pattern, path string) (map[string]string, bool) {
	if pattern == path {
		return nil, true
	}
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(patternParts) != len(pathParts) {
		return nil, false
	}
	var params map[string]string
	for i, part := range patternParts {
		if strings.HasPrefix(part, ":") {
			if !isDigits(pathParts[i]) {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[part[1:]] = pathParts[i]
			continue
		}
		if part != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
