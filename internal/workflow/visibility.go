package workflow

import (
	"strings"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
)

// CanView reports whether actor may observe p. Roles are evaluated
// independently and the results are unioned.
func CanView(actor authz.Actor, p models.Procedure) bool {
	if actor.HasRole(authz.RoleAdmin) {
		return true
	}
	if actor.HasRole(authz.RoleTeacher) && p.AssignedTo != nil && *p.AssignedTo == actor.ID {
		return true
	}
	return actor.IsLinked(p.StudentID)
}

// Visible returns the procedures actor may see, then narrows them with filter.
func Visible(actor authz.Actor, procedures []models.Procedure, filter models.ProcedureFilter) []models.Procedure {
	result := make([]models.Procedure, 0, len(procedures))
	for _, p := range procedures {
		if !CanView(actor, p) {
			continue
		}
		if !matchesFilter(p, filter) {
			continue
		}
		result = append(result, p)
	}
	return result
}

func matchesFilter(p models.Procedure, filter models.ProcedureFilter) bool {
	if len(filter.Status) > 0 {
		found := false
		for _, status := range filter.Status {
			if p.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.ProcedureType != "" && p.ProcedureType != filter.ProcedureType {
		return false
	}
	if filter.StudentID != nil && p.StudentID != *filter.StudentID {
		return false
	}
	if filter.AssignedTo != nil && (p.AssignedTo == nil || *p.AssignedTo != *filter.AssignedTo) {
		return false
	}
	if filter.Unassigned && p.AssignedTo != nil {
		return false
	}
	if filter.From != nil && p.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && p.CreatedAt.After(*filter.To) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		haystack := strings.ToLower(p.Description + " " + p.ProcedureType)
		if p.StudentName != nil {
			haystack += " " + strings.ToLower(*p.StudentName)
		}
		if !strings.Contains(haystack, search) {
			return false
		}
	}
	return true
}
