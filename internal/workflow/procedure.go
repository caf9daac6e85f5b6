package workflow

import (
	"fmt"
	"strings"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

var transitions = map[models.ProcedureStatus][]models.ProcedureStatus{
	models.ProcedureStatusPending: {
		models.ProcedureStatusInProgress,
		models.ProcedureStatusApproved,
		models.ProcedureStatusRejected,
	},
	models.ProcedureStatusInProgress: {
		models.ProcedureStatusApproved,
		models.ProcedureStatusRejected,
		models.ProcedureStatusPending,
	},
}

// CanTransition reports whether from→to is an edge of the procedure graph.
func CanTransition(from, to models.ProcedureStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable in one step from s.
func NextStatuses(s models.ProcedureStatus) []models.ProcedureStatus {
	return append([]models.ProcedureStatus(nil), transitions[s]...)
}

// CreateInput carries the fields accepted when creating a procedure.
type CreateInput struct {
	StudentID   int64
	TypeCode    string
	Description string
}

// CreateProcedure returns a new PENDIENTE procedure. A linked PADRE is recorded
// as requester; an ADMIN acting on behalf of a student leaves the requester
// empty (the system).
func (e *Engine) CreateProcedure(input CreateInput, catalog Catalog, actor authz.Actor) (models.Procedure, error) {
	code := strings.TrimSpace(input.TypeCode)
	if input.StudentID <= 0 {
		return models.Procedure{}, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	if _, ok := catalog.Lookup(code); !ok {
		return models.Procedure{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown procedure type %q", input.TypeCode))
	}

	var requestedBy *int64
	switch {
	case actor.IsLinked(input.StudentID):
		requestedBy = int64Ptr(actor.ID)
	case actor.HasRole(authz.RoleAdmin):
		requestedBy = nil
	case actor.HasRole(authz.RoleParent):
		return models.Procedure{}, appErrors.ErrUnauthorizedStudentLink
	default:
		return models.Procedure{}, appErrors.Clone(appErrors.ErrForbidden, "only parents and administrators can create procedures")
	}

	return models.Procedure{
		StudentID:     input.StudentID,
		ProcedureType: code,
		Description:   strings.TrimSpace(input.Description),
		Status:        models.ProcedureStatusPending,
		RequestedBy:   requestedBy,
		CreatedAt:     e.now().UTC(),
	}, nil
}

// Assign binds p to candidate. The candidate must hold ADMIN or MAESTRO no
// matter who acts; only an ADMIN may assign.
func (e *Engine) Assign(p models.Procedure, candidate authz.Identity, procType models.ProcedureType, actor authz.Actor) (models.Procedure, []Advisory, error) {
	if !eligibleAssignee(candidate) {
		return p, nil, appErrors.ErrIneligibleAssignee
	}
	if !actor.HasRole(authz.RoleAdmin) {
		return p, nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can assign procedures")
	}

	var advisories []Advisory
	if procType.RequiresTeacher && !candidate.HasRole(authz.RoleTeacher) {
		advisories = append(advisories, AdvisoryTeacherRecommended)
	}

	updated := p
	updated.AssignedTo = int64Ptr(candidate.ID)
	updated.AssignedToName = nil
	if candidate.Name != "" {
		updated.AssignedToName = stringPtr(candidate.Name)
	}
	return updated, advisories, nil
}

// Unassign clears the assignee. Only an ADMIN may do so.
func (e *Engine) Unassign(p models.Procedure, procType models.ProcedureType, actor authz.Actor) (models.Procedure, []Advisory, error) {
	if !actor.HasRole(authz.RoleAdmin) {
		return p, nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can unassign procedures")
	}

	var advisories []Advisory
	if procType.RequiresTeacher {
		advisories = append(advisories, AdvisoryTeacherRequired)
	}

	updated := p
	updated.AssignedTo = nil
	updated.AssignedToName = nil
	return updated, advisories, nil
}

// Transition moves p to status. Requesting the current status on an open
// procedure only updates the notes. Entering APROBADO or RECHAZADO stamps
// approved_at and approved_by exactly once.
func (e *Engine) Transition(p models.Procedure, status models.ProcedureStatus, notes *string, actor authz.Actor) (models.Procedure, error) {
	if !status.Valid() {
		return p, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
	}
	if !canAct(actor, p) {
		return p, appErrors.Clone(appErrors.ErrForbidden, "only an administrator or the assignee can change this procedure")
	}

	if status == p.Status {
		if p.Status.Terminal() {
			return p, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("procedure is already %s", p.Status))
		}
		return applyNotes(p, notes), nil
	}

	if !CanTransition(p.Status, status) {
		return p, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move procedure from %s to %s", p.Status, status))
	}

	updated := applyNotes(p, notes)
	updated.Status = status
	if status.Terminal() {
		if p.ApprovedAt != nil || p.ApprovedBy != nil {
			return p, appErrors.Clone(appErrors.ErrInvalidTransition, "procedure resolution was already recorded")
		}
		stamp := e.now().UTC()
		updated.ApprovedAt = &stamp
		updated.ApprovedBy = int64Ptr(actor.ID)
		updated.ApprovedByName = nil
		if actor.Name != "" {
			updated.ApprovedByName = stringPtr(actor.Name)
		}
	}
	return updated, nil
}

// Annotate overwrites the notes of p in any state.
func (e *Engine) Annotate(p models.Procedure, notes string, actor authz.Actor) (models.Procedure, error) {
	if !canAct(actor, p) {
		return p, appErrors.Clone(appErrors.ErrForbidden, "only an administrator or the assignee can annotate this procedure")
	}
	return applyNotes(p, &notes), nil
}

func applyNotes(p models.Procedure, notes *string) models.Procedure {
	if notes == nil {
		return p
	}
	p.Notes = stringPtr(*notes)
	return p
}
