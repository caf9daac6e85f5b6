// Package workflow validates procedure and invoice state changes. It performs
// no I/O: callers fetch the records, ask the engine for the updated value and
// persist it.
package workflow

import (
	"time"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
)

// Advisory is a non-fatal warning attached to an accepted assignment change.
type Advisory string

const (
	// AdvisoryTeacherRecommended: the type requires a teacher and the new
	// assignee does not hold MAESTRO.
	AdvisoryTeacherRecommended Advisory = "TEACHER_RECOMMENDED"
	// AdvisoryTeacherRequired: a teacher-requiring procedure was left unassigned.
	AdvisoryTeacherRequired Advisory = "TEACHER_REQUIRED"
)

// Message returns a human readable description.
func (a Advisory) Message() string {
	switch a {
	case AdvisoryTeacherRecommended:
		return "this procedure type should be handled by a teacher"
	case AdvisoryTeacherRequired:
		return "this procedure type requires a teacher assignment"
	default:
		return string(a)
	}
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for stamping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine applies the procedure lifecycle rules.
type Engine struct {
	now func() time.Time
}

// NewEngine builds an engine using the wall clock unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog indexes procedure types by code.
type Catalog map[string]models.ProcedureType

// NewCatalog builds a catalog from a list of types.
func NewCatalog(types []models.ProcedureType) Catalog {
	catalog := make(Catalog, len(types))
	for _, t := range types {
		catalog[t.Code] = t
	}
	return catalog
}

// Lookup returns the type registered under code.
func (c Catalog) Lookup(code string) (models.ProcedureType, bool) {
	t, ok := c[code]
	return t, ok
}

// canAct reports whether actor may transition or annotate p: any ADMIN, or the
// current assignee while holding ADMIN or MAESTRO. PADRE alone never qualifies.
func canAct(actor authz.Actor, p models.Procedure) bool {
	if actor.HasRole(authz.RoleAdmin) {
		return true
	}
	if p.AssignedTo == nil || *p.AssignedTo != actor.ID || actor.ID == 0 {
		return false
	}
	return actor.HasRole(authz.RoleTeacher)
}

func eligibleAssignee(candidate authz.Identity) bool {
	return candidate.ID != 0 && candidate.HasAnyRole(authz.RoleAdmin, authz.RoleTeacher)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
