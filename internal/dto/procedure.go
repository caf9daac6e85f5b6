package dto

import (
	"strings"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

// CreateProcedureRequest opens a new procedure. Parents post it under
// /parent/students/:id/procedures, where the student comes from the path.
type CreateProcedureRequest struct {
	StudentID     int64  `json:"student_id" validate:"required,gt=0"`
	ProcedureType string `json:"procedure_type" validate:"required,max=50"`
	Description   string `json:"description" validate:"required,max=2000"`
}

// Normalize trims the type code and description before validation.
func (r *CreateProcedureRequest) Normalize() {
	r.ProcedureType = strings.TrimSpace(r.ProcedureType)
	r.Description = strings.TrimSpace(r.Description)
}

// UpdateProcedureRequest is a partial update. Assignment is applied first,
// then the status change or the notes.
type UpdateProcedureRequest struct {
	Status     *models.ProcedureStatus `json:"status,omitempty"`
	Notes      *string                 `json:"notes,omitempty" validate:"omitempty,max=2000"`
	AssignedTo OptionalInt64           `json:"assigned_to"`
}

// Empty reports whether the request changes nothing.
func (r UpdateProcedureRequest) Empty() bool {
	return r.Status == nil && r.Notes == nil && !r.AssignedTo.Set
}

// ProcedureListQuery carries list filters from the query string.
type ProcedureListQuery struct {
	Status        string `form:"status"`
	ProcedureType string `form:"procedure_type"`
	StudentID     *int64 `form:"student_id"`
	AssignedTo    *int64 `form:"assigned_to"`
	Unassigned    bool   `form:"unassigned"`
	Search        string `form:"search"`
	From          string `form:"from"`
	To            string `form:"to"`
	Limit         int    `form:"limit"`
	Offset        int    `form:"offset"`
}

// AdvisoryResponse is a non-fatal warning returned with an update.
type AdvisoryResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ProcedureUpdateResponse wraps an updated procedure and its advisories.
type ProcedureUpdateResponse struct {
	Procedure  models.Procedure   `json:"procedure"`
	Advisories []AdvisoryResponse `json:"advisories,omitempty"`
}
