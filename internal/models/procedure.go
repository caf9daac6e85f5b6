package models

import "time"

// ProcedureStatus is the lifecycle state of a procedure request.
type ProcedureStatus string

const (
	ProcedureStatusPending    ProcedureStatus = "PENDIENTE"
	ProcedureStatusInProgress ProcedureStatus = "EN_PROCESO"
	ProcedureStatusApproved   ProcedureStatus = "APROBADO"
	ProcedureStatusRejected   ProcedureStatus = "RECHAZADO"
)

// Valid reports whether s is one of the known statuses.
func (s ProcedureStatus) Valid() bool {
	switch s {
	case ProcedureStatusPending, ProcedureStatusInProgress, ProcedureStatusApproved, ProcedureStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s ProcedureStatus) Terminal() bool {
	return s == ProcedureStatusApproved || s == ProcedureStatusRejected
}

// ProcedureType is an immutable catalog entry.
type ProcedureType struct {
	Code            string `db:"code" json:"code"`
	Name            string `db:"name" json:"name"`
	Description     string `db:"description" json:"description"`
	RequiresTeacher bool   `db:"requires_teacher" json:"requires_teacher"`
}

// Procedure is a tracked administrative request.
type Procedure struct {
	ID            int64           `db:"id" json:"id"`
	StudentID     int64           `db:"student_id" json:"student_id"`
	ProcedureType string          `db:"procedure_type" json:"procedure_type"`
	Description   string          `db:"description" json:"description"`
	Status        ProcedureStatus `db:"status" json:"status"`
	AssignedTo    *int64          `db:"assigned_to" json:"assigned_to"`
	RequestedBy   *int64          `db:"requested_by" json:"requested_by"`
	Notes         *string         `db:"notes" json:"notes"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	ApprovedAt    *time.Time      `db:"approved_at" json:"approved_at"`
	ApprovedBy    *int64          `db:"approved_by" json:"approved_by"`

	StudentName    *string `db:"student_name" json:"student_name,omitempty"`
	TypeName       *string `db:"type_name" json:"type_name,omitempty"`
	AssignedToName *string `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	ApprovedByName *string `db:"approved_by_name" json:"approved_by_name,omitempty"`
}

// ProcedureFilter constrains procedure listing. Visibility is applied before
// these filters.
type ProcedureFilter struct {
	Status        []ProcedureStatus
	ProcedureType string
	StudentID     *int64
	AssignedTo    *int64
	Unassigned    bool
	Search        string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}
