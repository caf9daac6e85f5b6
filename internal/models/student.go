package models

import "time"

// StudentStatus is the lifecycle status of a student.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "VIGENTE"
	StudentStatusLate      StudentStatus = "ATRASADO"
	StudentStatusWithdrawn StudentStatus = "RETIRADO"
)

// Student represents a learner registered in the school.
type Student struct {
	ID          int64         `db:"id" json:"id"`
	FullName    string        `db:"full_name" json:"full_name"`
	GoogleEmail *string       `db:"google_email" json:"google_email,omitempty"`
	Status      StudentStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Status    StudentStatus
	ParentID  *int64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ParentLink binds a PADRE user to a student.
type ParentLink struct {
	ParentID  int64     `db:"parent_id" json:"parent_id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
