package models

import "time"

// Program is an academic program linked to a Google Classroom course.
type Program struct {
	ID                  int64     `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Description         *string   `db:"description" json:"description,omitempty"`
	GoogleClassroomID   *string   `db:"google_classroom_id" json:"google_classroom_id,omitempty"`
	GoogleClassroomLink *string   `db:"google_classroom_link" json:"google_classroom_link,omitempty"`
	IsActive            bool      `db:"is_active" json:"is_active"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
