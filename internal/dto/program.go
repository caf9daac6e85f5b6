package dto

// ProgramRequest creates or replaces a program.
type ProgramRequest struct {
	Name                string  `json:"name" validate:"required,max=200"`
	Description         *string `json:"description"`
	GoogleClassroomID   *string `json:"google_classroom_id" validate:"omitempty,max=100"`
	GoogleClassroomLink *string `json:"google_classroom_link" validate:"omitempty,url"`
	IsActive            *bool   `json:"is_active"`
}
