package dto

import (
	"strings"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

// CreateStudentRequest registers a student.
type CreateStudentRequest struct {
	FullName    string               `json:"full_name" validate:"required,max=200"`
	GoogleEmail *string              `json:"google_email" validate:"omitempty,email"`
	Status      models.StudentStatus `json:"status" validate:"omitempty,oneof=VIGENTE ATRASADO RETIRADO"`
}

// Normalize trims the free-text fields before validation.
func (r *CreateStudentRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.GoogleEmail = trimPtr(r.GoogleEmail)
}

// UpdateStudentRequest is a partial student update.
type UpdateStudentRequest struct {
	FullName    *string               `json:"full_name" validate:"omitempty,max=200"`
	GoogleEmail *string               `json:"google_email" validate:"omitempty,email"`
	Status      *models.StudentStatus `json:"status" validate:"omitempty,oneof=VIGENTE ATRASADO RETIRADO"`
}

// Normalize trims the free-text fields before validation. An empty
// google_email stays present so it can clear the stored address.
func (r *UpdateStudentRequest) Normalize() {
	r.FullName = trimPtr(r.FullName)
	r.GoogleEmail = trimPtr(r.GoogleEmail)
}

// StudentListQuery carries student list filters.
type StudentListQuery struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
