package dto

import "strings"

// CreateUserRequest creates an account with one or more roles.
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	FullName string   `json:"full_name" validate:"required,max=200"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,required"`
	IsActive *bool    `json:"is_active"`
}

// Normalize trims names and lower-cases the email before validation.
func (r *CreateUserRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

// UpdateUserRequest is a partial user update. A non-nil Roles replaces the
// whole role set.
type UpdateUserRequest struct {
	Email    *string  `json:"email" validate:"omitempty,email"`
	Password *string  `json:"password" validate:"omitempty,min=6"`
	FullName *string  `json:"full_name" validate:"omitempty,max=200"`
	Roles    []string `json:"roles" validate:"omitempty,min=1,dive,required"`
	IsActive *bool    `json:"is_active"`
}

// Normalize trims names and lower-cases the email before validation.
func (r *UpdateUserRequest) Normalize() {
	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &email
	}
	r.FullName = trimPtr(r.FullName)
}

// UserListQuery carries user list filters.
type UserListQuery struct {
	Role      string `form:"role"`
	Active    *bool  `form:"is_active"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
