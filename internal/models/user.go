package models

import "time"

// User represents an application user stored in the users table. Roles are
// loaded from user_roles.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Active       bool      `db:"is_active" json:"is_active"`
	Roles        []string  `db:"-" json:"roles"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// UserRoleRow is a single user_roles row used when hydrating role sets.
type UserRoleRow struct {
	UserID int64  `db:"user_id"`
	Role   string `db:"role"`
}

// RoleInfo describes a role and the permissions it grants.
type RoleInfo struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// AssignableUser is a user that may receive procedure assignments.
type AssignableUser struct {
	ID       int64    `db:"id" json:"id"`
	FullName string   `db:"full_name" json:"full_name"`
	Email    string   `db:"email" json:"email"`
	Roles    []string `db:"-" json:"roles"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
