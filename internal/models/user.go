package models

import "time"

// UserRole names a portal role. Roles gate both route access and which
// workflow transitions an account may perform.
type UserRole string

const (
	// RoleSuperAdmin is the school owner account. It approves report
	// cards and exam results and cannot be deleted.
	RoleSuperAdmin UserRole = "SUPERADMIN"
	// RoleAdmin runs day-to-day administration and user management.
	RoleAdmin UserRole = "ADMIN"
	// RoleTeacher drafts report cards and records exam scores.
	RoleTeacher UserRole = "TEACHER"
	// RoleParent receives published results for linked students.
	RoleParent UserRole = "PARENT"
	// RoleStudent is a read-only account tied to one student record.
	RoleStudent UserRole = "STUDENT"
)

// User is an account row in the users table. PasswordHash never leaves
// the API.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing accounts.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination is the paging metadata attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
