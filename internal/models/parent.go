package models

import (
	"time"

	"github.com/lib/pq"
)

// ParentAccount is a guardian login linked to one or more students.
type ParentAccount struct {
	ID         string         `db:"id" json:"id"`
	FullName   string         `db:"full_name" json:"full_name"`
	Email      string         `db:"email" json:"email,omitempty"`
	Phone      string         `db:"phone" json:"phone,omitempty"`
	StudentIDs pq.StringArray `db:"student_ids" json:"student_ids"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// ParentFilter constrains parent account lookups.
type ParentFilter struct {
	StudentID string
	Search    string
	Active    *bool
}
