package models

import "time"

// Student represents a learner registered in the institution. The parent
// contact fields are a fallback used when no linked parent account exists.
type Student struct {
	ID            string    `db:"id" json:"id"`
	AdmissionNo   string    `db:"admission_no" json:"admission_no"`
	FullName      string    `db:"full_name" json:"full_name"`
	ClassName     string    `db:"class_name" json:"class_name"`
	Gender        string    `db:"gender" json:"gender"`
	ParentName    *string   `db:"parent_name" json:"parent_name,omitempty"`
	ParentEmail   *string   `db:"parent_email" json:"parent_email,omitempty"`
	GuardianPhone *string   `db:"guardian_phone" json:"guardian_phone,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassName string
	Active    *bool
	Page      int
	PageSize  int
}
