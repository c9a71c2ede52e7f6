package models

import "time"

// ExamResultStatus captures the publication state of one result row.
type ExamResultStatus string

const (
	ExamResultStatusPending   ExamResultStatus = "PENDING"
	ExamResultStatusPublished ExamResultStatus = "PUBLISHED"
	ExamResultStatusWithheld  ExamResultStatus = "WITHHELD"
)

// ExamResult is one student's scored row for an exam. Rows move through
// publication independently of each other.
type ExamResult struct {
	ID           string           `db:"id" json:"id"`
	ExamID       string           `db:"exam_id" json:"exam_id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	CA1          float64          `db:"ca1" json:"ca1"`
	CA2          float64          `db:"ca2" json:"ca2"`
	Assignment   float64          `db:"assignment" json:"assignment"`
	Exam         float64          `db:"exam" json:"exam"`
	Total        float64          `db:"total" json:"total"`
	Grade        string           `db:"grade" json:"grade"`
	Status       ExamResultStatus `db:"status" json:"status"`
	WithheldNote string           `db:"withheld_note" json:"withheld_note,omitempty"`
	Version      int              `db:"version" json:"version"`
	PublishedAt  *time.Time       `db:"published_at" json:"published_at,omitempty"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// ExamResultFilter constrains result listing.
type ExamResultFilter struct {
	ExamID    string
	StudentID string
	Status    ExamResultStatus
}
