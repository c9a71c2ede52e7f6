package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReportCardStatus captures the review lifecycle of a report card.
type ReportCardStatus string

const (
	ReportCardStatusDraft    ReportCardStatus = "DRAFT"
	ReportCardStatusPending  ReportCardStatus = "PENDING"
	ReportCardStatusApproved ReportCardStatus = "APPROVED"
	ReportCardStatusRevoked  ReportCardStatus = "REVOKED"
)

// reportCardNamespace seeds deterministic record ids so repeated
// submissions for the same scope update one record instead of creating
// duplicates.
var reportCardNamespace = uuid.MustParse("3f1f9a52-7c44-4a86-9d0e-5b2c8a3f6e17")

// ReportCardScope is the composite identity of one report card record.
type ReportCardScope struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassName string `json:"class_name" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Term      string `json:"term" validate:"required"`
	Session   string `json:"session" validate:"required"`
}

// Key returns the canonical scope key string.
func (s ReportCardScope) Key() string {
	return strings.Join([]string{s.StudentID, s.ClassName, s.Subject, s.Term, s.Session}, "|")
}

// RecordID derives the stable record identity for the scope.
func (s ReportCardScope) RecordID() string {
	return uuid.NewSHA1(reportCardNamespace, []byte(s.Key())).String()
}

// Recipient describes one parent/guardian entitled to a published artifact.
type Recipient struct {
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
}

// RecipientList is a JSONB-backed ordered recipient collection.
type RecipientList []Recipient

// Value implements driver.Valuer.
func (l RecipientList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *RecipientList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported recipient list type %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}

// ReportCard is the workflow record for one (student, class, subject,
// term, session) scope.
type ReportCard struct {
	ID                string           `db:"id" json:"id"`
	StudentID         string           `db:"student_id" json:"student_id"`
	StudentName       string           `db:"student_name" json:"student_name"`
	ClassName         string           `db:"class_name" json:"class_name"`
	Subject           string           `db:"subject" json:"subject"`
	Term              string           `db:"term" json:"term"`
	Session           string           `db:"session" json:"session"`
	Status            ReportCardStatus `db:"status" json:"status"`
	Feedback          string           `db:"feedback" json:"feedback,omitempty"`
	AdminID           string           `db:"admin_id" json:"admin_id,omitempty"`
	AdminName         string           `db:"admin_name" json:"admin_name,omitempty"`
	PublishedTo       RecipientList    `db:"published_to" json:"published_to"`
	RequiresRepublish bool             `db:"requires_republish" json:"requires_republish"`
	Version           int              `db:"version" json:"version"`
	SubmittedAt       *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt        *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// Scope reconstructs the composite identity of the record.
func (r *ReportCard) Scope() ReportCardScope {
	return ReportCardScope{
		StudentID: r.StudentID,
		ClassName: r.ClassName,
		Subject:   r.Subject,
		Term:      r.Term,
		Session:   r.Session,
	}
}

// ReportCardFilter constrains listing queries.
type ReportCardFilter struct {
	Status    ReportCardStatus
	ClassName string
	StudentID string
	Term      string
	Session   string
}
