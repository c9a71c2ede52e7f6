package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CalendarStatus captures the approval lifecycle of the school calendar.
type CalendarStatus string

const (
	CalendarStatusDraft           CalendarStatus = "DRAFT"
	CalendarStatusPendingApproval CalendarStatus = "PENDING_APPROVAL"
	CalendarStatusApproved        CalendarStatus = "APPROVED"
	CalendarStatusPublished       CalendarStatus = "PUBLISHED"
)

// CalendarEvent is a single dated entry on the school calendar.
type CalendarEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	EventType string    `json:"event_type"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Location  string    `json:"location,omitempty"`
}

// CalendarEventList is the JSONB-backed event collection.
type CalendarEventList []CalendarEvent

// Value implements driver.Valuer.
func (l CalendarEventList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *CalendarEventList) Scan(src interface{}) error {
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
		return fmt.Errorf("unsupported event list type %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}

// SchoolCalendar is the workflow record for one term's calendar. There is
// at most one record per (term, session) pair.
type SchoolCalendar struct {
	ID                string            `db:"id" json:"id"`
	Title             string            `db:"title" json:"title"`
	Term              string            `db:"term" json:"term"`
	Session           string            `db:"session" json:"session"`
	Status            CalendarStatus    `db:"status" json:"status"`
	Events            CalendarEventList `db:"events" json:"events"`
	ApprovalNote      string            `db:"approval_note" json:"approval_note,omitempty"`
	ApprovedBy        string            `db:"approved_by" json:"approved_by,omitempty"`
	RequiresRepublish bool              `db:"requires_republish" json:"requires_republish"`
	Version           int               `db:"version" json:"version"`
	SubmittedAt       *time.Time        `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt        *time.Time        `db:"approved_at" json:"approved_at,omitempty"`
	PublishedAt       *time.Time        `db:"published_at" json:"published_at,omitempty"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
}
