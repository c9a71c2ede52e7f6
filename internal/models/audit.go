package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionUserCreate     = "USER_CREATE"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionPasswordReset  = "PASSWORD_RESET"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// WorkflowFlavor distinguishes the approval flows sharing the trail table.
type WorkflowFlavor string

const (
	WorkflowFlavorReportCard WorkflowFlavor = "REPORT_CARD"
	WorkflowFlavorCalendar   WorkflowFlavor = "CALENDAR"
	WorkflowFlavorExamResult WorkflowFlavor = "EXAM_RESULT"
)

// WorkflowAudit records one status transition of one workflow record.
// Every transition is attributable to exactly one actor and timestamp.
type WorkflowAudit struct {
	ID         string         `db:"id" json:"id"`
	Flavor     WorkflowFlavor `db:"flavor" json:"flavor"`
	RecordID   string         `db:"record_id" json:"record_id"`
	FromStatus string         `db:"from_status" json:"from_status"`
	ToStatus   string         `db:"to_status" json:"to_status"`
	ActorID    string         `db:"actor_id" json:"actor_id"`
	ActorName  string         `db:"actor_name" json:"actor_name"`
	Note       string         `db:"note" json:"note,omitempty"`
	Version    int            `db:"version" json:"version"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
