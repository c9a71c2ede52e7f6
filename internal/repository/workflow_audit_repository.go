package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubridge-ng/portal-api/internal/models"
)

// WorkflowAuditRepository appends and reads the transition trail shared
// by all workflow flavors.
type WorkflowAuditRepository struct {
	db *sqlx.DB
}

// NewWorkflowAuditRepository constructs the repository.
func NewWorkflowAuditRepository(db *sqlx.DB) *WorkflowAuditRepository {
	return &WorkflowAuditRepository{db: db}
}

// Append records one transition. Trail rows are immutable once written.
func (r *WorkflowAuditRepository) Append(ctx context.Context, entry *models.WorkflowAudit) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO workflow_audits
	(id, flavor, record_id, from_status, to_status, actor_id, actor_name, note, version, created_at)
	VALUES (:id, :flavor, :record_id, :from_status, :to_status, :actor_id, :actor_name, :note, :version, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append workflow audit: %w", err)
	}
	return nil
}

// ListByRecord returns the trail for one record, oldest first.
func (r *WorkflowAuditRepository) ListByRecord(ctx context.Context, flavor models.WorkflowFlavor, recordID string) ([]models.WorkflowAudit, error) {
	const query = `SELECT id, flavor, record_id, from_status, to_status, actor_id, actor_name, note, version, created_at
	FROM workflow_audits WHERE flavor = $1 AND record_id = $2 ORDER BY version ASC, created_at ASC`
	var entries []models.WorkflowAudit
	if err := r.db.SelectContext(ctx, &entries, query, flavor, recordID); err != nil {
		return nil, fmt.Errorf("list workflow audits: %w", err)
	}
	return entries, nil
}
