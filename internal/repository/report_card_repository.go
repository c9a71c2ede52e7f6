package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

// ReportCardRepository persists report card workflow records.
type ReportCardRepository struct {
	db *sqlx.DB
}

// NewReportCardRepository constructs the repository.
func NewReportCardRepository(db *sqlx.DB) *ReportCardRepository {
	return &ReportCardRepository{db: db}
}

const reportCardColumns = `id, student_id, student_name, class_name, subject, term, session, status,
       feedback, admin_id, admin_name, published_to, requires_republish, version,
       submitted_at, approved_at, updated_at, created_at`

// GetByID fetches a record by its derived identity.
func (r *ReportCardRepository) GetByID(ctx context.Context, id string) (*models.ReportCard, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_cards WHERE id = $1`, reportCardColumns)
	var card models.ReportCard
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		return nil, err
	}
	return &card, nil
}

// List returns records matching the filter, newest submissions first.
func (r *ReportCardRepository) List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM report_cards`, reportCardColumns))
	args := make([]interface{}, 0, 5)
	conditions := make([]string, 0, 5)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		conditions = append(conditions, fmt.Sprintf("class_name = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Term != "" {
		args = append(args, filter.Term)
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)))
	}
	if filter.Session != "" {
		args = append(args, filter.Session)
		conditions = append(conditions, fmt.Sprintf("session = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY updated_at DESC")

	var cards []models.ReportCard
	if err := r.db.SelectContext(ctx, &cards, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list report cards: %w", err)
	}
	return cards, nil
}

// Insert creates a new workflow record. The caller supplies the derived
// scope identity so repeated submissions hit the same row.
func (r *ReportCardRepository) Insert(ctx context.Context, card *models.ReportCard) error {
	now := time.Now().UTC()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now
	const query = `INSERT INTO report_cards
	(id, student_id, student_name, class_name, subject, term, session, status, feedback,
	 admin_id, admin_name, published_to, requires_republish, version, submitted_at, approved_at, updated_at, created_at)
	VALUES (:id, :student_id, :student_name, :class_name, :subject, :term, :session, :status, :feedback,
	 :admin_id, :admin_name, :published_to, :requires_republish, :version, :submitted_at, :approved_at, :updated_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("insert report card: %w", err)
	}
	return nil
}

// UpdateWithVersion applies a full-row update guarded by the version the
// caller last read. Zero affected rows means another actor raced the
// mutation and the caller must re-fetch.
func (r *ReportCardRepository) UpdateWithVersion(ctx context.Context, card *models.ReportCard, expectedVersion int) error {
	card.UpdatedAt = time.Now().UTC()
	const query = `UPDATE report_cards SET
	 status = :status, feedback = :feedback, admin_id = :admin_id, admin_name = :admin_name,
	 published_to = :published_to, requires_republish = :requires_republish, version = :version,
	 submitted_at = :submitted_at, approved_at = :approved_at, updated_at = :updated_at
	WHERE id = :id AND version = :expected_version`
	params := struct {
		*models.ReportCard
		ExpectedVersion int `db:"expected_version"`
	}{card, expectedVersion}
	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return fmt.Errorf("update report card: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report card rows: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrStaleVersion
	}
	return nil
}
