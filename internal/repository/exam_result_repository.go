package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

// ExamResultRepository persists per-student exam result rows.
type ExamResultRepository struct {
	db *sqlx.DB
}

// NewExamResultRepository constructs the repository.
func NewExamResultRepository(db *sqlx.DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

const examResultColumns = `id, exam_id, student_id, ca1, ca2, assignment, exam, total, grade,
       status, withheld_note, version, published_at, updated_at, created_at`

// List returns result rows matching the filter.
func (r *ExamResultRepository) List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM exam_results`, examResultColumns))
	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.ExamID != "" {
		args = append(args, filter.ExamID)
		conditions = append(conditions, fmt.Sprintf("exam_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY student_id ASC")

	var results []models.ExamResult
	if err := r.db.SelectContext(ctx, &results, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	return results, nil
}

// GetByExamStudent fetches a single row.
func (r *ExamResultRepository) GetByExamStudent(ctx context.Context, examID, studentID string) (*models.ExamResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_results WHERE exam_id = $1 AND student_id = $2`, examResultColumns)
	var result models.ExamResult
	if err := r.db.GetContext(ctx, &result, query, examID, studentID); err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkUpsert writes a batch of rows in one transaction. The batch is
// all-or-nothing: any failure rolls back every row. A conflicting row is
// replaced wholesale, publication columns included, so a re-save never
// leaves a published status without its timestamp or a stale withheld
// note behind. Each row's Version is overwritten with the stored value.
func (r *ExamResultRepository) BulkUpsert(ctx context.Context, results []models.ExamResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam results tx: %w", err)
	}
	const query = `INSERT INTO exam_results
	(id, exam_id, student_id, ca1, ca2, assignment, exam, total, grade, status, withheld_note, version, published_at, updated_at, created_at)
	VALUES (:id, :exam_id, :student_id, :ca1, :ca2, :assignment, :exam, :total, :grade, :status, :withheld_note, :version, :published_at, :updated_at, :created_at)
	ON CONFLICT (exam_id, student_id) DO UPDATE SET
	 ca1 = EXCLUDED.ca1, ca2 = EXCLUDED.ca2, assignment = EXCLUDED.assignment, exam = EXCLUDED.exam,
	 total = EXCLUDED.total, grade = EXCLUDED.grade, status = EXCLUDED.status,
	 withheld_note = EXCLUDED.withheld_note, published_at = EXCLUDED.published_at,
	 version = exam_results.version + 1, updated_at = EXCLUDED.updated_at
	RETURNING version`
	now := time.Now().UTC()
	for i := range results {
		if results[i].ID == "" {
			results[i].ID = uuid.NewString()
		}
		if results[i].CreatedAt.IsZero() {
			results[i].CreatedAt = now
		}
		results[i].UpdatedAt = now
		if err := r.upsertRow(ctx, tx, query, &results[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert exam result %s: %w", results[i].StudentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exam results: %w", err)
	}
	return nil
}

func (r *ExamResultRepository) upsertRow(ctx context.Context, tx *sqlx.Tx, query string, row *models.ExamResult) error {
	rows, err := sqlx.NamedQueryContext(ctx, tx, query, row)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&row.Version); err != nil {
			return err
		}
	}
	return rows.Err()
}

// PublishAllPending flips every pending row for the exam to published in
// one statement. Already published rows are untouched, which makes the
// call idempotent.
func (r *ExamResultRepository) PublishAllPending(ctx context.Context, examID string, publishedAt time.Time) (int64, error) {
	const query = `UPDATE exam_results SET status = $1, published_at = $2, version = version + 1, updated_at = $2
	WHERE exam_id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.ExamResultStatusPublished, publishedAt.UTC(), examID, models.ExamResultStatusPending)
	if err != nil {
		return 0, fmt.Errorf("publish exam results: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish exam results rows: %w", err)
	}
	return affected, nil
}

// UpdateWithVersion applies a guarded single-row update.
func (r *ExamResultRepository) UpdateWithVersion(ctx context.Context, row *models.ExamResult, expectedVersion int) error {
	row.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_results SET
	 status = :status, withheld_note = :withheld_note, version = :version,
	 published_at = :published_at, updated_at = :updated_at
	WHERE id = :id AND version = :expected_version`
	params := struct {
		*models.ExamResult
		ExpectedVersion int `db:"expected_version"`
	}{row, expectedVersion}
	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return fmt.Errorf("update exam result: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exam result rows: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrStaleVersion
	}
	return nil
}
