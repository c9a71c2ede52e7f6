package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/edubridge-ng/portal-api/internal/models"
)

// ParentRepository reads the guardian directory used by recipient
// resolution.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs the repository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

const parentColumns = `id, full_name, email, phone, student_ids, active, created_at, updated_at`

// List returns parent accounts matching the filter.
func (r *ParentRepository) List(ctx context.Context, filter models.ParentFilter) ([]models.ParentAccount, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM parent_accounts`, parentColumns))
	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(student_ids)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(full_name) LIKE $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY full_name ASC")

	var parents []models.ParentAccount
	if err := r.db.SelectContext(ctx, &parents, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list parent accounts: %w", err)
	}
	return parents, nil
}

// FindByID fetches one parent account.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.ParentAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM parent_accounts WHERE id = $1`, parentColumns)
	var parent models.ParentAccount
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		return nil, err
	}
	return &parent, nil
}
