package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

// CalendarRepository persists school calendar workflow records.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs the repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

const calendarColumns = `id, title, term, session, status, events, approval_note, approved_by,
       requires_republish, version, submitted_at, approved_at, published_at, updated_at, created_at`

// FindByTermSession returns the calendar for one term, if any.
func (r *CalendarRepository) FindByTermSession(ctx context.Context, term, session string) (*models.SchoolCalendar, error) {
	query := fmt.Sprintf(`SELECT %s FROM school_calendars WHERE term = $1 AND session = $2`, calendarColumns)
	var calendar models.SchoolCalendar
	if err := r.db.GetContext(ctx, &calendar, query, term, session); err != nil {
		return nil, err
	}
	return &calendar, nil
}

// GetByID fetches a calendar record.
func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*models.SchoolCalendar, error) {
	query := fmt.Sprintf(`SELECT %s FROM school_calendars WHERE id = $1`, calendarColumns)
	var calendar models.SchoolCalendar
	if err := r.db.GetContext(ctx, &calendar, query, id); err != nil {
		return nil, err
	}
	return &calendar, nil
}

// Insert creates a new calendar record.
func (r *CalendarRepository) Insert(ctx context.Context, calendar *models.SchoolCalendar) error {
	if calendar.ID == "" {
		calendar.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if calendar.CreatedAt.IsZero() {
		calendar.CreatedAt = now
	}
	calendar.UpdatedAt = now
	const query = `INSERT INTO school_calendars
	(id, title, term, session, status, events, approval_note, approved_by, requires_republish,
	 version, submitted_at, approved_at, published_at, updated_at, created_at)
	VALUES (:id, :title, :term, :session, :status, :events, :approval_note, :approved_by, :requires_republish,
	 :version, :submitted_at, :approved_at, :published_at, :updated_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, calendar); err != nil {
		return fmt.Errorf("insert calendar: %w", err)
	}
	return nil
}

// UpdateWithVersion applies a guarded full-row update. Zero affected rows
// means another actor raced the mutation.
func (r *CalendarRepository) UpdateWithVersion(ctx context.Context, calendar *models.SchoolCalendar, expectedVersion int) error {
	calendar.UpdatedAt = time.Now().UTC()
	const query = `UPDATE school_calendars SET
	 title = :title, status = :status, events = :events, approval_note = :approval_note,
	 approved_by = :approved_by, requires_republish = :requires_republish, version = :version,
	 submitted_at = :submitted_at, approved_at = :approved_at, published_at = :published_at, updated_at = :updated_at
	WHERE id = :id AND version = :expected_version`
	params := struct {
		*models.SchoolCalendar
		ExpectedVersion int `db:"expected_version"`
	}{calendar, expectedVersion}
	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update calendar rows: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrStaleVersion
	}
	return nil
}
