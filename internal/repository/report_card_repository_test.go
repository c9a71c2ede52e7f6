package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

func newReportCardRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func reportCardRowColumns() []string {
	return []string{"id", "student_id", "student_name", "class_name", "subject", "term", "session", "status",
		"feedback", "admin_id", "admin_name", "published_to", "requires_republish", "version",
		"submitted_at", "approved_at", "updated_at", "created_at"}
}

func TestReportCardRepositoryInsertAndGet(t *testing.T) {
	db, mock, cleanup := newReportCardRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_cards")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now().UTC()
	card := &models.ReportCard{
		ID:          "rc-1",
		StudentID:   "student-7",
		StudentName: "Adaeze Okafor",
		ClassName:   "JSS2A",
		Subject:     "Mathematics",
		Term:        "First Term",
		Session:     "2025/2026",
		Status:      models.ReportCardStatusPending,
		Version:     1,
		SubmittedAt: &now,
	}
	require.NoError(t, repo.Insert(context.Background(), card))

	rows := sqlmock.NewRows(reportCardRowColumns()).
		AddRow("rc-1", "student-7", "Adaeze Okafor", "JSS2A", "Mathematics", "First Term", "2025/2026", "PENDING",
			"", "", "", []byte(`[]`), false, 1, now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, student_name")).
		WithArgs("rc-1").
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), "rc-1")
	require.NoError(t, err)
	require.Equal(t, "rc-1", found.ID)
	require.Equal(t, models.ReportCardStatusPending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newReportCardRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(reportCardRowColumns()).
		AddRow("rc-1", "student-7", "Adaeze Okafor", "JSS2A", "Mathematics", "First Term", "2025/2026", "PENDING",
			"", "", "", []byte(`[]`), false, 1, now, nil, now, now)
	mock.ExpectQuery(`SELECT .+ FROM report_cards WHERE status = \$1 ORDER BY updated_at DESC`).
		WithArgs(models.ReportCardStatusPending).
		WillReturnRows(rows)

	cards, err := repo.List(context.Background(), models.ReportCardFilter{Status: models.ReportCardStatusPending})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryUpdateWithVersionStale(t *testing.T) {
	db, mock, cleanup := newReportCardRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_cards SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	card := &models.ReportCard{ID: "rc-1", Status: models.ReportCardStatusApproved, Version: 3}
	err := repo.UpdateWithVersion(context.Background(), card, 2)
	require.ErrorIs(t, err, appErrors.ErrStaleVersion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryUpdateWithVersionApplies(t *testing.T) {
	db, mock, cleanup := newReportCardRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_cards SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	card := &models.ReportCard{ID: "rc-1", Status: models.ReportCardStatusApproved, Version: 3}
	require.NoError(t, repo.UpdateWithVersion(context.Background(), card, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}
