package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge-ng/portal-api/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRowColumns() []string {
	return []string{
		"id", "admission_no", "full_name", "class_name", "gender",
		"parent_name", "parent_email", "guardian_phone", "active",
		"created_at", "updated_at",
	}
}

func TestStudentRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now().UTC()
	active := true
	rows := sqlmock.NewRows(studentRowColumns()).
		AddRow("student-7", "ADM-2025-007", "Adaeze Okafor", "JSS2A", "F",
			nil, nil, nil, true, now, now)

	mock.ExpectQuery(`SELECT .+ FROM students WHERE class_name = \$1 AND active = \$2 ORDER BY full_name ASC LIMIT 20 OFFSET 0`).
		WithArgs("JSS2A", true).
		WillReturnRows(rows)

	students, err := repo.List(context.Background(), models.StudentFilter{ClassName: "JSS2A", Active: &active})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Adaeze Okafor", students[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(`INSERT INTO students`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{
		AdmissionNo: "ADM-2025-011",
		FullName:    "Chinedu Eze",
		ClassName:   "JSS2A",
		Gender:      "M",
		Active:      true,
	}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.False(t, student.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now().UTC()
	email := "parent@example.com"
	mock.ExpectQuery(`SELECT .+ FROM students WHERE id = \$1`).
		WithArgs("student-7").
		WillReturnRows(sqlmock.NewRows(studentRowColumns()).
			AddRow("student-7", "ADM-2025-007", "Adaeze Okafor", "JSS2A", "F",
				nil, email, nil, true, now, now))

	student, err := repo.FindByID(context.Background(), "student-7")
	require.NoError(t, err)
	require.NotNil(t, student.ParentEmail)
	assert.Equal(t, email, *student.ParentEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}
