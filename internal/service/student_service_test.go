package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	m.lastFilter = filter
	result := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		result = append(result, s)
	}
	return result, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "student-gen"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func TestStudentCreateDefaultsActive(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, nil)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		AdmissionNo: "EB/2025/014",
		FullName:    "Adaeze Okafor",
		ClassName:   "JSS2A",
		Gender:      "F",
		ParentEmail: "okafor@example.com",
	})
	require.NoError(t, err)
	assert.True(t, student.Active)
	require.NotNil(t, student.ParentEmail)
	assert.Equal(t, "okafor@example.com", *student.ParentEmail)
	assert.Nil(t, student.ParentName)
}

func TestStudentCreateRejectsBadEmail(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		AdmissionNo: "EB/2025/014",
		FullName:    "Adaeze Okafor",
		ClassName:   "JSS2A",
		Gender:      "F",
		ParentEmail: "not-an-email",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentUpdateUnknownID(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, nil)

	_, err := svc.Update(context.Background(), "missing", UpdateStudentRequest{
		AdmissionNo: "EB/2025/014",
		FullName:    "Adaeze Okafor",
		ClassName:   "JSS2A",
		Gender:      "F",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentListPassesFilter(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"student-7": {ID: "student-7", FullName: "Adaeze Okafor"},
	}}
	svc := NewStudentService(repo, nil, nil)

	active := true
	students, err := svc.List(context.Background(), models.StudentFilter{ClassName: "JSS2A", Active: &active})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "JSS2A", repo.lastFilter.ClassName)
}
