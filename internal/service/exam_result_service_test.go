package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

type mockExamResultStore struct {
	rows   map[string]models.ExamResult
	getErr error
}

func examRowKey(examID, studentID string) string { return examID + "|" + studentID }

func (m *mockExamResultStore) List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error) {
	var result []models.ExamResult
	for _, row := range m.rows {
		if filter.ExamID != "" && filter.ExamID != row.ExamID {
			continue
		}
		if filter.StudentID != "" && filter.StudentID != row.StudentID {
			continue
		}
		if filter.Status != "" && filter.Status != row.Status {
			continue
		}
		result = append(result, row)
	}
	return result, nil
}

func (m *mockExamResultStore) GetByExamStudent(ctx context.Context, examID, studentID string) (*models.ExamResult, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	row, ok := m.rows[examRowKey(examID, studentID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := row
	return &copied, nil
}

func (m *mockExamResultStore) BulkUpsert(ctx context.Context, results []models.ExamResult) error {
	if m.rows == nil {
		m.rows = make(map[string]models.ExamResult)
	}
	for _, row := range results {
		m.rows[examRowKey(row.ExamID, row.StudentID)] = row
	}
	return nil
}

func (m *mockExamResultStore) PublishAllPending(ctx context.Context, examID string, publishedAt time.Time) (int64, error) {
	var affected int64
	for key, row := range m.rows {
		if row.ExamID != examID || row.Status != models.ExamResultStatusPending {
			continue
		}
		row.Status = models.ExamResultStatusPublished
		row.PublishedAt = &publishedAt
		row.Version++
		m.rows[key] = row
		affected++
	}
	return affected, nil
}

func (m *mockExamResultStore) UpdateWithVersion(ctx context.Context, row *models.ExamResult, expectedVersion int) error {
	key := examRowKey(row.ExamID, row.StudentID)
	stored, ok := m.rows[key]
	if !ok || stored.Version != expectedVersion {
		return appErrors.Clone(appErrors.ErrStaleVersion, "exam result version mismatch")
	}
	m.rows[key] = *row
	return nil
}

func newExamResultFixture(t *testing.T) (*ExamResultService, *mockExamResultStore) {
	t.Helper()
	store := &mockExamResultStore{rows: make(map[string]models.ExamResult)}
	return NewExamResultService(store, nil, nil, nil, nil), store
}

func TestSaveResultsDerivesTotalsAndGrades(t *testing.T) {
	svc, store := newExamResultFixture(t)

	results, err := svc.SaveResults(context.Background(), SaveResultsRequest{
		ExamID: "exam-1",
		Rows: []ResultRow{
			{StudentID: "student-7", CA1: 18, CA2: 20, Assignment: 9, Exam: 45},
			{StudentID: "student-8", CA1: 10, CA2: 12, Assignment: 5, Exam: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, float64(92), results[0].Total)
	assert.Equal(t, "A", results[0].Grade)
	assert.Equal(t, models.ExamResultStatusPending, results[0].Status)
	assert.Nil(t, results[0].PublishedAt)

	assert.Equal(t, float64(47), results[1].Total)
	assert.Equal(t, "F", results[1].Grade)

	assert.Len(t, store.rows, 2)
}

func TestSaveResultsRejectsWholeBatchOnBadRow(t *testing.T) {
	svc, store := newExamResultFixture(t)

	_, err := svc.SaveResults(context.Background(), SaveResultsRequest{
		ExamID: "exam-1",
		Rows: []ResultRow{
			{StudentID: "student-7", CA1: 18, CA2: 20, Assignment: 9, Exam: 45},
			{StudentID: "student-8", CA1: 25, CA2: 12, Assignment: 5, Exam: 20},
		},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "row 2")
	assert.Empty(t, store.rows)
}

func TestSaveResultsRejectsDuplicateStudent(t *testing.T) {
	svc, store := newExamResultFixture(t)

	_, err := svc.SaveResults(context.Background(), SaveResultsRequest{
		ExamID: "exam-1",
		Rows: []ResultRow{
			{StudentID: "student-7", CA1: 18, CA2: 20, Assignment: 9, Exam: 45},
			{StudentID: "student-7", CA1: 10, CA2: 10, Assignment: 5, Exam: 30},
		},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.rows)
}

func TestSaveResultsAutoPublish(t *testing.T) {
	svc, _ := newExamResultFixture(t)

	results, err := svc.SaveResults(context.Background(), SaveResultsRequest{
		ExamID:      "exam-1",
		AutoPublish: true,
		Rows: []ResultRow{
			{StudentID: "student-7", CA1: 18, CA2: 20, Assignment: 9, Exam: 45},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.ExamResultStatusPublished, results[0].Status)
	assert.NotNil(t, results[0].PublishedAt)
}

func TestPublishAllReleasesOnlyPendingRows(t *testing.T) {
	svc, store := newExamResultFixture(t)
	ctx := context.Background()

	_, err := svc.SaveResults(ctx, SaveResultsRequest{
		ExamID: "exam-1",
		Rows: []ResultRow{
			{StudentID: "student-7", CA1: 18, CA2: 20, Assignment: 9, Exam: 45},
			{StudentID: "student-8", CA1: 10, CA2: 12, Assignment: 5, Exam: 20},
		},
	})
	require.NoError(t, err)
	_, err = svc.Withhold(ctx, WithholdResultRequest{ExamID: "exam-1", StudentID: "student-8", Note: "awaiting script recheck"})
	require.NoError(t, err)

	rows, err := svc.PublishAll(ctx, "exam-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "student-7", rows[0].StudentID)

	withheld := store.rows[examRowKey("exam-1", "student-8")]
	assert.Equal(t, models.ExamResultStatusWithheld, withheld.Status)

	// repeat call finds nothing pending and still succeeds
	rows, err = svc.PublishAll(ctx, "exam-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWithholdRequiresPendingRow(t *testing.T) {
	svc, _ := newExamResultFixture(t)
	ctx := context.Background()

	_, err := svc.SaveResults(ctx, SaveResultsRequest{
		ExamID:      "exam-1",
		AutoPublish: true,
		Rows:        []ResultRow{{StudentID: "student-7", CA1: 18, CA2: 20, Assignment: 9, Exam: 45}},
	})
	require.NoError(t, err)

	_, err = svc.Withhold(ctx, WithholdResultRequest{ExamID: "exam-1", StudentID: "student-7", Note: "too late"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestWithholdMissingRowIsNotFound(t *testing.T) {
	svc, _ := newExamResultFixture(t)

	_, err := svc.Withhold(context.Background(), WithholdResultRequest{ExamID: "exam-1", StudentID: "student-404", Note: "no script"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestWithholdLoadFailureIsUpstream(t *testing.T) {
	svc, store := newExamResultFixture(t)
	store.getErr = errors.New("connection refused")

	_, err := svc.Withhold(context.Background(), WithholdResultRequest{ExamID: "exam-1", StudentID: "student-7", Note: "no script"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
}

func TestWithholdStoresNote(t *testing.T) {
	svc, _ := newExamResultFixture(t)
	ctx := context.Background()

	_, err := svc.SaveResults(ctx, SaveResultsRequest{
		ExamID: "exam-1",
		Rows:   []ResultRow{{StudentID: "student-7", CA1: 18, CA2: 20, Assignment: 9, Exam: 45}},
	})
	require.NoError(t, err)

	row, err := svc.Withhold(ctx, WithholdResultRequest{ExamID: "exam-1", StudentID: "student-7", Note: "  awaiting script recheck "})
	require.NoError(t, err)
	assert.Equal(t, models.ExamResultStatusWithheld, row.Status)
	assert.Equal(t, "awaiting script recheck", row.WithheldNote)
	assert.Equal(t, 2, row.Version)
}
