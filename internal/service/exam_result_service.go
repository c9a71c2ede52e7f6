package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edubridge-ng/portal-api/internal/models"
	"github.com/edubridge-ng/portal-api/internal/workflow"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
	"github.com/edubridge-ng/portal-api/pkg/events"
	"github.com/edubridge-ng/portal-api/pkg/grading"
)

// examResultMachine is the per-row publication table. Rows move
// independently of each other; withheld is terminal.
var examResultMachine = workflow.New(models.ExamResultStatusPending, map[models.ExamResultStatus][]models.ExamResultStatus{
	models.ExamResultStatusPending: {models.ExamResultStatusPublished, models.ExamResultStatusWithheld},
})

type examResultStore interface {
	List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error)
	GetByExamStudent(ctx context.Context, examID, studentID string) (*models.ExamResult, error)
	BulkUpsert(ctx context.Context, results []models.ExamResult) error
	PublishAllPending(ctx context.Context, examID string, publishedAt time.Time) (int64, error)
	UpdateWithVersion(ctx context.Context, row *models.ExamResult, expectedVersion int) error
}

// ResultRow is one student's raw component scores.
type ResultRow struct {
	StudentID  string  `json:"student_id" validate:"required"`
	CA1        float64 `json:"ca1"`
	CA2        float64 `json:"ca2"`
	Assignment float64 `json:"assignment"`
	Exam       float64 `json:"exam"`
}

// SaveResultsRequest uploads a batch of scored rows for an exam.
type SaveResultsRequest struct {
	ExamID      string      `json:"exam_id" validate:"required"`
	Rows        []ResultRow `json:"rows" validate:"required,min=1,dive"`
	AutoPublish bool        `json:"auto_publish"`
}

// WithholdResultRequest holds back one student's row.
type WithholdResultRequest struct {
	ExamID    string `json:"exam_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Note      string `json:"note" validate:"required"`
}

// ExamResultService owns exam result publication.
type ExamResultService struct {
	store       examResultStore
	broadcaster events.Broadcaster
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewExamResultService constructs the service.
func NewExamResultService(store examResultStore, broadcaster events.Broadcaster, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExamResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if broadcaster == nil {
		broadcaster = events.Nop{}
	}
	return &ExamResultService{store: store, broadcaster: broadcaster, metrics: metrics, validator: validate, logger: logger}
}

// SaveResults validates and persists a scored batch. The batch is
// all-or-nothing: a duplicate student id or an out-of-bounds score
// rejects every row before anything is written. Totals and grades are
// derived here, never accepted from the caller. Returned rows carry the
// stored version, which the upsert bumps for re-saved students.
func (s *ExamResultService) SaveResults(ctx context.Context, req SaveResultsRequest) ([]models.ExamResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid results payload")
	}

	seen := make(map[string]struct{}, len(req.Rows))
	results := make([]models.ExamResult, 0, len(req.Rows))
	status := models.ExamResultStatusPending
	var publishedAt *time.Time
	if req.AutoPublish {
		status = models.ExamResultStatusPublished
		now := time.Now().UTC()
		publishedAt = &now
	}
	for i, row := range req.Rows {
		studentID := strings.TrimSpace(row.StudentID)
		if _, dup := seen[studentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: duplicate student %s", i+1, studentID))
		}
		seen[studentID] = struct{}{}
		if err := validateScore(row.CA1, grading.MaxCA1, "ca1"); err != nil {
			return nil, rowError(i, err)
		}
		if err := validateScore(row.CA2, grading.MaxCA2, "ca2"); err != nil {
			return nil, rowError(i, err)
		}
		if err := validateScore(row.Assignment, grading.MaxAssignment, "assignment"); err != nil {
			return nil, rowError(i, err)
		}
		if err := validateScore(row.Exam, grading.MaxExam, "exam"); err != nil {
			return nil, rowError(i, err)
		}
		total := grading.Total(row.CA1, row.CA2, row.Assignment, row.Exam)
		results = append(results, models.ExamResult{
			ExamID:      req.ExamID,
			StudentID:   studentID,
			CA1:         row.CA1,
			CA2:         row.CA2,
			Assignment:  row.Assignment,
			Exam:        row.Exam,
			Total:       total,
			Grade:       grading.FromTotal(total),
			Status:      status,
			Version:     1,
			PublishedAt: publishedAt,
		})
	}

	if err := s.store.BulkUpsert(ctx, results); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to save exam results")
	}
	event := events.EventExamResultsSaved
	if req.AutoPublish {
		event = events.EventExamResultsPublished
	}
	s.broadcast(ctx, event, map[string]interface{}{"exam_id": req.ExamID, "count": len(results)})
	return results, nil
}

// PublishAll releases every pending row for the exam in one logical
// operation. Rows already published are left alone, so a repeated call
// succeeds with nothing to do.
func (s *ExamResultService) PublishAll(ctx context.Context, examID string) ([]models.ExamResult, error) {
	if strings.TrimSpace(examID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exam_id is required")
	}
	affected, err := s.store.PublishAllPending(ctx, examID, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to publish exam results")
	}
	rows, err := s.store.List(ctx, models.ExamResultFilter{ExamID: examID, Status: models.ExamResultStatusPublished})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list exam results")
	}
	if affected > 0 {
		s.metrics.ObserveWorkflowTransition(string(models.WorkflowFlavorExamResult), string(models.ExamResultStatusPending), string(models.ExamResultStatusPublished))
		s.broadcast(ctx, events.EventExamResultsPublished, map[string]interface{}{"exam_id": examID, "count": affected})
	}
	return rows, nil
}

// Withhold blocks publication of a single pending row.
func (s *ExamResultService) Withhold(ctx context.Context, req WithholdResultRequest) (*models.ExamResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid withhold payload")
	}
	row, err := s.store.GetByExamStudent(ctx, req.ExamID, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load exam result")
	}
	if err := examResultMachine.Assert(row.Status, models.ExamResultStatusWithheld); err != nil {
		return nil, err
	}
	expected := row.Version
	row.Status = models.ExamResultStatusWithheld
	row.WithheldNote = strings.TrimSpace(req.Note)
	row.Version++
	if err := s.store.UpdateWithVersion(ctx, row, expected); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrStaleVersion.Code {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to withhold exam result")
	}
	s.metrics.ObserveWorkflowTransition(string(models.WorkflowFlavorExamResult), string(models.ExamResultStatusPending), string(models.ExamResultStatusWithheld))
	s.broadcast(ctx, events.EventExamResultsSaved, map[string]interface{}{"exam_id": req.ExamID, "student_id": req.StudentID})
	return row, nil
}

// List returns result rows for an exam.
func (s *ExamResultService) List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error) {
	rows, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list exam results")
	}
	return rows, nil
}

func (s *ExamResultService) broadcast(ctx context.Context, event string, payload interface{}) {
	if err := s.broadcaster.Notify(ctx, event, payload); err != nil {
		s.logger.Warn("failed to broadcast change", zap.String("event", event), zap.Error(err))
	}
}

func validateScore(value, max float64, component string) error {
	if value < 0 || value > max {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be between 0 and %.0f", component, max))
	}
	return nil
}

func rowError(index int, err error) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %s", index+1, err.Error()))
}
