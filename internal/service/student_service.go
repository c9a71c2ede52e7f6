package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	AdmissionNo   string `json:"admission_no" validate:"required"`
	FullName      string `json:"full_name" validate:"required"`
	ClassName     string `json:"class_name" validate:"required"`
	Gender        string `json:"gender" validate:"required"`
	ParentName    string `json:"parent_name"`
	ParentEmail   string `json:"parent_email" validate:"omitempty,email"`
	GuardianPhone string `json:"guardian_phone"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	AdmissionNo   string `json:"admission_no" validate:"required"`
	FullName      string `json:"full_name" validate:"required"`
	ClassName     string `json:"class_name" validate:"required"`
	Gender        string `json:"gender" validate:"required"`
	ParentName    string `json:"parent_name"`
	ParentEmail   string `json:"parent_email" validate:"omitempty,email"`
	GuardianPhone string `json:"guardian_phone"`
	Active        bool   `json:"active"`
}

// StudentService manages the student directory the workflows draw on.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		AdmissionNo:   req.AdmissionNo,
		FullName:      req.FullName,
		ClassName:     req.ClassName,
		Gender:        req.Gender,
		ParentName:    optionalString(req.ParentName),
		ParentEmail:   optionalString(req.ParentEmail),
		GuardianPhone: optionalString(req.GuardianPhone),
		Active:        true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student.AdmissionNo = req.AdmissionNo
	student.FullName = req.FullName
	student.ClassName = req.ClassName
	student.Gender = req.Gender
	student.ParentName = optionalString(req.ParentName)
	student.ParentEmail = optionalString(req.ParentEmail)
	student.GuardianPhone = optionalString(req.GuardianPhone)
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
