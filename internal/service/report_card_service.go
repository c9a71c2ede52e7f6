package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edubridge-ng/portal-api/internal/models"
	"github.com/edubridge-ng/portal-api/internal/workflow"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
	"github.com/edubridge-ng/portal-api/pkg/events"
)

// reportCardMachine is the report-card flavor transition table. Submitting
// from revoked is the resubmission path; there is no way back out of
// revoked except through pending.
var reportCardMachine = workflow.New(models.ReportCardStatusDraft, map[models.ReportCardStatus][]models.ReportCardStatus{
	models.ReportCardStatusDraft:    {models.ReportCardStatusPending},
	models.ReportCardStatusPending:  {models.ReportCardStatusApproved, models.ReportCardStatusRevoked},
	models.ReportCardStatusApproved: {models.ReportCardStatusRevoked},
	models.ReportCardStatusRevoked:  {models.ReportCardStatusPending},
})

type reportCardStore interface {
	GetByID(ctx context.Context, id string) (*models.ReportCard, error)
	List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error)
	Insert(ctx context.Context, card *models.ReportCard) error
	UpdateWithVersion(ctx context.Context, card *models.ReportCard, expectedVersion int) error
}

type workflowTrail interface {
	Append(ctx context.Context, entry *models.WorkflowAudit) error
	ListByRecord(ctx context.Context, flavor models.WorkflowFlavor, recordID string) ([]models.WorkflowAudit, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type recipientResolver interface {
	Resolve(ctx context.Context, studentID string, prior models.RecipientList) (models.RecipientList, error)
}

type publishNotifier interface {
	NotifyPublished(ctx context.Context, card *models.ReportCard)
}

// SubmitReportCardRequest asks for a scope to enter review.
type SubmitReportCardRequest struct {
	Scope      models.ReportCardScope `json:"scope" validate:"required"`
	AuthorID   string                 `json:"author_id" validate:"required"`
	AuthorName string                 `json:"author_name" validate:"required"`
}

// ApproveReportCardRequest approves and publishes a pending record.
type ApproveReportCardRequest struct {
	Scope      models.ReportCardScope `json:"scope" validate:"required"`
	AdminID    string                 `json:"admin_id" validate:"required"`
	AdminName  string                 `json:"admin_name" validate:"required"`
	Recipients models.RecipientList   `json:"recipients"`
}

// RevokeReportCardRequest withdraws a pending or approved record.
type RevokeReportCardRequest struct {
	Scope     models.ReportCardScope `json:"scope" validate:"required"`
	AdminID   string                 `json:"admin_id" validate:"required"`
	AdminName string                 `json:"admin_name" validate:"required"`
	Feedback  string                 `json:"feedback"`
}

// pendingQueueCacheKey holds the cached admin review queue. Any
// lifecycle mutation invalidates the report-cards prefix.
const pendingQueueCacheKey = "report-cards:pending"

// ReportCardService owns the report-card approval lifecycle.
type ReportCardService struct {
	store       reportCardStore
	trail       workflowTrail
	students    studentReader
	resolver    recipientResolver
	broadcaster events.Broadcaster
	notifier    publishNotifier
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReportCardService constructs the service.
func NewReportCardService(store reportCardStore, trail workflowTrail, students studentReader, resolver recipientResolver, broadcaster events.Broadcaster, notifier publishNotifier, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportCardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if broadcaster == nil {
		broadcaster = events.Nop{}
	}
	return &ReportCardService{
		store:       store,
		trail:       trail,
		students:    students,
		resolver:    resolver,
		broadcaster: broadcaster,
		notifier:    notifier,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Submit moves a scope into pending review. The record is created on
// first submission; a revoked record re-enters pending with its feedback
// cleared. Submitting an already pending or approved scope fails with
// INVALID_TRANSITION rather than silently succeeding, so the trail never
// records a transition that changed nothing.
func (s *ReportCardService) Submit(ctx context.Context, req SubmitReportCardRequest) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}
	id := req.Scope.RecordID()
	now := time.Now().UTC()

	existing, err := s.store.GetByID(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load report card")
	}

	if existing == nil {
		student, err := s.students.FindByID(ctx, req.Scope.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load student")
		}
		card := &models.ReportCard{
			ID:          id,
			StudentID:   req.Scope.StudentID,
			StudentName: student.FullName,
			ClassName:   req.Scope.ClassName,
			Subject:     req.Scope.Subject,
			Term:        req.Scope.Term,
			Session:     req.Scope.Session,
			Status:      models.ReportCardStatusPending,
			AdminID:     req.AuthorID,
			AdminName:   req.AuthorName,
			Version:     1,
			SubmittedAt: &now,
		}
		if err := s.store.Insert(ctx, card); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create report card")
		}
		s.record(ctx, card, string(models.ReportCardStatusDraft), req.AuthorID, req.AuthorName, "")
		s.broadcast(ctx, events.EventReportCardChanged, card)
		return card, nil
	}

	if err := reportCardMachine.Assert(existing.Status, models.ReportCardStatusPending); err != nil {
		return nil, err
	}
	from := existing.Status
	expected := existing.Version
	existing.Status = models.ReportCardStatusPending
	existing.Feedback = ""
	existing.AdminID = req.AuthorID
	existing.AdminName = req.AuthorName
	existing.SubmittedAt = &now
	existing.Version++
	if err := s.applyUpdate(ctx, existing, expected); err != nil {
		return nil, err
	}
	s.record(ctx, existing, string(from), req.AuthorID, req.AuthorName, "")
	s.broadcast(ctx, events.EventReportCardChanged, existing)
	return existing, nil
}

// ApproveAndPublish approves a pending record and grants the resolved
// audience access. An explicit recipient list overrides resolution; an
// empty resolved audience rejects the publish.
func (s *ReportCardService) ApproveAndPublish(ctx context.Context, req ApproveReportCardRequest) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approve payload")
	}
	card, err := s.load(ctx, req.Scope)
	if err != nil {
		return nil, err
	}
	if err := reportCardMachine.Assert(card.Status, models.ReportCardStatusApproved); err != nil {
		return nil, err
	}

	recipients := req.Recipients
	if len(recipients) == 0 {
		recipients, err = s.resolver.Resolve(ctx, card.StudentID, card.PublishedTo)
		if err != nil {
			return nil, err
		}
	}
	if len(recipients) == 0 {
		return nil, appErrors.ErrRecipientsRequired
	}

	now := time.Now().UTC()
	from := card.Status
	expected := card.Version
	card.Status = models.ReportCardStatusApproved
	card.ApprovedAt = &now
	card.AdminID = req.AdminID
	card.AdminName = req.AdminName
	card.PublishedTo = recipients
	card.RequiresRepublish = false
	card.Version++
	if err := s.applyUpdate(ctx, card, expected); err != nil {
		return nil, err
	}
	s.record(ctx, card, string(from), req.AdminID, req.AdminName, "")
	s.broadcast(ctx, events.EventReportCardChanged, card)
	if s.notifier != nil {
		s.notifier.NotifyPublished(ctx, card)
	}
	return card, nil
}

// Revoke withdraws a pending or approved record. Feedback is mandatory
// and access is removed: the audience list is cleared.
func (s *ReportCardService) Revoke(ctx context.Context, req RevokeReportCardRequest) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid revoke payload")
	}
	feedback := strings.TrimSpace(req.Feedback)
	if feedback == "" {
		return nil, appErrors.ErrFeedbackRequired
	}
	card, err := s.load(ctx, req.Scope)
	if err != nil {
		return nil, err
	}
	if err := reportCardMachine.Assert(card.Status, models.ReportCardStatusRevoked); err != nil {
		return nil, err
	}

	from := card.Status
	expected := card.Version
	card.Status = models.ReportCardStatusRevoked
	card.Feedback = feedback
	card.AdminID = req.AdminID
	card.AdminName = req.AdminName
	card.PublishedTo = nil
	card.RequiresRepublish = false
	card.Version++
	if err := s.applyUpdate(ctx, card, expected); err != nil {
		return nil, err
	}
	s.record(ctx, card, string(from), req.AdminID, req.AdminName, feedback)
	s.broadcast(ctx, events.EventReportCardChanged, card)
	return card, nil
}

// MarkEdited flags an approved record whose content changed after
// publication. The flag is only cleared by a later successful
// ApproveAndPublish. Edits before approval are invisible to the audience
// and leave the record untouched.
func (s *ReportCardService) MarkEdited(ctx context.Context, scope models.ReportCardScope, actorID, actorName string) (*models.ReportCard, error) {
	card, err := s.load(ctx, scope)
	if err != nil {
		return nil, err
	}
	if card.Status != models.ReportCardStatusApproved || card.RequiresRepublish {
		return card, nil
	}
	expected := card.Version
	card.RequiresRepublish = true
	card.AdminID = actorID
	card.AdminName = actorName
	card.Version++
	if err := s.applyUpdate(ctx, card, expected); err != nil {
		return nil, err
	}
	s.broadcast(ctx, events.EventReportCardChanged, card)
	return card, nil
}

// List returns records for administrative queues. When no explicit
// status is requested, drafts are omitted: administrators act only on
// submitted work.
func (s *ReportCardService) List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error) {
	cacheable := filter == (models.ReportCardFilter{Status: models.ReportCardStatusPending})
	if cacheable {
		var cached []models.ReportCard
		if hit, err := s.cache.Get(ctx, pendingQueueCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}
	cards, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list report cards")
	}
	if filter.Status != "" {
		if cacheable {
			_ = s.cache.Set(ctx, pendingQueueCacheKey, cards, 0)
		}
		return cards, nil
	}
	actionable := make([]models.ReportCard, 0, len(cards))
	for _, card := range cards {
		if card.Status == models.ReportCardStatusDraft {
			continue
		}
		actionable = append(actionable, card)
	}
	return actionable, nil
}

// Get fetches one record by scope.
func (s *ReportCardService) Get(ctx context.Context, scope models.ReportCardScope) (*models.ReportCard, error) {
	return s.load(ctx, scope)
}

// Trail returns the transition history for a scope, oldest first.
func (s *ReportCardService) Trail(ctx context.Context, scope models.ReportCardScope) ([]models.WorkflowAudit, error) {
	entries, err := s.trail.ListByRecord(ctx, models.WorkflowFlavorReportCard, scope.RecordID())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load workflow trail")
	}
	return entries, nil
}

func (s *ReportCardService) load(ctx context.Context, scope models.ReportCardScope) (*models.ReportCard, error) {
	card, err := s.store.GetByID(ctx, scope.RecordID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report card not found for scope")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load report card")
	}
	return card, nil
}

func (s *ReportCardService) applyUpdate(ctx context.Context, card *models.ReportCard, expectedVersion int) error {
	if err := s.store.UpdateWithVersion(ctx, card, expectedVersion); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrStaleVersion.Code {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to update report card")
	}
	return nil
}

func (s *ReportCardService) record(ctx context.Context, card *models.ReportCard, from, actorID, actorName, note string) {
	s.metrics.ObserveWorkflowTransition(string(models.WorkflowFlavorReportCard), from, string(card.Status))
	if s.trail == nil {
		return
	}
	entry := &models.WorkflowAudit{
		Flavor:     models.WorkflowFlavorReportCard,
		RecordID:   card.ID,
		FromStatus: from,
		ToStatus:   string(card.Status),
		ActorID:    actorID,
		ActorName:  actorName,
		Note:       note,
		Version:    card.Version,
	}
	if err := s.trail.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append workflow trail", zap.String("record_id", card.ID), zap.Error(err))
	}
}

func (s *ReportCardService) broadcast(ctx context.Context, event string, payload interface{}) {
	if err := s.cache.Invalidate(ctx, "report-cards:*"); err != nil {
		s.logger.Warn("failed to invalidate report card cache", zap.Error(err))
	}
	if err := s.broadcaster.Notify(ctx, event, payload); err != nil {
		s.logger.Warn("failed to broadcast change", zap.String("event", event), zap.Error(err))
	}
}
