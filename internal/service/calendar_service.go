package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edubridge-ng/portal-api/internal/models"
	"github.com/edubridge-ng/portal-api/internal/workflow"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
	"github.com/edubridge-ng/portal-api/pkg/events"
)

// calendarMachine is the school-calendar flavor transition table. A
// published calendar that was edited cycles back through approval before
// the edit becomes visible.
var calendarMachine = workflow.New(models.CalendarStatusDraft, map[models.CalendarStatus][]models.CalendarStatus{
	models.CalendarStatusDraft:           {models.CalendarStatusPendingApproval},
	models.CalendarStatusPendingApproval: {models.CalendarStatusApproved},
	models.CalendarStatusApproved:        {models.CalendarStatusPublished},
	models.CalendarStatusPublished:       {models.CalendarStatusPendingApproval},
})

type calendarStore interface {
	FindByTermSession(ctx context.Context, term, session string) (*models.SchoolCalendar, error)
	Insert(ctx context.Context, calendar *models.SchoolCalendar) error
	UpdateWithVersion(ctx context.Context, calendar *models.SchoolCalendar, expectedVersion int) error
}

// CalendarEventRequest is one event payload for add/update operations.
type CalendarEventRequest struct {
	Title     string    `json:"title" validate:"required"`
	EventType string    `json:"event_type" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Location  string    `json:"location"`
}

// RenameCalendarRequest changes a calendar's display title.
type RenameCalendarRequest struct {
	Term    string `json:"term" validate:"required"`
	Session string `json:"session" validate:"required"`
	Title   string `json:"title" validate:"required"`
}

// SubmitCalendarRequest sends a calendar for approval.
type SubmitCalendarRequest struct {
	Term      string `json:"term" validate:"required"`
	Session   string `json:"session" validate:"required"`
	Note      string `json:"note"`
	ActorID   string `json:"actor_id" validate:"required"`
	ActorName string `json:"actor_name" validate:"required"`
}

// CalendarActionRequest identifies a calendar plus the acting admin.
type CalendarActionRequest struct {
	Term      string `json:"term" validate:"required"`
	Session   string `json:"session" validate:"required"`
	ActorID   string `json:"actor_id" validate:"required"`
	ActorName string `json:"actor_name" validate:"required"`
}

// CalendarService owns the school calendar approval lifecycle.
type CalendarService struct {
	store       calendarStore
	trail       workflowTrail
	broadcaster events.Broadcaster
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(store calendarStore, trail workflowTrail, broadcaster events.Broadcaster, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if broadcaster == nil {
		broadcaster = events.Nop{}
	}
	return &CalendarService{store: store, trail: trail, broadcaster: broadcaster, metrics: metrics, validator: validate, logger: logger}
}

// Get returns the calendar for a term.
func (s *CalendarService) Get(ctx context.Context, term, session string) (*models.SchoolCalendar, error) {
	calendar, err := s.store.FindByTermSession(ctx, term, session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load calendar")
	}
	return calendar, nil
}

// AddEvent appends an event, creating a draft calendar on first use. An
// edit to a published calendar marks it for republication without
// changing its status; nothing new is shown until the approval cycle
// completes. Edits before approval set no flag, nothing has been shown
// to the audience yet.
func (s *CalendarService) AddEvent(ctx context.Context, term, session string, req CalendarEventRequest) (*models.SchoolCalendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}

	calendar, err := s.store.FindByTermSession(ctx, term, session)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load calendar")
		}
		calendar = &models.SchoolCalendar{
			Title:   term + " " + session,
			Term:    term,
			Session: session,
			Status:  calendarMachine.Initial(),
			Version: 1,
			Events:  models.CalendarEventList{newCalendarEvent(req)},
		}
		if err := s.store.Insert(ctx, calendar); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create calendar")
		}
		s.broadcast(ctx, calendar)
		return calendar, nil
	}

	expected := calendar.Version
	calendar.Events = append(calendar.Events, newCalendarEvent(req))
	s.markEdited(calendar)
	calendar.Version++
	if err := s.applyUpdate(ctx, calendar, expected); err != nil {
		return nil, err
	}
	s.broadcast(ctx, calendar)
	return calendar, nil
}

// UpdateEvent replaces an event in place.
func (s *CalendarService) UpdateEvent(ctx context.Context, term, session, eventID string, req CalendarEventRequest) (*models.SchoolCalendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	calendar, err := s.Get(ctx, term, session)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range calendar.Events {
		if calendar.Events[i].ID == eventID {
			updated := newCalendarEvent(req)
			updated.ID = eventID
			calendar.Events[i] = updated
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	expected := calendar.Version
	s.markEdited(calendar)
	calendar.Version++
	if err := s.applyUpdate(ctx, calendar, expected); err != nil {
		return nil, err
	}
	s.broadcast(ctx, calendar)
	return calendar, nil
}

// RemoveEvent deletes an event.
func (s *CalendarService) RemoveEvent(ctx context.Context, term, session, eventID string) (*models.SchoolCalendar, error) {
	calendar, err := s.Get(ctx, term, session)
	if err != nil {
		return nil, err
	}
	kept := make(models.CalendarEventList, 0, len(calendar.Events))
	found := false
	for _, event := range calendar.Events {
		if event.ID == eventID {
			found = true
			continue
		}
		kept = append(kept, event)
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	expected := calendar.Version
	calendar.Events = kept
	s.markEdited(calendar)
	calendar.Version++
	if err := s.applyUpdate(ctx, calendar, expected); err != nil {
		return nil, err
	}
	s.broadcast(ctx, calendar)
	return calendar, nil
}

// Rename changes the display title. A rename is an edit like any other,
// so renaming a published calendar flags it for republication.
func (s *CalendarService) Rename(ctx context.Context, req RenameCalendarRequest) (*models.SchoolCalendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}
	calendar, err := s.Get(ctx, req.Term, req.Session)
	if err != nil {
		return nil, err
	}
	expected := calendar.Version
	calendar.Title = strings.TrimSpace(req.Title)
	s.markEdited(calendar)
	calendar.Version++
	if err := s.applyUpdate(ctx, calendar, expected); err != nil {
		return nil, err
	}
	s.broadcast(ctx, calendar)
	return calendar, nil
}

// SubmitForApproval moves a draft or edited-published calendar into the
// review queue.
func (s *CalendarService) SubmitForApproval(ctx context.Context, req SubmitCalendarRequest) (*models.SchoolCalendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}
	calendar, err := s.Get(ctx, req.Term, req.Session)
	if err != nil {
		return nil, err
	}
	if err := calendarMachine.Assert(calendar.Status, models.CalendarStatusPendingApproval); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	from := calendar.Status
	expected := calendar.Version
	calendar.Status = models.CalendarStatusPendingApproval
	calendar.ApprovalNote = strings.TrimSpace(req.Note)
	calendar.SubmittedAt = &now
	calendar.Version++
	if err := s.applyUpdate(ctx, calendar, expected); err != nil {
		return nil, err
	}
	s.record(ctx, calendar, string(from), req.ActorID, req.ActorName, calendar.ApprovalNote)
	s.broadcast(ctx, calendar)
	return calendar, nil
}

// Approve accepts a pending calendar.
func (s *CalendarService) Approve(ctx context.Context, req CalendarActionRequest) (*models.SchoolCalendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approve payload")
	}
	calendar, err := s.Get(ctx, req.Term, req.Session)
	if err != nil {
		return nil, err
	}
	if err := calendarMachine.Assert(calendar.Status, models.CalendarStatusApproved); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	from := calendar.Status
	expected := calendar.Version
	calendar.Status = models.CalendarStatusApproved
	calendar.ApprovedBy = req.ActorID
	calendar.ApprovedAt = &now
	calendar.Version++
	if err := s.applyUpdate(ctx, calendar, expected); err != nil {
		return nil, err
	}
	s.record(ctx, calendar, string(from), req.ActorID, req.ActorName, "")
	s.broadcast(ctx, calendar)
	return calendar, nil
}

// Publish makes an approved calendar visible to the school community.
// Publishing from any other status is rejected, including a published
// calendar with pending edits: it must cycle through approval first.
func (s *CalendarService) Publish(ctx context.Context, req CalendarActionRequest) (*models.SchoolCalendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}
	calendar, err := s.Get(ctx, req.Term, req.Session)
	if err != nil {
		return nil, err
	}
	if err := calendarMachine.Assert(calendar.Status, models.CalendarStatusPublished); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	from := calendar.Status
	expected := calendar.Version
	calendar.Status = models.CalendarStatusPublished
	calendar.PublishedAt = &now
	calendar.RequiresRepublish = false
	calendar.Version++
	if err := s.applyUpdate(ctx, calendar, expected); err != nil {
		return nil, err
	}
	s.record(ctx, calendar, string(from), req.ActorID, req.ActorName, "")
	s.broadcast(ctx, calendar)
	return calendar, nil
}

// Trail returns the calendar's transition history.
func (s *CalendarService) Trail(ctx context.Context, term, session string) ([]models.WorkflowAudit, error) {
	calendar, err := s.Get(ctx, term, session)
	if err != nil {
		return nil, err
	}
	entries, err := s.trail.ListByRecord(ctx, models.WorkflowFlavorCalendar, calendar.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load workflow trail")
	}
	return entries, nil
}

func (s *CalendarService) markEdited(calendar *models.SchoolCalendar) {
	if calendar.Status == models.CalendarStatusPublished {
		calendar.RequiresRepublish = true
	}
}

func (s *CalendarService) applyUpdate(ctx context.Context, calendar *models.SchoolCalendar, expectedVersion int) error {
	if err := s.store.UpdateWithVersion(ctx, calendar, expectedVersion); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrStaleVersion.Code {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to update calendar")
	}
	return nil
}

func (s *CalendarService) record(ctx context.Context, calendar *models.SchoolCalendar, from, actorID, actorName, note string) {
	s.metrics.ObserveWorkflowTransition(string(models.WorkflowFlavorCalendar), from, string(calendar.Status))
	if s.trail == nil {
		return
	}
	entry := &models.WorkflowAudit{
		Flavor:     models.WorkflowFlavorCalendar,
		RecordID:   calendar.ID,
		FromStatus: from,
		ToStatus:   string(calendar.Status),
		ActorID:    actorID,
		ActorName:  actorName,
		Note:       note,
		Version:    calendar.Version,
	}
	if err := s.trail.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append workflow trail", zap.String("record_id", calendar.ID), zap.Error(err))
	}
}

func (s *CalendarService) broadcast(ctx context.Context, calendar *models.SchoolCalendar) {
	if err := s.broadcaster.Notify(ctx, events.EventCalendarChanged, calendar); err != nil {
		s.logger.Warn("failed to broadcast change", zap.Error(err))
	}
}

func newCalendarEvent(req CalendarEventRequest) models.CalendarEvent {
	return models.CalendarEvent{
		ID:        uuid.NewString(),
		Title:     req.Title,
		EventType: req.EventType,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Location:  req.Location,
	}
}
