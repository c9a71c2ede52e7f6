package handler

import (
	"context"
	"strings"

	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edubridge-ng/portal-api/internal/models"
	"github.com/edubridge-ng/portal-api/internal/service"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
	"github.com/edubridge-ng/portal-api/pkg/response"
)

type calendarService interface {
	Get(ctx context.Context, term, session string) (*models.SchoolCalendar, error)
	AddEvent(ctx context.Context, term, session string, req service.CalendarEventRequest) (*models.SchoolCalendar, error)
	UpdateEvent(ctx context.Context, term, session, eventID string, req service.CalendarEventRequest) (*models.SchoolCalendar, error)
	RemoveEvent(ctx context.Context, term, session, eventID string) (*models.SchoolCalendar, error)
	Rename(ctx context.Context, req service.RenameCalendarRequest) (*models.SchoolCalendar, error)
	SubmitForApproval(ctx context.Context, req service.SubmitCalendarRequest) (*models.SchoolCalendar, error)
	Approve(ctx context.Context, req service.CalendarActionRequest) (*models.SchoolCalendar, error)
	Publish(ctx context.Context, req service.CalendarActionRequest) (*models.SchoolCalendar, error)
	Trail(ctx context.Context, term, session string) ([]models.WorkflowAudit, error)
}

// CalendarHandler exposes REST endpoints for the school calendar workflow.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

type submitCalendarPayload struct {
	Note string `json:"note"`
}

func calendarTermSession(c *gin.Context) (string, string, error) {
	term := strings.TrimSpace(c.Query("term"))
	session := strings.TrimSpace(c.Query("session"))
	if term == "" || session == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "term and session are required")
	}
	return term, session, nil
}

// Get godoc
// @Summary Get the calendar for a term
// @Tags Calendar
// @Produce json
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "calendar service not configured"))
		return
	}
	term, session, err := calendarTermSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	calendar, err := h.service.Get(c.Request.Context(), term, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// AddEvent godoc
// @Summary Add an event to the calendar
// @Tags Calendar
// @Accept json
// @Produce json
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Param payload body service.CalendarEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /calendar/events [post]
func (h *CalendarHandler) AddEvent(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "calendar service not configured"))
		return
	}
	term, session, err := calendarTermSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload service.CalendarEventRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event payload"))
		return
	}
	calendar, err := h.service.AddEvent(c.Request.Context(), term, session, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, calendar, nil)
}

// UpdateEvent godoc
// @Summary Update a calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Param payload body service.CalendarEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /calendar/events/{id} [put]
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "calendar service not configured"))
		return
	}
	term, session, err := calendarTermSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload service.CalendarEventRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event payload"))
		return
	}
	calendar, err := h.service.UpdateEvent(c.Request.Context(), term, session, c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// RemoveEvent godoc
// @Summary Remove a calendar event
// @Tags Calendar
// @Produce json
// @Param id path string true "Event ID"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /calendar/events/{id} [delete]
func (h *CalendarHandler) RemoveEvent(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "calendar service not configured"))
		return
	}
	term, session, err := calendarTermSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	calendar, err := h.service.RemoveEvent(c.Request.Context(), term, session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

type renameCalendarPayload struct {
	Title string `json:"title"`
}

// Rename godoc
// @Summary Rename the calendar
// @Tags Calendar
// @Accept json
// @Produce json
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Param payload body renameCalendarPayload true "New title"
// @Success 200 {object} response.Envelope
// @Router /calendar/title [put]
func (h *CalendarHandler) Rename(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "calendar service not configured"))
		return
	}
	term, session, err := calendarTermSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload renameCalendarPayload
	if !bindJSON(c, &payload) {
		return
	}
	calendar, err := h.service.Rename(c.Request.Context(), service.RenameCalendarRequest{
		Term:    term,
		Session: session,
		Title:   payload.Title,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// Submit godoc
// @Summary Submit the calendar for approval
// @Tags Calendar
// @Accept json
// @Produce json
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Param payload body submitCalendarPayload false "Optional note"
// @Success 200 {object} response.Envelope
// @Router /calendar/submit [post]
func (h *CalendarHandler) Submit(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "calendar service not configured"))
		return
	}
	term, session, err := calendarTermSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload submitCalendarPayload
	_ = c.ShouldBindJSON(&payload)
	calendar, err := h.service.SubmitForApproval(c.Request.Context(), service.SubmitCalendarRequest{
		Term:      term,
		Session:   session,
		Note:      payload.Note,
		ActorID:   claims.UserID,
		ActorName: claims.FullName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// Approve godoc
// @Summary Approve a pending calendar
// @Tags Calendar
// @Produce json
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /calendar/approve [post]
func (h *CalendarHandler) Approve(c *gin.Context) {
	h.act(c, func(ctx context.Context, req service.CalendarActionRequest) (*models.SchoolCalendar, error) {
		return h.service.Approve(ctx, req)
	})
}

// Publish godoc
// @Summary Publish an approved calendar
// @Tags Calendar
// @Produce json
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /calendar/publish [post]
func (h *CalendarHandler) Publish(c *gin.Context) {
	h.act(c, func(ctx context.Context, req service.CalendarActionRequest) (*models.SchoolCalendar, error) {
		return h.service.Publish(ctx, req)
	})
}

// Trail godoc
// @Summary Get the calendar's transition history
// @Tags Calendar
// @Produce json
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /calendar/trail [get]
func (h *CalendarHandler) Trail(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "calendar service not configured"))
		return
	}
	term, session, err := calendarTermSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.Trail(c.Request.Context(), term, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func (h *CalendarHandler) act(c *gin.Context, fn func(ctx context.Context, req service.CalendarActionRequest) (*models.SchoolCalendar, error)) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "calendar service not configured"))
		return
	}
	term, session, err := calendarTermSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	calendar, err := fn(c.Request.Context(), service.CalendarActionRequest{
		Term:      term,
		Session:   session,
		ActorID:   claims.UserID,
		ActorName: claims.FullName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}
