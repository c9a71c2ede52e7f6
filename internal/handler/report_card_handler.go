package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edubridge-ng/portal-api/internal/models"
	"github.com/edubridge-ng/portal-api/internal/service"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
	"github.com/edubridge-ng/portal-api/pkg/response"
)

type reportCardService interface {
	Submit(ctx context.Context, req service.SubmitReportCardRequest) (*models.ReportCard, error)
	ApproveAndPublish(ctx context.Context, req service.ApproveReportCardRequest) (*models.ReportCard, error)
	Revoke(ctx context.Context, req service.RevokeReportCardRequest) (*models.ReportCard, error)
	MarkEdited(ctx context.Context, scope models.ReportCardScope, actorID, actorName string) (*models.ReportCard, error)
	List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error)
	Get(ctx context.Context, scope models.ReportCardScope) (*models.ReportCard, error)
	Trail(ctx context.Context, scope models.ReportCardScope) ([]models.WorkflowAudit, error)
}

type reportCardExporter interface {
	ReportCardPDF(ctx context.Context, scope models.ReportCardScope) ([]byte, string, error)
}

// ReportCardHandler exposes REST endpoints for the report-card workflow.
type ReportCardHandler struct {
	service  reportCardService
	exporter reportCardExporter
}

// NewReportCardHandler constructs the handler.
func NewReportCardHandler(service reportCardService, exporter reportCardExporter) *ReportCardHandler {
	return &ReportCardHandler{service: service, exporter: exporter}
}

type reportCardScopePayload struct {
	StudentID string `json:"student_id" binding:"required"`
	ClassName string `json:"class_name" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
	Term      string `json:"term" binding:"required"`
	Session   string `json:"session" binding:"required"`
}

func (p reportCardScopePayload) scope() models.ReportCardScope {
	return models.ReportCardScope{
		StudentID: p.StudentID,
		ClassName: p.ClassName,
		Subject:   p.Subject,
		Term:      p.Term,
		Session:   p.Session,
	}
}

type submitReportCardPayload struct {
	reportCardScopePayload
}

type approveReportCardPayload struct {
	reportCardScopePayload
	Recipients models.RecipientList `json:"recipients"`
}

type revokeReportCardPayload struct {
	reportCardScopePayload
	Feedback string `json:"feedback"`
}

// Submit godoc
// @Summary Submit a report card for review
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body submitReportCardPayload true "Report card scope"
// @Success 200 {object} response.Envelope
// @Router /report-cards/submit [post]
func (h *ReportCardHandler) Submit(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report card service not configured"))
		return
	}
	var payload submitReportCardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submit payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	card, err := h.service.Submit(c.Request.Context(), service.SubmitReportCardRequest{
		Scope:      payload.scope(),
		AuthorID:   claims.UserID,
		AuthorName: claims.FullName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// Approve godoc
// @Summary Approve and publish a pending report card
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body approveReportCardPayload true "Report card scope and optional recipients"
// @Success 200 {object} response.Envelope
// @Router /report-cards/approve [post]
func (h *ReportCardHandler) Approve(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report card service not configured"))
		return
	}
	var payload approveReportCardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approve payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	card, err := h.service.ApproveAndPublish(c.Request.Context(), service.ApproveReportCardRequest{
		Scope:      payload.scope(),
		AdminID:    claims.UserID,
		AdminName:  claims.FullName,
		Recipients: payload.Recipients,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// Revoke godoc
// @Summary Revoke a pending or approved report card
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body revokeReportCardPayload true "Report card scope and feedback"
// @Success 200 {object} response.Envelope
// @Router /report-cards/revoke [post]
func (h *ReportCardHandler) Revoke(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report card service not configured"))
		return
	}
	var payload revokeReportCardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid revoke payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	card, err := h.service.Revoke(c.Request.Context(), service.RevokeReportCardRequest{
		Scope:     payload.scope(),
		AdminID:   claims.UserID,
		AdminName: claims.FullName,
		Feedback:  payload.Feedback,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// MarkEdited godoc
// @Summary Flag an approved report card whose content changed
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body submitReportCardPayload true "Report card scope"
// @Success 200 {object} response.Envelope
// @Router /report-cards/mark-edited [post]
func (h *ReportCardHandler) MarkEdited(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report card service not configured"))
		return
	}
	var payload submitReportCardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	card, err := h.service.MarkEdited(c.Request.Context(), payload.scope(), claims.UserID, claims.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// List godoc
// @Summary List report cards for the administrative queue
// @Tags ReportCards
// @Produce json
// @Param status query string false "Status filter"
// @Param class_name query string false "Class filter"
// @Param student_id query string false "Student filter"
// @Param term query string false "Term filter"
// @Param session query string false "Session filter"
// @Success 200 {object} response.Envelope
// @Router /report-cards [get]
func (h *ReportCardHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report card service not configured"))
		return
	}
	filter := models.ReportCardFilter{
		ClassName: strings.TrimSpace(c.Query("class_name")),
		StudentID: strings.TrimSpace(c.Query("student_id")),
		Term:      strings.TrimSpace(c.Query("term")),
		Session:   strings.TrimSpace(c.Query("session")),
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = models.ReportCardStatus(strings.ToUpper(strings.TrimSpace(raw)))
	}
	cards, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards, nil)
}

// Get godoc
// @Summary Get one report card by scope
// @Tags ReportCards
// @Produce json
// @Param student_id query string true "Student ID"
// @Param class_name query string true "Class name"
// @Param subject query string true "Subject"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /report-cards/detail [get]
func (h *ReportCardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report card service not configured"))
		return
	}
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	card, err := h.service.Get(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// Trail godoc
// @Summary Get a report card's transition history
// @Tags ReportCards
// @Produce json
// @Param student_id query string true "Student ID"
// @Param class_name query string true "Class name"
// @Param subject query string true "Subject"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /report-cards/trail [get]
func (h *ReportCardHandler) Trail(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report card service not configured"))
		return
	}
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.Trail(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Download an approved report card as PDF
// @Tags ReportCards
// @Produce application/pdf
// @Param student_id query string true "Student ID"
// @Param class_name query string true "Class name"
// @Param subject query string true "Subject"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {file} binary
// @Router /report-cards/export [get]
func (h *ReportCardHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, filename, err := h.exporter.ReportCardPDF(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}

func scopeFromQuery(c *gin.Context) (models.ReportCardScope, error) {
	scope := models.ReportCardScope{
		StudentID: strings.TrimSpace(c.Query("student_id")),
		ClassName: strings.TrimSpace(c.Query("class_name")),
		Subject:   strings.TrimSpace(c.Query("subject")),
		Term:      strings.TrimSpace(c.Query("term")),
		Session:   strings.TrimSpace(c.Query("session")),
	}
	if scope.StudentID == "" || scope.ClassName == "" || scope.Subject == "" || scope.Term == "" || scope.Session == "" {
		return scope, appErrors.Clone(appErrors.ErrValidation, "student_id, class_name, subject, term and session are required")
	}
	return scope, nil
}
