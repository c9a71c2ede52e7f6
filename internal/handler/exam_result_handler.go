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

type examResultService interface {
	SaveResults(ctx context.Context, req service.SaveResultsRequest) ([]models.ExamResult, error)
	PublishAll(ctx context.Context, examID string) ([]models.ExamResult, error)
	Withhold(ctx context.Context, req service.WithholdResultRequest) (*models.ExamResult, error)
	List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error)
}

type examResultExporter interface {
	ExamResultsCSV(ctx context.Context, examID string) ([]byte, string, error)
}

// ExamResultHandler exposes REST endpoints for exam result publication.
type ExamResultHandler struct {
	service  examResultService
	exporter examResultExporter
}

// NewExamResultHandler constructs the handler.
func NewExamResultHandler(service examResultService, exporter examResultExporter) *ExamResultHandler {
	return &ExamResultHandler{service: service, exporter: exporter}
}

// Save godoc
// @Summary Upload a batch of scored rows
// @Tags ExamResults
// @Accept json
// @Produce json
// @Param payload body service.SaveResultsRequest true "Scored rows"
// @Success 201 {object} response.Envelope
// @Router /exam-results [post]
func (h *ExamResultHandler) Save(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exam result service not configured"))
		return
	}
	var payload service.SaveResultsRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid results payload"))
		return
	}
	results, err := h.service.SaveResults(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, results, nil)
}

// List godoc
// @Summary List result rows for an exam
// @Tags ExamResults
// @Produce json
// @Param exam_id query string true "Exam ID"
// @Param student_id query string false "Student filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /exam-results [get]
func (h *ExamResultHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exam result service not configured"))
		return
	}
	filter := models.ExamResultFilter{
		ExamID:    strings.TrimSpace(c.Query("exam_id")),
		StudentID: strings.TrimSpace(c.Query("student_id")),
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = models.ExamResultStatus(strings.ToUpper(strings.TrimSpace(raw)))
	}
	results, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// PublishAll godoc
// @Summary Release every pending row for an exam
// @Tags ExamResults
// @Produce json
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exam-results/{exam_id}/publish [post]
func (h *ExamResultHandler) PublishAll(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exam result service not configured"))
		return
	}
	results, err := h.service.PublishAll(c.Request.Context(), c.Param("exam_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Withhold godoc
// @Summary Withhold a single pending row
// @Tags ExamResults
// @Accept json
// @Produce json
// @Param payload body service.WithholdResultRequest true "Row identity and note"
// @Success 200 {object} response.Envelope
// @Router /exam-results/withhold [post]
func (h *ExamResultHandler) Withhold(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exam result service not configured"))
		return
	}
	var payload service.WithholdResultRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid withhold payload"))
		return
	}
	row, err := h.service.Withhold(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Export godoc
// @Summary Download exam results as CSV
// @Tags ExamResults
// @Produce text/csv
// @Param exam_id path string true "Exam ID"
// @Success 200 {file} binary
// @Router /exam-results/{exam_id}/export [get]
func (h *ExamResultHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	data, filename, err := h.exporter.ExamResultsCSV(c.Request.Context(), c.Param("exam_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}
