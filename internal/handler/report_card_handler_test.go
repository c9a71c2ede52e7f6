package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge-ng/portal-api/internal/middleware"
	"github.com/edubridge-ng/portal-api/internal/models"
	"github.com/edubridge-ng/portal-api/internal/service"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
	"github.com/edubridge-ng/portal-api/pkg/response"
)

type reportCardServiceMock struct {
	submitReq  *service.SubmitReportCardRequest
	submitErr  error
	approveReq *service.ApproveReportCardRequest
	approveErr error
	revokeReq  *service.RevokeReportCardRequest
	revokeErr  error
	card       *models.ReportCard
}

func (m *reportCardServiceMock) Submit(ctx context.Context, req service.SubmitReportCardRequest) (*models.ReportCard, error) {
	m.submitReq = &req
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.card, nil
}

func (m *reportCardServiceMock) ApproveAndPublish(ctx context.Context, req service.ApproveReportCardRequest) (*models.ReportCard, error) {
	m.approveReq = &req
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	return m.card, nil
}

func (m *reportCardServiceMock) Revoke(ctx context.Context, req service.RevokeReportCardRequest) (*models.ReportCard, error) {
	m.revokeReq = &req
	if m.revokeErr != nil {
		return nil, m.revokeErr
	}
	return m.card, nil
}

func (m *reportCardServiceMock) MarkEdited(ctx context.Context, scope models.ReportCardScope, actorID, actorName string) (*models.ReportCard, error) {
	return m.card, nil
}

func (m *reportCardServiceMock) List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error) {
	if m.card == nil {
		return nil, nil
	}
	return []models.ReportCard{*m.card}, nil
}

func (m *reportCardServiceMock) Get(ctx context.Context, scope models.ReportCardScope) (*models.ReportCard, error) {
	return m.card, nil
}

func (m *reportCardServiceMock) Trail(ctx context.Context, scope models.ReportCardScope) ([]models.WorkflowAudit, error) {
	return nil, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, FullName: "Principal Musa"}
}

func scopePayload() reportCardScopePayload {
	return reportCardScopePayload{
		StudentID: "student-7",
		ClassName: "JSS2A",
		Subject:   "Mathematics",
		Term:      "First Term",
		Session:   "2025/2026",
	}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestReportCardHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportCardServiceMock{card: &models.ReportCard{Status: models.ReportCardStatusPending}}
	h := NewReportCardHandler(mockSvc, nil)

	payload, _ := json.Marshal(submitReportCardPayload{reportCardScopePayload: scopePayload()})
	c, w := newGinContext(http.MethodPost, "/report-cards/submit", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-3", Role: models.RoleTeacher, FullName: "Mr. Bello"})

	h.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.submitReq)
	assert.Equal(t, "student-7", mockSvc.submitReq.Scope.StudentID)
	assert.Equal(t, "teacher-3", mockSvc.submitReq.AuthorID)
	assert.Equal(t, "Mr. Bello", mockSvc.submitReq.AuthorName)
}

func TestReportCardHandlerSubmitWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportCardServiceMock{}
	h := NewReportCardHandler(mockSvc, nil)

	payload, _ := json.Marshal(submitReportCardPayload{reportCardScopePayload: scopePayload()})
	c, w := newGinContext(http.MethodPost, "/report-cards/submit", payload)

	h.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, mockSvc.submitReq)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, envelope.Error.Code)
}

func TestReportCardHandlerSubmitRejectsIncompleteScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportCardServiceMock{}
	h := NewReportCardHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodPost, "/report-cards/submit", []byte(`{"student_id":"student-7"}`))
	c.Set(middleware.ContextUserKey, adminClaims())

	h.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mockSvc.submitReq)
}

func TestReportCardHandlerApprovePassesRecipients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportCardServiceMock{card: &models.ReportCard{Status: models.ReportCardStatusApproved}}
	h := NewReportCardHandler(mockSvc, nil)

	payload, _ := json.Marshal(approveReportCardPayload{
		reportCardScopePayload: scopePayload(),
		Recipients:             models.RecipientList{{ParentID: "parent-2", Name: "Mrs. Okafor"}},
	})
	c, w := newGinContext(http.MethodPost, "/report-cards/approve", payload)
	c.Set(middleware.ContextUserKey, adminClaims())

	h.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.approveReq)
	assert.Equal(t, "admin-1", mockSvc.approveReq.AdminID)
	require.Len(t, mockSvc.approveReq.Recipients, 1)
	assert.Equal(t, "parent-2", mockSvc.approveReq.Recipients[0].ParentID)
}

func TestReportCardHandlerApproveMapsServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportCardServiceMock{approveErr: appErrors.ErrInvalidTransition}
	h := NewReportCardHandler(mockSvc, nil)

	payload, _ := json.Marshal(approveReportCardPayload{reportCardScopePayload: scopePayload()})
	c, w := newGinContext(http.MethodPost, "/report-cards/approve", payload)
	c.Set(middleware.ContextUserKey, adminClaims())

	h.Approve(c)
	require.Equal(t, http.StatusConflict, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, envelope.Error.Code)
}

func TestReportCardHandlerRevokePassesFeedback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportCardServiceMock{card: &models.ReportCard{Status: models.ReportCardStatusRevoked}}
	h := NewReportCardHandler(mockSvc, nil)

	payload, _ := json.Marshal(revokeReportCardPayload{
		reportCardScopePayload: scopePayload(),
		Feedback:               "CA2 scores missing for three students",
	})
	c, w := newGinContext(http.MethodPost, "/report-cards/revoke", payload)
	c.Set(middleware.ContextUserKey, adminClaims())

	h.Revoke(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.revokeReq)
	assert.Equal(t, "CA2 scores missing for three students", mockSvc.revokeReq.Feedback)
}

func TestReportCardHandlerRevokeMapsFeedbackRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportCardServiceMock{revokeErr: appErrors.ErrFeedbackRequired}
	h := NewReportCardHandler(mockSvc, nil)

	payload, _ := json.Marshal(revokeReportCardPayload{reportCardScopePayload: scopePayload()})
	c, w := newGinContext(http.MethodPost, "/report-cards/revoke", payload)
	c.Set(middleware.ContextUserKey, adminClaims())

	h.Revoke(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrFeedbackRequired.Code, envelope.Error.Code)
}
