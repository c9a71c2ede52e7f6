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

type mockReportCardStore struct {
	cards map[string]models.ReportCard
}

func (m *mockReportCardStore) GetByID(ctx context.Context, id string) (*models.ReportCard, error) {
	card, ok := m.cards[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := card
	return &copied, nil
}

func (m *mockReportCardStore) List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error) {
	var result []models.ReportCard
	for _, card := range m.cards {
		if filter.Status != "" && filter.Status != card.Status {
			continue
		}
		if filter.ClassName != "" && filter.ClassName != card.ClassName {
			continue
		}
		result = append(result, card)
	}
	return result, nil
}

func (m *mockReportCardStore) Insert(ctx context.Context, card *models.ReportCard) error {
	if m.cards == nil {
		m.cards = make(map[string]models.ReportCard)
	}
	m.cards[card.ID] = *card
	return nil
}

func (m *mockReportCardStore) UpdateWithVersion(ctx context.Context, card *models.ReportCard, expectedVersion int) error {
	stored, ok := m.cards[card.ID]
	if !ok || stored.Version != expectedVersion {
		return appErrors.Clone(appErrors.ErrStaleVersion, "report card version mismatch")
	}
	m.cards[card.ID] = *card
	return nil
}

type mockTrail struct {
	entries []models.WorkflowAudit
}

func (m *mockTrail) Append(ctx context.Context, entry *models.WorkflowAudit) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockTrail) ListByRecord(ctx context.Context, flavor models.WorkflowFlavor, recordID string) ([]models.WorkflowAudit, error) {
	var result []models.WorkflowAudit
	for _, entry := range m.entries {
		if entry.Flavor == flavor && entry.RecordID == recordID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

type mockResolver struct {
	recipients models.RecipientList
	err        error
}

func (m *mockResolver) Resolve(ctx context.Context, studentID string, prior models.RecipientList) (models.RecipientList, error) {
	return m.recipients, m.err
}

func newReportCardFixture(t *testing.T) (*ReportCardService, *mockReportCardStore, *mockTrail) {
	t.Helper()
	store := &mockReportCardStore{cards: make(map[string]models.ReportCard)}
	trail := &mockTrail{}
	students := &mockStudentReader{students: map[string]models.Student{
		"student-7": {ID: "student-7", FullName: "Adaeze Okafor", ClassName: "JSS2A"},
	}}
	resolver := &mockResolver{recipients: models.RecipientList{
		{ParentID: "parent-1", Name: "Mrs. Okafor", Email: "okafor@example.com"},
	}}
	svc := NewReportCardService(store, trail, students, resolver, nil, nil, nil, nil, nil, nil)
	return svc, store, trail
}

func testScope() models.ReportCardScope {
	return models.ReportCardScope{
		StudentID: "student-7",
		ClassName: "JSS2A",
		Subject:   "Mathematics",
		Term:      "First Term",
		Session:   "2025/2026",
	}
}

func TestReportCardSubmitCreatesPendingRecord(t *testing.T) {
	svc, store, trail := newReportCardFixture(t)
	ctx := context.Background()

	card, err := svc.Submit(ctx, SubmitReportCardRequest{
		Scope:      testScope(),
		AuthorID:   "teacher-3",
		AuthorName: "Mr. Bello",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportCardStatusPending, card.Status)
	assert.Equal(t, "Adaeze Okafor", card.StudentName)
	assert.NotNil(t, card.SubmittedAt)
	assert.Empty(t, card.Feedback)
	assert.Equal(t, 1, card.Version)

	stored, ok := store.cards[card.ID]
	require.True(t, ok)
	assert.Equal(t, models.ReportCardStatusPending, stored.Status)

	require.Len(t, trail.entries, 1)
	assert.Equal(t, string(models.ReportCardStatusDraft), trail.entries[0].FromStatus)
	assert.Equal(t, string(models.ReportCardStatusPending), trail.entries[0].ToStatus)
}

func TestReportCardSubmitUnknownStudent(t *testing.T) {
	svc, _, _ := newReportCardFixture(t)
	scope := testScope()
	scope.StudentID = "student-404"

	_, err := svc.Submit(context.Background(), SubmitReportCardRequest{
		Scope:      scope,
		AuthorID:   "teacher-3",
		AuthorName: "Mr. Bello",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportCardSubmitWhilePendingRejected(t *testing.T) {
	svc, _, _ := newReportCardFixture(t)
	ctx := context.Background()
	req := SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"}

	_, err := svc.Submit(ctx, req)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestReportCardApprovePublishesToResolvedRecipients(t *testing.T) {
	svc, _, _ := newReportCardFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)

	card, err := svc.ApproveAndPublish(ctx, ApproveReportCardRequest{
		Scope:     testScope(),
		AdminID:   "admin-1",
		AdminName: "Principal Musa",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportCardStatusApproved, card.Status)
	assert.NotNil(t, card.ApprovedAt)
	require.Len(t, card.PublishedTo, 1)
	assert.Equal(t, "parent-1", card.PublishedTo[0].ParentID)
	assert.False(t, card.RequiresRepublish)
	assert.Equal(t, 2, card.Version)
}

func TestReportCardApproveExplicitRecipientsOverrideResolution(t *testing.T) {
	svc, _, _ := newReportCardFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)

	card, err := svc.ApproveAndPublish(ctx, ApproveReportCardRequest{
		Scope:     testScope(),
		AdminID:   "admin-1",
		AdminName: "Principal Musa",
		Recipients: models.RecipientList{
			{ParentID: "parent-9", Name: "Mr. Ade", Email: "ade@example.com"},
		},
	})
	require.NoError(t, err)
	require.Len(t, card.PublishedTo, 1)
	assert.Equal(t, "parent-9", card.PublishedTo[0].ParentID)
}

func TestReportCardApproveRejectsEmptyAudience(t *testing.T) {
	store := &mockReportCardStore{cards: make(map[string]models.ReportCard)}
	students := &mockStudentReader{students: map[string]models.Student{
		"student-7": {ID: "student-7", FullName: "Adaeze Okafor"},
	}}
	svc := NewReportCardService(store, &mockTrail{}, students, &mockResolver{}, nil, nil, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)

	_, err = svc.ApproveAndPublish(ctx, ApproveReportCardRequest{
		Scope:     testScope(),
		AdminID:   "admin-1",
		AdminName: "Principal Musa",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrRecipientsRequired.Code, appErr.Code)
}

func TestReportCardRevokeRequiresFeedback(t *testing.T) {
	svc, _, _ := newReportCardFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)

	_, err = svc.Revoke(ctx, RevokeReportCardRequest{
		Scope:     testScope(),
		AdminID:   "admin-1",
		AdminName: "Principal Musa",
		Feedback:  "   ",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrFeedbackRequired.Code, appErr.Code)
}

func TestReportCardRevokeClearsAudienceAndStoresFeedback(t *testing.T) {
	svc, _, trail := newReportCardFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)
	_, err = svc.ApproveAndPublish(ctx, ApproveReportCardRequest{Scope: testScope(), AdminID: "admin-1", AdminName: "Principal Musa"})
	require.NoError(t, err)

	card, err := svc.Revoke(ctx, RevokeReportCardRequest{
		Scope:     testScope(),
		AdminID:   "admin-1",
		AdminName: "Principal Musa",
		Feedback:  "Fix math total",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportCardStatusRevoked, card.Status)
	assert.Equal(t, "Fix math total", card.Feedback)
	assert.Empty(t, card.PublishedTo)
	assert.Equal(t, 3, card.Version)

	require.Len(t, trail.entries, 3)
	assert.Equal(t, "Fix math total", trail.entries[2].Note)
}

func TestReportCardResubmitAfterRevokeClearsFeedback(t *testing.T) {
	svc, _, _ := newReportCardFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)
	_, err = svc.Revoke(ctx, RevokeReportCardRequest{Scope: testScope(), AdminID: "admin-1", AdminName: "Principal Musa", Feedback: "Fix math total"})
	require.NoError(t, err)

	card, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportCardStatusPending, card.Status)
	assert.Empty(t, card.Feedback)
	assert.Equal(t, 3, card.Version)
}

func TestReportCardMarkEditedFlagsApprovedOnly(t *testing.T) {
	svc, _, _ := newReportCardFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)

	card, err := svc.MarkEdited(ctx, testScope(), "teacher-3", "Mr. Bello")
	require.NoError(t, err)
	assert.False(t, card.RequiresRepublish)

	_, err = svc.ApproveAndPublish(ctx, ApproveReportCardRequest{Scope: testScope(), AdminID: "admin-1", AdminName: "Principal Musa"})
	require.NoError(t, err)

	card, err = svc.MarkEdited(ctx, testScope(), "teacher-3", "Mr. Bello")
	require.NoError(t, err)
	assert.True(t, card.RequiresRepublish)

	card, err = svc.ApproveAndPublish(ctx, ApproveReportCardRequest{Scope: testScope(), AdminID: "admin-1", AdminName: "Principal Musa"})
	require.NoError(t, err)
	assert.False(t, card.RequiresRepublish)
}

func TestReportCardListOmitsDraftsByDefault(t *testing.T) {
	svc, store, _ := newReportCardFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)
	store.cards["draft-1"] = models.ReportCard{ID: "draft-1", Status: models.ReportCardStatusDraft}

	cards, err := svc.List(ctx, models.ReportCardFilter{})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, models.ReportCardStatusPending, cards[0].Status)

	drafts, err := svc.List(ctx, models.ReportCardFilter{Status: models.ReportCardStatusDraft})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
}

func TestReportCardStaleVersionSurfaces(t *testing.T) {
	svc, store, _ := newReportCardFixture(t)
	ctx := context.Background()

	card, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)

	stored := store.cards[card.ID]
	stored.Version = 5
	store.cards[card.ID] = stored

	_, err = svc.Revoke(ctx, RevokeReportCardRequest{Scope: testScope(), AdminID: "admin-1", AdminName: "Principal Musa", Feedback: "stale"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrStaleVersion.Code, appErr.Code)
}

func TestReportCardTrailOrderedByTransition(t *testing.T) {
	svc, _, _ := newReportCardFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitReportCardRequest{Scope: testScope(), AuthorID: "teacher-3", AuthorName: "Mr. Bello"})
	require.NoError(t, err)
	_, err = svc.ApproveAndPublish(ctx, ApproveReportCardRequest{Scope: testScope(), AdminID: "admin-1", AdminName: "Principal Musa"})
	require.NoError(t, err)
	_, err = svc.Revoke(ctx, RevokeReportCardRequest{Scope: testScope(), AdminID: "admin-1", AdminName: "Principal Musa", Feedback: "Fix math total"})
	require.NoError(t, err)

	entries, err := svc.Trail(ctx, testScope())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, string(models.ReportCardStatusPending), entries[0].ToStatus)
	assert.Equal(t, string(models.ReportCardStatusApproved), entries[1].ToStatus)
	assert.Equal(t, string(models.ReportCardStatusRevoked), entries[2].ToStatus)
}
