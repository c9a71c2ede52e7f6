package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

type mockCalendarStore struct {
	calendars map[string]models.SchoolCalendar
}

func calendarKey(term, session string) string { return term + "|" + session }

func (m *mockCalendarStore) FindByTermSession(ctx context.Context, term, session string) (*models.SchoolCalendar, error) {
	calendar, ok := m.calendars[calendarKey(term, session)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := calendar
	return &copied, nil
}

func (m *mockCalendarStore) Insert(ctx context.Context, calendar *models.SchoolCalendar) error {
	if m.calendars == nil {
		m.calendars = make(map[string]models.SchoolCalendar)
	}
	if calendar.ID == "" {
		calendar.ID = uuid.NewString()
	}
	m.calendars[calendarKey(calendar.Term, calendar.Session)] = *calendar
	return nil
}

func (m *mockCalendarStore) UpdateWithVersion(ctx context.Context, calendar *models.SchoolCalendar, expectedVersion int) error {
	key := calendarKey(calendar.Term, calendar.Session)
	stored, ok := m.calendars[key]
	if !ok || stored.Version != expectedVersion {
		return appErrors.Clone(appErrors.ErrStaleVersion, "calendar version mismatch")
	}
	m.calendars[key] = *calendar
	return nil
}

func newCalendarFixture(t *testing.T) (*CalendarService, *mockCalendarStore, *mockTrail) {
	t.Helper()
	store := &mockCalendarStore{calendars: make(map[string]models.SchoolCalendar)}
	trail := &mockTrail{}
	return NewCalendarService(store, trail, nil, nil, nil, nil), store, trail
}

func midtermEvent() CalendarEventRequest {
	return CalendarEventRequest{
		Title:     "Midterm Break",
		EventType: "holiday",
		StartDate: time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 10, 24, 0, 0, 0, 0, time.UTC),
		Location:  "School-wide",
	}
}

func calendarAction() CalendarActionRequest {
	return CalendarActionRequest{Term: "First Term", Session: "2025/2026", ActorID: "admin-1", ActorName: "Principal Musa"}
}

func TestCalendarAddEventCreatesDraft(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)

	calendar, err := svc.AddEvent(context.Background(), "First Term", "2025/2026", midtermEvent())
	require.NoError(t, err)
	assert.Equal(t, models.CalendarStatusDraft, calendar.Status)
	assert.Equal(t, "First Term 2025/2026", calendar.Title)
	require.Len(t, calendar.Events, 1)
	assert.NotEmpty(t, calendar.Events[0].ID)
	assert.False(t, calendar.RequiresRepublish)
}

func TestCalendarAddEventRejectsInvertedDates(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)

	event := midtermEvent()
	event.EndDate = event.StartDate.AddDate(0, 0, -1)
	_, err := svc.AddEvent(context.Background(), "First Term", "2025/2026", event)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCalendarFullApprovalCycle(t *testing.T) {
	svc, _, trail := newCalendarFixture(t)
	ctx := context.Background()

	_, err := svc.AddEvent(ctx, "First Term", "2025/2026", midtermEvent())
	require.NoError(t, err)

	calendar, err := svc.SubmitForApproval(ctx, SubmitCalendarRequest{
		Term: "First Term", Session: "2025/2026",
		Note:    "ready for review",
		ActorID: "teacher-3", ActorName: "Mr. Bello",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CalendarStatusPendingApproval, calendar.Status)
	assert.Equal(t, "ready for review", calendar.ApprovalNote)
	assert.NotNil(t, calendar.SubmittedAt)

	calendar, err = svc.Approve(ctx, calendarAction())
	require.NoError(t, err)
	assert.Equal(t, models.CalendarStatusApproved, calendar.Status)
	assert.Equal(t, "admin-1", calendar.ApprovedBy)
	assert.NotNil(t, calendar.ApprovedAt)

	calendar, err = svc.Publish(ctx, calendarAction())
	require.NoError(t, err)
	assert.Equal(t, models.CalendarStatusPublished, calendar.Status)
	assert.NotNil(t, calendar.PublishedAt)

	require.Len(t, trail.entries, 3)
	assert.Equal(t, string(models.CalendarStatusPublished), trail.entries[2].ToStatus)
}

func TestCalendarPublishBeforeApprovalRejected(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)
	ctx := context.Background()

	_, err := svc.AddEvent(ctx, "First Term", "2025/2026", midtermEvent())
	require.NoError(t, err)

	_, err = svc.Publish(ctx, calendarAction())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestCalendarEditAfterPublishRequiresRepublish(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)
	ctx := context.Background()

	_, err := svc.AddEvent(ctx, "First Term", "2025/2026", midtermEvent())
	require.NoError(t, err)
	_, err = svc.SubmitForApproval(ctx, SubmitCalendarRequest{Term: "First Term", Session: "2025/2026", ActorID: "teacher-3", ActorName: "Mr. Bello"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, calendarAction())
	require.NoError(t, err)
	_, err = svc.Publish(ctx, calendarAction())
	require.NoError(t, err)

	resumption := midtermEvent()
	resumption.Title = "Resumption"
	calendar, err := svc.AddEvent(ctx, "First Term", "2025/2026", resumption)
	require.NoError(t, err)
	assert.Equal(t, models.CalendarStatusPublished, calendar.Status)
	assert.True(t, calendar.RequiresRepublish)

	// the stale publish must cycle through approval again
	_, err = svc.Publish(ctx, calendarAction())
	require.Error(t, err)

	_, err = svc.SubmitForApproval(ctx, SubmitCalendarRequest{Term: "First Term", Session: "2025/2026", ActorID: "teacher-3", ActorName: "Mr. Bello"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, calendarAction())
	require.NoError(t, err)
	calendar, err = svc.Publish(ctx, calendarAction())
	require.NoError(t, err)
	assert.False(t, calendar.RequiresRepublish)
}

func TestCalendarEditBeforeApprovalSetsNoFlag(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)
	ctx := context.Background()

	calendar, err := svc.AddEvent(ctx, "First Term", "2025/2026", midtermEvent())
	require.NoError(t, err)

	updated := midtermEvent()
	updated.Title = "Extended Midterm Break"
	calendar, err = svc.UpdateEvent(ctx, "First Term", "2025/2026", calendar.Events[0].ID, updated)
	require.NoError(t, err)
	assert.False(t, calendar.RequiresRepublish)
	assert.Equal(t, "Extended Midterm Break", calendar.Events[0].Title)
}

func TestCalendarRenameAfterPublishRequiresRepublish(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)
	ctx := context.Background()

	_, err := svc.AddEvent(ctx, "First Term", "2025/2026", midtermEvent())
	require.NoError(t, err)
	_, err = svc.SubmitForApproval(ctx, SubmitCalendarRequest{Term: "First Term", Session: "2025/2026", ActorID: "teacher-3", ActorName: "Mr. Bello"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, calendarAction())
	require.NoError(t, err)
	_, err = svc.Publish(ctx, calendarAction())
	require.NoError(t, err)

	calendar, err := svc.Rename(ctx, RenameCalendarRequest{Term: "First Term", Session: "2025/2026", Title: " First Term 2025/2026 (Revised) "})
	require.NoError(t, err)
	assert.Equal(t, "First Term 2025/2026 (Revised)", calendar.Title)
	assert.Equal(t, models.CalendarStatusPublished, calendar.Status)
	assert.True(t, calendar.RequiresRepublish)
}

func TestCalendarRenameBeforeApprovalSetsNoFlag(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)
	ctx := context.Background()

	_, err := svc.AddEvent(ctx, "First Term", "2025/2026", midtermEvent())
	require.NoError(t, err)

	calendar, err := svc.Rename(ctx, RenameCalendarRequest{Term: "First Term", Session: "2025/2026", Title: "Harmattan Term 2025/2026"})
	require.NoError(t, err)
	assert.Equal(t, "Harmattan Term 2025/2026", calendar.Title)
	assert.False(t, calendar.RequiresRepublish)
}

func TestCalendarRemoveEvent(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)
	ctx := context.Background()

	calendar, err := svc.AddEvent(ctx, "First Term", "2025/2026", midtermEvent())
	require.NoError(t, err)

	calendar, err = svc.RemoveEvent(ctx, "First Term", "2025/2026", calendar.Events[0].ID)
	require.NoError(t, err)
	assert.Empty(t, calendar.Events)

	_, err = svc.RemoveEvent(ctx, "First Term", "2025/2026", "missing-event")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
