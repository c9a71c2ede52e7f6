package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge-ng/portal-api/internal/models"
)

type mockParentDirectory struct {
	accounts []models.ParentAccount
}

func (m *mockParentDirectory) List(ctx context.Context, filter models.ParentFilter) ([]models.ParentAccount, error) {
	return m.accounts, nil
}

func strPtr(s string) *string { return &s }

func TestResolveMatchesLinkedAccountsAcrossIDDrift(t *testing.T) {
	parents := &mockParentDirectory{accounts: []models.ParentAccount{
		{ID: "parent-1", FullName: "Mrs. Okafor", Email: "okafor@example.com", Active: true, StudentIDs: pq.StringArray{"STUDENT_42"}},
		{ID: "parent-2", FullName: "Mr. Okafor", Email: "m.okafor@example.com", Active: true, StudentIDs: pq.StringArray{"42"}},
		{ID: "parent-3", FullName: "Unrelated", Email: "other@example.com", Active: true, StudentIDs: pq.StringArray{"student_77"}},
		{ID: "parent-4", FullName: "Inactive", Email: "inactive@example.com", Active: false, StudentIDs: pq.StringArray{"student_42"}},
	}}
	resolver := NewRecipientResolver(parents, &mockStudentReader{}, nil)

	recipients, err := resolver.Resolve(context.Background(), "student_42", nil)
	require.NoError(t, err)
	require.Len(t, recipients, 2)
	assert.Equal(t, "parent-1", recipients[0].ParentID)
	assert.Equal(t, "parent-2", recipients[1].ParentID)
}

func TestResolveIsDeterministic(t *testing.T) {
	parents := &mockParentDirectory{accounts: []models.ParentAccount{
		{ID: "parent-b", FullName: "B", Email: "b@example.com", Active: true, StudentIDs: pq.StringArray{"student-9"}},
		{ID: "parent-a", FullName: "A", Email: "a@example.com", Active: true, StudentIDs: pq.StringArray{"student-9"}},
	}}
	resolver := NewRecipientResolver(parents, &mockStudentReader{}, nil)

	first, err := resolver.Resolve(context.Background(), "student-9", nil)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), "student-9", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "parent-a", first[0].ParentID)
}

func TestResolveFallsBackToStudentContact(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{
		"student-5": {
			ID:          "student-5",
			FullName:    "Chinedu Eze",
			ParentName:  strPtr("Mr. Eze"),
			ParentEmail: strPtr("eze@example.com"),
		},
	}}
	resolver := NewRecipientResolver(&mockParentDirectory{}, students, nil)

	recipients, err := resolver.Resolve(context.Background(), "student-5", nil)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "contact:student-5", recipients[0].ParentID)
	assert.Equal(t, "Mr. Eze", recipients[0].Name)
	assert.Equal(t, "eze@example.com", recipients[0].Email)
}

func TestResolveNoLinksNoContact(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{
		"student-5": {ID: "student-5", FullName: "Chinedu Eze"},
	}}
	resolver := NewRecipientResolver(&mockParentDirectory{}, students, nil)

	recipients, err := resolver.Resolve(context.Background(), "student-5", nil)
	require.NoError(t, err)
	assert.Empty(t, recipients)
}

func TestResolvePreservesPriorRecipients(t *testing.T) {
	parents := &mockParentDirectory{accounts: []models.ParentAccount{
		{ID: "parent-1", FullName: "Mrs. Okafor", Email: "okafor@example.com", Active: true, StudentIDs: pq.StringArray{"student-7"}},
	}}
	resolver := NewRecipientResolver(parents, &mockStudentReader{}, nil)

	prior := models.RecipientList{
		{ParentID: "PARENT-1", Name: "Mrs. Okafor", Email: "okafor@example.com"},
		{ParentID: "guardian-2", Name: "Uncle Femi", Email: "femi@example.com"},
	}
	recipients, err := resolver.Resolve(context.Background(), "student-7", prior)
	require.NoError(t, err)
	require.Len(t, recipients, 2)
	assert.Equal(t, "guardian-2", recipients[0].ParentID)
	assert.Equal(t, "PARENT-1", recipients[1].ParentID)
}
