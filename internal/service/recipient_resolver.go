package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

type parentDirectory interface {
	List(ctx context.Context, filter models.ParentFilter) ([]models.ParentAccount, error)
}

// RecipientResolver determines which parent accounts receive a published
// artifact for a student. Matching tolerates the id drift seen in the
// directory: case differences, an optional "student_" prefix, and ids
// stored as bare numbers.
type RecipientResolver struct {
	parents  parentDirectory
	students studentReader
	logger   *zap.Logger
}

// NewRecipientResolver constructs the resolver.
func NewRecipientResolver(parents parentDirectory, students studentReader, logger *zap.Logger) *RecipientResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipientResolver{parents: parents, students: students, logger: logger}
}

// Resolve returns the audience for the student, in priority order:
// linked parent accounts, then the student's embedded parent contact when
// no account is linked. Recipients already granted on a prior publish are
// never dropped; the result is de-duplicated by parent identity and
// sorted so repeated calls return the same list.
func (r *RecipientResolver) Resolve(ctx context.Context, studentID string, prior models.RecipientList) (models.RecipientList, error) {
	accounts, err := r.parents.List(ctx, models.ParentFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list parent accounts")
	}

	seen := make(map[string]struct{}, len(prior)+2)
	resolved := make(models.RecipientList, 0, len(prior)+2)
	add := func(rec models.Recipient) {
		key := recipientKey(rec)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		resolved = append(resolved, rec)
	}

	// previously granted recipients survive re-publishing
	for _, rec := range prior {
		add(rec)
	}

	linked := false
	for _, account := range accounts {
		if !account.Active {
			continue
		}
		for _, linkedID := range account.StudentIDs {
			if !studentIDMatches(studentID, linkedID) {
				continue
			}
			linked = true
			add(models.Recipient{ParentID: account.ID, Name: account.FullName, Email: account.Email})
			break
		}
	}

	if !linked && len(resolved) == 0 {
		student, err := r.students.FindByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return resolved, nil
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load student contact")
		}
		if student.ParentEmail != nil && *student.ParentEmail != "" {
			name := ""
			if student.ParentName != nil {
				name = *student.ParentName
			}
			if name == "" {
				name = "Parent of " + student.FullName
			}
			add(models.Recipient{ParentID: "contact:" + student.ID, Name: name, Email: *student.ParentEmail})
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return recipientKey(resolved[i]) < recipientKey(resolved[j])
	})
	return resolved, nil
}

func recipientKey(rec models.Recipient) string {
	if rec.ParentID != "" {
		return strings.ToLower(rec.ParentID)
	}
	return strings.ToLower(rec.Email)
}

// studentIDMatches compares a student identity against a directory link,
// tolerating case, a "student_" prefix, and numeric-id coercion.
func studentIDMatches(studentID, linkedID string) bool {
	a := normalizeStudentID(studentID)
	b := normalizeStudentID(linkedID)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	an, aerr := strconv.ParseInt(a, 10, 64)
	bn, berr := strconv.ParseInt(b, 10, 64)
	return aerr == nil && berr == nil && an == bn
}

func normalizeStudentID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "student_")
}
