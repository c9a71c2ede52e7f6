package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
	"github.com/edubridge-ng/portal-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type reportCardGetter interface {
	Get(ctx context.Context, scope models.ReportCardScope) (*models.ReportCard, error)
}

type examResultLister interface {
	List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error)
}

// ExportService renders downloadable documents from workflow records.
type ExportService struct {
	reportCards reportCardGetter
	examResults examResultLister
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(reportCards reportCardGetter, examResults examResultLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{reportCards: reportCards, examResults: examResults, csv: csv, pdf: pdf, logger: logger}
}

// ReportCardPDF renders an approved report card. Unapproved records are
// never exported: the document is the published artifact.
func (s *ExportService) ReportCardPDF(ctx context.Context, scope models.ReportCardScope) ([]byte, string, error) {
	card, err := s.reportCards.Get(ctx, scope)
	if err != nil {
		return nil, "", err
	}
	if card.Status != models.ReportCardStatusApproved {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "report card is not approved")
	}

	dataset := export.Dataset{
		Headers: []string{"Field", "Value"},
		Rows: []map[string]string{
			{"Field": "Student", "Value": card.StudentName},
			{"Field": "Class", "Value": card.ClassName},
			{"Field": "Subject", "Value": card.Subject},
			{"Field": "Term", "Value": card.Term},
			{"Field": "Session", "Value": card.Session},
			{"Field": "Status", "Value": string(card.Status)},
			{"Field": "Approved By", "Value": card.AdminName},
			{"Field": "Approved At", "Value": formatExportTime(card.ApprovedAt)},
		},
	}
	title := fmt.Sprintf("Report Card %s %s", card.Term, card.Session)
	data, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report card pdf")
	}
	filename := fmt.Sprintf("report-card-%s-%s.pdf", slugify(card.StudentName), slugify(card.Term))
	return data, filename, nil
}

// ExamResultsCSV renders the published rows for an exam.
func (s *ExportService) ExamResultsCSV(ctx context.Context, examID string) ([]byte, string, error) {
	examID = strings.TrimSpace(examID)
	if examID == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "exam_id is required")
	}
	rows, err := s.examResults.List(ctx, models.ExamResultFilter{ExamID: examID, Status: models.ExamResultStatusPublished})
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "CA1", "CA2", "Assignment", "Exam", "Total", "Grade"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID": row.StudentID,
			"CA1":        formatScore(row.CA1),
			"CA2":        formatScore(row.CA2),
			"Assignment": formatScore(row.Assignment),
			"Exam":       formatScore(row.Exam),
			"Total":      formatScore(row.Total),
			"Grade":      row.Grade,
		})
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render exam results csv")
	}
	filename := fmt.Sprintf("exam-results-%s.csv", slugify(examID))
	return data, filename, nil
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, value)
}
