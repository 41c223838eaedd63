package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
	"github.com/noah-isme/student-records-api/pkg/export"
)

type exportPerformanceRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.PerformanceFilter) ([]models.PerformanceDetail, int, error)
}

type exportInvoiceRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.InvoiceFilter) ([]models.InvoiceDetail, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered document ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders visible records into downloadable documents.
// Exports run through the same scoping engine as listings, so a parent's
// statement never includes another family's rows.
type ExportService struct {
	performances exportPerformanceRepository
	invoices     exportInvoiceRepository
	policy       authorizer
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(performances exportPerformanceRepository, invoices exportInvoiceRepository, engine authorizer, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		performances: performances,
		invoices:     invoices,
		policy:       engine,
		csv:          csv,
		pdf:          pdf,
		logger:       logger,
	}
}

// PerformanceSheet renders the caller's visible exam results as CSV.
func (s *ExportService) PerformanceSheet(ctx context.Context, actor policy.Actor, filter models.PerformanceFilter) (*ExportFile, error) {
	if !policy.Gate(actor.Role, models.FamilyPerformance, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not export performance records")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyPerformance)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	filter.Page = 1
	filter.PageSize = 100
	rows, _, err := s.performances.List(ctx, scope, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance records")
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Subject", "Exam", "Term", "Year", "Score"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student": row.StudentName,
			"Subject": row.SubjectName,
			"Exam":    string(row.ExamType),
			"Term":    strconv.Itoa(row.Term),
			"Year":    row.AcademicYear,
			"Score":   strconv.Itoa(row.Score),
		})
	}

	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportFile{
		Filename:    "performance-sheet.csv",
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

// InvoiceStatement renders the caller's visible invoices as a PDF
// statement. Teachers are rejected at the gate like every other
// financial read.
func (s *ExportService) InvoiceStatement(ctx context.Context, actor policy.Actor, filter models.InvoiceFilter) (*ExportFile, error) {
	if !policy.Gate(actor.Role, models.FamilyInvoice, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not export invoices")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyInvoice)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	filter.Page = 1
	filter.PageSize = 100
	rows, _, err := s.invoices.List(ctx, scope, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoices")
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Year", "Term", "Due Date", "Total", "Outstanding", "Status"},
		Numeric: []string{"Term", "Total", "Outstanding"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":     row.StudentName,
			"Year":        row.AcademicYear,
			"Term":        strconv.Itoa(row.Term),
			"Due Date":    row.DueDate.Format("2006-01-02"),
			"Total":       export.Money(row.TotalAmount),
			"Outstanding": export.Money(row.AmountDue),
			"Status":      string(row.Status),
		})
	}

	data, err := s.pdf.Render(dataset, "Fee Statement")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &ExportFile{
		Filename:    "fee-statement.pdf",
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}
