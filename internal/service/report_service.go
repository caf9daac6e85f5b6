package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/internal/repository"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
	"github.com/noah-isme/portal-colegio-api/pkg/export"
)

type reportStudentSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type reportInvoiceSource interface {
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error)
}

type reportProcedureSource interface {
	List(ctx context.Context, scope repository.ProcedureScope, filter models.ProcedureFilter) ([]models.Procedure, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportConfig tunes report size and PDF titles.
type ReportConfig struct {
	MaxRows     int
	TitlePrefix string
}

// ReportService builds the admin reports and renders them as CSV or PDF.
type ReportService struct {
	students   reportStudentSource
	invoices   reportInvoiceSource
	procedures reportProcedureSource
	csv        csvRenderer
	pdf        pdfRenderer
	cfg        ReportConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService constructs a ReportService. Nil renderers fall back to the
// pkg/export implementations.
func NewReportService(students reportStudentSource, invoices reportInvoiceSource, procedures reportProcedureSource, csv csvRenderer, pdf pdfRenderer, cfg ReportConfig, logger *zap.Logger) *ReportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 2000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		students:   students,
		invoices:   invoices,
		procedures: procedures,
		csv:        csv,
		pdf:        pdf,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Report returns the rows of kind matching query, capped at MaxRows.
func (s *ReportService) Report(ctx context.Context, kind dto.ReportKind, query dto.ReportQuery) (*dto.ReportResult, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown report "+string(kind))
	}
	result := &dto.ReportResult{Kind: kind}
	switch kind {
	case dto.ReportStudents:
		filter := models.StudentFilter{Search: strings.TrimSpace(query.Search), PageSize: s.cfg.MaxRows + 1}
		if query.Status != "" {
			filter.Status = models.StudentStatus(strings.ToUpper(strings.TrimSpace(query.Status)))
			if !validStudentStatus(filter.Status) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "status must be VIGENTE, ATRASADO or RETIRADO")
			}
		}
		students, _, err := s.students.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build students report")
		}
		if len(students) > s.cfg.MaxRows {
			students, result.Truncated = students[:s.cfg.MaxRows], true
		}
		result.Students, result.Total = students, len(students)
	case dto.ReportInvoices:
		filter, err := invoiceFilterFromQuery(dto.InvoiceListQuery{
			Status:    query.Status,
			StudentID: query.StudentID,
			From:      monthOf(query.From),
			To:        monthOf(query.To),
			Search:    query.Search,
		})
		if err != nil {
			return nil, err
		}
		filter.Limit = s.cfg.MaxRows + 1
		invoices, err := s.invoices.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build invoices report")
		}
		if len(invoices) > s.cfg.MaxRows {
			invoices, result.Truncated = invoices[:s.cfg.MaxRows], true
		}
		result.Invoices, result.Total = invoices, len(invoices)
	case dto.ReportProcedures:
		filter, err := procedureFilterFromQuery(dto.ProcedureListQuery{
			Status:    query.Status,
			StudentID: query.StudentID,
			Search:    query.Search,
			From:      query.From,
			To:        query.To,
		})
		if err != nil {
			return nil, err
		}
		filter.Limit = s.cfg.MaxRows + 1
		procedures, err := s.procedures.List(ctx, repository.ProcedureScope{All: true}, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build procedures report")
		}
		if len(procedures) > s.cfg.MaxRows {
			procedures, result.Truncated = procedures[:s.cfg.MaxRows], true
		}
		result.Procedures, result.Total = procedures, len(procedures)
	}
	return result, nil
}

// Export renders a report file. The caller must carry reports:export.
func (s *ReportService) Export(ctx context.Context, actor authz.Identity, kind dto.ReportKind, query dto.ReportQuery) (*dto.ReportFile, error) {
	if !actor.HasPermission(authz.PermissionReportsExport) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reports:export permission required")
	}
	format := dto.ReportFormat(strings.ToLower(strings.TrimSpace(query.Format)))
	if format == "" {
		format = dto.ReportFormatCSV
	}
	if format != dto.ReportFormatCSV && format != dto.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	result, err := s.Report(ctx, kind, query)
	if err != nil {
		return nil, err
	}
	dataset := datasetFor(result)

	file := &dto.ReportFile{Filename: fmt.Sprintf("%s_%s.%s", kind, s.now().UTC().Format("20060102_150405"), format)}
	switch format {
	case dto.ReportFormatCSV:
		file.ContentType = "text/csv"
		file.Content, err = s.csv.Render(dataset)
	case dto.ReportFormatPDF:
		file.ContentType = "application/pdf"
		file.Content, err = s.pdf.Render(dataset, s.title(kind))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	s.logger.Info("report exported",
		zap.String("kind", string(kind)),
		zap.String("format", string(format)),
		zap.Int("rows", result.Total),
		zap.Int64("user_id", actor.ID),
	)
	return file, nil
}

func (s *ReportService) title(kind dto.ReportKind) string {
	name := map[dto.ReportKind]string{
		dto.ReportStudents:   "Estudiantes",
		dto.ReportInvoices:   "Cuotas",
		dto.ReportProcedures: "Tramites",
	}[kind]
	if s.cfg.TitlePrefix == "" {
		return name
	}
	return s.cfg.TitlePrefix + " " + name
}

func datasetFor(result *dto.ReportResult) export.Dataset {
	var ds export.Dataset
	switch result.Kind {
	case dto.ReportStudents:
		ds.Columns = []export.Column{
			{Key: "id", Title: "ID", Weight: 0.6},
			{Key: "full_name", Title: "Nombre", Weight: 2.5},
			{Key: "google_email", Title: "Correo", Weight: 2.5},
			{Key: "status", Title: "Estado"},
			{Key: "created_at", Title: "Alta"},
		}
		for _, st := range result.Students {
			ds.Rows = append(ds.Rows, []string{
				strconv.FormatInt(st.ID, 10),
				st.FullName,
				deref(st.GoogleEmail),
				string(st.Status),
				st.CreatedAt.Format(dateLayout),
			})
		}
	case dto.ReportInvoices:
		ds.Columns = []export.Column{
			{Key: "id", Title: "ID", Weight: 0.6},
			{Key: "student", Title: "Estudiante", Weight: 2.5},
			{Key: "period", Title: "Periodo"},
			{Key: "amount", Title: "Monto"},
			{Key: "status", Title: "Estado"},
			{Key: "paid_at", Title: "Pagada"},
		}
		for _, inv := range result.Invoices {
			ds.Rows = append(ds.Rows, []string{
				strconv.FormatInt(inv.ID, 10),
				deref(inv.StudentName),
				inv.Period,
				strconv.FormatFloat(inv.Amount, 'f', 2, 64),
				string(inv.Status),
				formatDate(inv.PaidAt),
			})
		}
	default:
		ds.Columns = []export.Column{
			{Key: "id", Title: "ID", Weight: 0.6},
			{Key: "student", Title: "Estudiante", Weight: 2},
			{Key: "type", Title: "Tipo"},
			{Key: "status", Title: "Estado"},
			{Key: "assigned_to", Title: "Asignado a", Weight: 1.8},
			{Key: "created_at", Title: "Creado"},
			{Key: "approved_at", Title: "Resuelto"},
		}
		for _, p := range result.Procedures {
			ds.Rows = append(ds.Rows, []string{
				strconv.FormatInt(p.ID, 10),
				deref(p.StudentName),
				p.ProcedureType,
				string(p.Status),
				deref(p.AssignedToName),
				p.CreatedAt.Format(dateLayout),
				formatDate(p.ApprovedAt),
			})
		}
	}
	if result.Truncated {
		ds.Note = fmt.Sprintf("Listado truncado a %d filas; acote los filtros para ver el resto.", result.Total)
	}
	return ds
}

// monthOf reduces a YYYY-MM-DD bound to its billing period.
func monthOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 7 {
		return raw[:7]
	}
	return raw
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
