package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/internal/repository"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type reportProcedureStub struct {
	procedures []models.Procedure
	lastScope  repository.ProcedureScope
	lastFilter models.ProcedureFilter
}

func (s *reportProcedureStub) List(ctx context.Context, scope repository.ProcedureScope, filter models.ProcedureFilter) ([]models.Procedure, error) {
	s.lastScope = scope
	s.lastFilter = filter
	return s.procedures, nil
}

func newReportFixture(maxRows int) (*ReportService, *studentRepoStub, *invoiceRepoStub, *reportProcedureStub) {
	students := newStudentRepoStub(
		models.Student{ID: 1, FullName: "Sofia Rojas", Status: models.StudentStatusActive},
		models.Student{ID: 2, FullName: "Tomas Diaz", Status: models.StudentStatusLate},
	)
	paidAt := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	name := "Sofia Rojas"
	invoices := newInvoiceRepoStub(models.Invoice{ID: 1, StudentID: 1, Period: "2024-03", Amount: 1500.5, Status: models.InvoiceStatusPaid, PaidAt: &paidAt, StudentName: &name})
	procedures := &reportProcedureStub{procedures: []models.Procedure{
		{ID: 1, StudentID: 1, ProcedureType: "CERT", Status: models.ProcedureStatusPending, StudentName: &name},
	}}
	svc := NewReportService(students, invoices, procedures, nil, nil, ReportConfig{MaxRows: maxRows, TitlePrefix: "Colegio"}, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) }
	return svc, students, invoices, procedures
}

func exporter() authz.Identity {
	id := identity(1, authz.RoleAdmin)
	id.Permissions = authz.NewPermissionSet(authz.PermissionReportsExport)
	return id
}

func TestReportServiceStudentsTruncates(t *testing.T) {
	svc, students, _, _ := newReportFixture(1)

	result, err := svc.Report(context.Background(), dto.ReportStudents, dto.ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.True(t, result.Truncated)
	assert.Equal(t, 2, students.lastFilter.PageSize)

	_, err = svc.Report(context.Background(), dto.ReportStudents, dto.ReportQuery{Status: "perdido"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceFiltersPassThrough(t *testing.T) {
	svc, _, invoices, procedures := newReportFixture(100)
	studentID := int64(1)
	ctx := context.Background()

	_, err := svc.Report(ctx, dto.ReportInvoices, dto.ReportQuery{Status: "PAGADO", From: "2024-01-15", To: "2024-06", StudentID: &studentID})
	require.NoError(t, err)
	assert.Equal(t, "2024-01", invoices.lastFilter.From)
	assert.Equal(t, "2024-06", invoices.lastFilter.To)
	assert.Equal(t, models.InvoiceStatusPaid, invoices.lastFilter.Status)
	assert.Equal(t, 101, invoices.lastFilter.Limit)

	result, err := svc.Report(ctx, dto.ReportProcedures, dto.ReportQuery{Status: "PENDIENTE,EN_PROCESO", From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	assert.Len(t, result.Procedures, 1)
	assert.True(t, procedures.lastScope.All)
	assert.Len(t, procedures.lastFilter.Status, 2)
	require.NotNil(t, procedures.lastFilter.To)
	assert.Equal(t, 31, procedures.lastFilter.To.Day())

	_, err = svc.Report(ctx, dto.ReportKind("grades"), dto.ReportQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceExportCSV(t *testing.T) {
	svc, _, _, _ := newReportFixture(100)

	file, err := svc.Export(context.Background(), exporter(), dto.ReportInvoices, dto.ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "invoices_20240501_083000.csv", file.Filename)

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,student,period,amount,status,paid_at", lines[0])
	assert.Equal(t, "1,Sofia Rojas,2024-03,1500.50,PAGADO,2024-03-10", lines[1])
}

func TestReportServiceExportPDF(t *testing.T) {
	svc, _, _, _ := newReportFixture(100)

	file, err := svc.Export(context.Background(), exporter(), dto.ReportProcedures, dto.ReportQuery{Format: "PDF"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
	assert.Equal(t, "Colegio Tramites", svc.title(dto.ReportProcedures))
}

func TestReportServiceExportRequiresPermission(t *testing.T) {
	svc, _, _, _ := newReportFixture(100)

	_, err := svc.Export(context.Background(), identity(1, authz.RoleAdmin), dto.ReportStudents, dto.ReportQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(context.Background(), exporter(), dto.ReportStudents, dto.ReportQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDatasetForFlagsTruncation(t *testing.T) {
	ds := datasetFor(&dto.ReportResult{
		Kind:      dto.ReportStudents,
		Total:     1,
		Truncated: true,
		Students:  []models.Student{{ID: 7, FullName: "Tomás Soto", Status: models.StudentStatusLate}},
	})
	assert.Equal(t, []string{"id", "full_name", "google_email", "status", "created_at"}, ds.Keys())
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, "7", ds.Rows[0][0])
	assert.Equal(t, "", ds.Rows[0][2])
	assert.Contains(t, ds.Note, "truncado a 1 filas")
}
