package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type fakeReportService struct {
	kind  dto.ReportKind
	query dto.ReportQuery
	actor authz.Identity
}

func (f *fakeReportService) Report(_ context.Context, kind dto.ReportKind, query dto.ReportQuery) (*dto.ReportResult, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown report")
	}
	f.kind = kind
	f.query = query
	return &dto.ReportResult{Kind: kind, Total: 2000, Truncated: true}, nil
}

func (f *fakeReportService) Export(_ context.Context, actor authz.Identity, kind dto.ReportKind, query dto.ReportQuery) (*dto.ReportFile, error) {
	f.actor = actor
	f.kind = kind
	f.query = query
	return &dto.ReportFile{Filename: "invoices_20240501_083000.csv", ContentType: "text/csv", Content: []byte("id\n1\n")}, nil
}

func TestReportHandlerReport(t *testing.T) {
	svc := &fakeReportService{}
	r := testEngine()
	r.GET("/admin/reports/:kind", NewReportHandler(svc).Report)

	rec := do(r, http.MethodGet, "/admin/reports/procedures?status=PENDIENTE&from=2024-01-01&student_id=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ReportProcedures, svc.kind)
	assert.Equal(t, "2024-01-01", svc.query.From)
	require.NotNil(t, svc.query.StudentID)
	assert.Equal(t, true, decode(t, rec).Meta["truncated"])

	rec = do(r, http.MethodGet, "/admin/reports/grades", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportHandlerExportStreamsFile(t *testing.T) {
	svc := &fakeReportService{}
	r := testEngine()
	r.GET("/admin/export/:kind", session(1, []string{"ADMIN"}, []string{authz.PermissionReportsExport}), NewReportHandler(svc).Export)

	rec := do(r, http.MethodGet, "/admin/export/invoices?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoices_20240501_083000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "id\n1\n", rec.Body.String())
	assert.Equal(t, "csv", svc.query.Format)
	assert.True(t, svc.actor.HasPermission(authz.PermissionReportsExport))
}
