package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type fakeInvoiceService struct {
	query  dto.InvoiceListQuery
	update dto.UpdateInvoiceRequest
}

func (f *fakeInvoiceService) List(_ context.Context, _ authz.Actor, query dto.InvoiceListQuery) ([]models.Invoice, error) {
	f.query = query
	return []models.Invoice{}, nil
}

func (f *fakeInvoiceService) ListForStudent(_ context.Context, actor authz.Actor, studentID int64, _ dto.InvoiceListQuery) ([]models.Invoice, error) {
	if !authz.CanAccessStudent(actor, studentID) {
		return nil, appErrors.ErrUnauthorizedStudentLink
	}
	return []models.Invoice{{ID: 1, StudentID: studentID, Status: models.InvoiceStatusPending}}, nil
}

func (f *fakeInvoiceService) Get(_ context.Context, _ authz.Actor, id int64) (*models.Invoice, error) {
	return &models.Invoice{ID: id}, nil
}

func (f *fakeInvoiceService) Create(_ context.Context, _ authz.Identity, req dto.CreateInvoiceRequest) (*models.Invoice, error) {
	return &models.Invoice{ID: 3, StudentID: req.StudentID, Period: req.Period}, nil
}

func (f *fakeInvoiceService) Update(_ context.Context, _ authz.Identity, id int64, req dto.UpdateInvoiceRequest) (*models.Invoice, error) {
	f.update = req
	if req.Status != nil && *req.Status == models.InvoiceStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "paid invoices cannot return to pending")
	}
	return &models.Invoice{ID: id}, nil
}

func (f *fakeInvoiceService) Delete(context.Context, authz.Identity, int64) error { return nil }

func TestInvoiceHandlerParentScope(t *testing.T) {
	r := testEngine()
	r.GET("/parent/students/:id/invoices", session(20, []string{"PADRE"}, nil, 7), NewInvoiceHandler(&fakeInvoiceService{}).ListForStudent)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/parent/students/7/invoices", "").Code)
	rec := do(r, http.MethodGet, "/parent/students/8/invoices", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvoiceHandlerUpdateStatus(t *testing.T) {
	svc := &fakeInvoiceService{}
	r := testEngine()
	r.PUT("/admin/invoices/:id", session(1, []string{"ADMIN"}, nil), NewInvoiceHandler(svc).Update)

	rec := do(r, http.MethodPut, "/admin/invoices/3", `{"status":"PAGADO"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.update.Status)
	assert.Equal(t, models.InvoiceStatusPaid, *svc.update.Status)

	rec = do(r, http.MethodPut, "/admin/invoices/3", `{"status":"PENDIENTE"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInvoiceHandlerListAndCreate(t *testing.T) {
	svc := &fakeInvoiceService{}
	h := NewInvoiceHandler(svc)
	r := testEngine()
	admin := session(1, []string{"ADMIN"}, nil)
	r.GET("/admin/invoices", admin, h.List)
	r.POST("/admin/invoices", admin, h.Create)

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin/invoices?period=2024-03&status=PAGADO", "").Code)
	assert.Equal(t, "2024-03", svc.query.Period)

	rec := do(r, http.MethodPost, "/admin/invoices", `{"student_id":7,"period":"2024-04","amount":1500}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"period":"2024-04"`)
}
