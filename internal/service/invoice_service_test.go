package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/internal/workflow"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type invoiceRepoStub struct {
	invoices   map[int64]models.Invoice
	nextID     int64
	lastFilter models.InvoiceFilter
}

func newInvoiceRepoStub(invoices ...models.Invoice) *invoiceRepoStub {
	repo := &invoiceRepoStub{invoices: map[int64]models.Invoice{}, nextID: 10}
	for _, inv := range invoices {
		repo.invoices[inv.ID] = inv
	}
	return repo
}

func (r *invoiceRepoStub) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	r.lastFilter = filter
	out := []models.Invoice{}
	for _, inv := range r.invoices {
		if filter.StudentID != nil && inv.StudentID != *filter.StudentID {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *invoiceRepoStub) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &inv, nil
}

func (r *invoiceRepoStub) Create(ctx context.Context, invoice *models.Invoice) error {
	r.nextID++
	invoice.ID = r.nextID
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *invoiceRepoStub) Update(ctx context.Context, invoice *models.Invoice) error {
	if _, ok := r.invoices[invoice.ID]; !ok {
		return sql.ErrNoRows
	}
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *invoiceRepoStub) Delete(ctx context.Context, id int64) error {
	if _, ok := r.invoices[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.invoices, id)
	return nil
}

var invoiceClock = time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)

func newInvoiceFixture() (*InvoiceService, *invoiceRepoStub, *memoryCacheRepo) {
	repo := newInvoiceRepoStub(
		models.Invoice{ID: 1, StudentID: 1, Period: "2024-03", Amount: 120000, Status: models.InvoiceStatusPending},
		models.Invoice{ID: 2, StudentID: 2, Period: "2024-03", Amount: 120000, Status: models.InvoiceStatusPending},
	)
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	engine := workflow.NewEngine(workflow.WithClock(func() time.Time { return invoiceClock }))
	students := studentFinderStub{1: {ID: 1}, 2: {ID: 2}}
	return NewInvoiceService(repo, students, engine, &stubAuditRecorder{}, NewMetricsService(), cache, nil, nil), repo, cacheRepo
}

func TestInvoiceServiceListVisibility(t *testing.T) {
	svc, _, _ := newInvoiceFixture()
	ctx := context.Background()

	mine, err := svc.List(ctx, parentActor(7, 1), dto.InvoiceListQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].StudentID)

	all, err := svc.List(ctx, adminActor(1), dto.InvoiceListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.List(ctx, teacherActor(3), dto.InvoiceListQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInvoiceServiceListForStudent(t *testing.T) {
	svc, repo, _ := newInvoiceFixture()

	list, err := svc.ListForStudent(context.Background(), parentActor(7, 1), 1, dto.InvoiceListQuery{Status: "pendiente", Period: "2024-03"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, models.InvoiceStatusPending, repo.lastFilter.Status)
	assert.Equal(t, "2024-03", repo.lastFilter.Period)

	_, err = svc.ListForStudent(context.Background(), parentActor(7, 1), 2, dto.InvoiceListQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorizedStudentLink.Code, appErrors.FromError(err).Code)

	_, err = svc.ListForStudent(context.Background(), adminActor(1), 2, dto.InvoiceListQuery{Period: "marzo"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInvoiceServiceGet(t *testing.T) {
	svc, _, _ := newInvoiceFixture()

	_, err := svc.Get(context.Background(), parentActor(7, 1), 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	inv, err := svc.Get(context.Background(), parentActor(7, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inv.ID)
}

func TestInvoiceServiceCreatePaidStampsPaidAt(t *testing.T) {
	svc, _, _ := newInvoiceFixture()
	admin := identity(1, authz.RoleAdmin)

	inv, err := svc.Create(context.Background(), admin, dto.CreateInvoiceRequest{StudentID: 1, Period: "2024-04", Amount: 99000, Status: models.InvoiceStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.True(t, inv.PaidAt.Equal(invoiceClock))

	_, err = svc.Create(context.Background(), admin, dto.CreateInvoiceRequest{StudentID: 404, Period: "2024-04", Amount: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), admin, dto.CreateInvoiceRequest{StudentID: 1, Period: "2024-13", Amount: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInvoiceServiceUpdateStatus(t *testing.T) {
	svc, repo, cacheRepo := newInvoiceFixture()
	admin := identity(1, authz.RoleAdmin)
	cacheRepo.store[dashboardCacheKey] = []byte(`{}`)
	paid := models.InvoiceStatusPaid

	inv, err := svc.Update(context.Background(), admin, 1, dto.UpdateInvoiceRequest{Status: &paid})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, repo.invoices[1].PaidAt)
	assert.NotContains(t, cacheRepo.store, dashboardCacheKey)

	pending := models.InvoiceStatusPending
	_, err = svc.Update(context.Background(), admin, 1, dto.UpdateInvoiceRequest{Status: &pending})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	amount := 150000.0
	cacheRepo.store[dashboardCacheKey] = []byte(`{}`)
	inv, err = svc.Update(context.Background(), admin, 2, dto.UpdateInvoiceRequest{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 150000.0, inv.Amount)
	assert.Contains(t, cacheRepo.store, dashboardCacheKey)
}

func TestInvoiceServiceDelete(t *testing.T) {
	svc, repo, _ := newInvoiceFixture()
	admin := identity(1, authz.RoleAdmin)

	require.NoError(t, svc.Delete(context.Background(), admin, 2))
	assert.NotContains(t, repo.invoices, int64(2))

	err := svc.Delete(context.Background(), admin, 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
