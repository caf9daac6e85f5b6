package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/internal/workflow"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type invoiceRepository interface {
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error)
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, id int64) error
}

// InvoiceService manages tuition invoices.
type InvoiceService struct {
	repo      invoiceRepository
	students  studentFinder
	engine    *workflow.Engine
	audit     AuditRecorder
	metrics   *MetricsService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(repo invoiceRepository, students studentFinder, engine *workflow.Engine, audit AuditRecorder, metrics *MetricsService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *InvoiceService {
	if engine == nil {
		engine = workflow.NewEngine()
	}
	if audit == nil {
		audit = nopAuditRecorder{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{repo: repo, students: students, engine: engine, audit: audit, metrics: metrics, cache: cache, validator: validate, logger: logger}
}

// List returns the invoices visible to actor.
func (s *InvoiceService) List(ctx context.Context, actor authz.Actor, query dto.InvoiceListQuery) ([]models.Invoice, error) {
	filter, err := invoiceFilterFromQuery(query)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}
	return workflow.VisibleInvoices(actor, invoices), nil
}

// ListForStudent returns the invoices of one student.
func (s *InvoiceService) ListForStudent(ctx context.Context, actor authz.Actor, studentID int64, query dto.InvoiceListQuery) ([]models.Invoice, error) {
	if err := requireStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	query.StudentID = &studentID
	return s.List(ctx, actor, query)
}

// Get returns an invoice the actor may see.
func (s *InvoiceService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Invoice, error) {
	invoice, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanViewInvoice(actor, *invoice) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invoice is not visible to this user")
	}
	return invoice, nil
}

// Create registers an invoice. Invoices created as PAGADO are stamped paid now.
func (s *InvoiceService) Create(ctx context.Context, actor authz.Identity, req dto.CreateInvoiceRequest) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}
	billing, err := period(req.Period)
	if err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	invoice := models.Invoice{
		StudentID:  req.StudentID,
		Period:     billing,
		Amount:     req.Amount,
		Status:     models.InvoiceStatusPending,
		PaymentURL: trimmedOrNil(req.PaymentURL),
	}
	if req.Status != "" {
		invoice, err = s.engine.ApplyInvoiceStatus(invoice, req.Status)
		if err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, &invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}
	s.audit.Record(ctx, actor, models.AuditEntityInvoice, invoice.ID, models.AuditActionCreate, invoice)
	invalidateDashboard(ctx, s.cache)
	return &invoice, nil
}

// Update applies a partial invoice change.
func (s *InvoiceService) Update(ctx context.Context, actor authz.Identity, id int64, req dto.UpdateInvoiceRequest) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice := *current
	if req.Period != nil {
		if invoice.Period, err = period(*req.Period); err != nil {
			return nil, err
		}
	}
	if req.Amount != nil {
		invoice.Amount = *req.Amount
	}
	if req.PaymentURL != nil {
		invoice.PaymentURL = trimmedOrNil(req.PaymentURL)
	}
	if req.Status != nil {
		invoice, err = s.engine.ApplyInvoiceStatus(invoice, *req.Status)
		if err != nil {
			s.metrics.RecordRejection("invoice_status", appErrors.FromError(err).Code)
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, &invoice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
	}
	s.audit.Record(ctx, actor, models.AuditEntityInvoice, invoice.ID, models.AuditActionUpdate, req)
	if invoice.Status != current.Status {
		invalidateDashboard(ctx, s.cache)
	}
	return &invoice, nil
}

// Delete removes an invoice.
func (s *InvoiceService) Delete(ctx context.Context, actor authz.Identity, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete invoice")
	}
	s.audit.Record(ctx, actor, models.AuditEntityInvoice, id, models.AuditActionDelete, nil)
	invalidateDashboard(ctx, s.cache)
	return nil
}

func (s *InvoiceService) load(ctx context.Context, id int64) (*models.Invoice, error) {
	invoice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	return invoice, nil
}

func invoiceFilterFromQuery(query dto.InvoiceListQuery) (models.InvoiceFilter, error) {
	filter := models.InvoiceFilter{
		StudentID: query.StudentID,
		Search:    strings.TrimSpace(query.Search),
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	if query.Status != "" {
		filter.Status = models.InvoiceStatus(strings.ToUpper(strings.TrimSpace(query.Status)))
		if !filter.Status.Valid() {
			return models.InvoiceFilter{}, appErrors.Clone(appErrors.ErrValidation, "status must be PENDIENTE or PAGADO")
		}
	}
	for _, bound := range []struct {
		raw  string
		dest *string
	}{{query.Period, &filter.Period}, {query.From, &filter.From}, {query.To, &filter.To}} {
		if strings.TrimSpace(bound.raw) == "" {
			continue
		}
		value, err := period(bound.raw)
		if err != nil {
			return models.InvoiceFilter{}, err
		}
		*bound.dest = value
	}
	return filter, nil
}
