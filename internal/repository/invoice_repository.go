package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

const invoiceSelect = `SELECT i.id, i.student_id, i.period, i.amount, i.status, i.payment_url, i.paid_at, i.created_at,
       s.full_name AS student_name
FROM invoices i
LEFT JOIN students s ON s.id = i.student_id`

// InvoiceRepository persists tuition invoices.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs the repository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// List returns invoices matching filter, newest period first.
func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(invoiceSelect)

	conditions := make([]string, 0, 6)
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		conditions = append(conditions, fmt.Sprintf("i.period = $%d", len(args)))
	}
	if filter.From != "" {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("i.period >= $%d", len(args)))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("i.period <= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(s.full_name) LIKE $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY i.period DESC, i.id DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// GetByID fetches a single invoice.
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, invoiceSelect+` WHERE i.id = $1`, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Create inserts an invoice and fills its id.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.Status == "" {
		invoice.Status = models.InvoiceStatusPending
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO invoices (student_id, period, amount, status, payment_url, paid_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		invoice.StudentID, invoice.Period, invoice.Amount, invoice.Status, invoice.PaymentURL, invoice.PaidAt, invoice.CreatedAt,
	).Scan(&invoice.ID); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// Update persists all mutable invoice columns.
func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	const query = `UPDATE invoices SET student_id = :student_id, period = :period, amount = :amount, status = :status,
	payment_url = :payment_url, paid_at = :paid_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, invoice)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return expectAffected(result, "update invoice")
}

// Delete removes an invoice.
func (r *InvoiceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return expectAffected(result, "delete invoice")
}
