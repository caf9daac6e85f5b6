package workflow

import (
	"fmt"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

// ApplyInvoiceStatus moves inv to status. PENDIENTE→PAGADO stamps paid_at the
// first time; a paid invoice cannot return to PENDIENTE.
func (e *Engine) ApplyInvoiceStatus(inv models.Invoice, status models.InvoiceStatus) (models.Invoice, error) {
	if !status.Valid() {
		return inv, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown invoice status %q", status))
	}
	if status == inv.Status {
		return inv, nil
	}
	if inv.Status == models.InvoiceStatusPaid {
		return inv, appErrors.Clone(appErrors.ErrInvalidTransition, "a paid invoice cannot return to pending")
	}

	updated := inv
	updated.Status = status
	if status == models.InvoiceStatusPaid && updated.PaidAt == nil {
		stamp := e.now().UTC()
		updated.PaidAt = &stamp
	}
	return updated, nil
}

// CanViewInvoice applies the student-scope rule to a single invoice.
func CanViewInvoice(actor authz.Actor, inv models.Invoice) bool {
	return authz.CanAccessStudent(actor, inv.StudentID)
}

// VisibleInvoices keeps the invoices actor may see.
func VisibleInvoices(actor authz.Actor, invoices []models.Invoice) []models.Invoice {
	result := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if CanViewInvoice(actor, inv) {
			result = append(result, inv)
		}
	}
	return result
}
