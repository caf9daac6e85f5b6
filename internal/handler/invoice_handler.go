package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

type invoiceService interface {
	List(ctx context.Context, actor authz.Actor, query dto.InvoiceListQuery) ([]models.Invoice, error)
	ListForStudent(ctx context.Context, actor authz.Actor, studentID int64, query dto.InvoiceListQuery) ([]models.Invoice, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*models.Invoice, error)
	Create(ctx context.Context, actor authz.Identity, req dto.CreateInvoiceRequest) (*models.Invoice, error)
	Update(ctx context.Context, actor authz.Identity, id int64, req dto.UpdateInvoiceRequest) (*models.Invoice, error)
	Delete(ctx context.Context, actor authz.Identity, id int64) error
}

// InvoiceHandler exposes tuition invoice endpoints.
type InvoiceHandler struct {
	invoices invoiceService
}

// NewInvoiceHandler constructs the handler.
func NewInvoiceHandler(invoices invoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// List godoc
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param student_id query int false "Student"
// @Param status query string false "PENDIENTE or PAGADO"
// @Param period query string false "YYYY-MM"
// @Param from query string false "First period"
// @Param to query string false "Last period"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.InvoiceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	invoices, err := h.invoices.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, nil)
}

// ListForStudent godoc
// @Summary Invoices of a linked student
// @Tags Parent
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /parent/students/{id}/invoices [get]
func (h *InvoiceHandler) ListForStudent(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.InvoiceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	invoices, err := h.invoices.ListForStudent(c.Request.Context(), actor, studentID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, nil)
}

// Get godoc
// @Summary Get invoice
// @Tags Invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	invoice, err := h.invoices.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// Create godoc
// @Summary Create invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param payload body dto.CreateInvoiceRequest true "Invoice"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid invoice payload"))
		return
	}
	invoice, err := h.invoices.Create(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invoice)
}

// Update godoc
// @Summary Update invoice
// @Description Marking an invoice PAGADO stamps paid_at once. Paid invoices cannot return to PENDIENTE.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param payload body dto.UpdateInvoiceRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid invoice payload"))
		return
	}
	invoice, err := h.invoices.Update(c.Request.Context(), identity, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// Delete godoc
// @Summary Delete invoice
// @Tags Invoices
// @Param id path int true "Invoice ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), identity, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
