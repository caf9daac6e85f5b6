package dto

import "github.com/noah-isme/portal-colegio-api/internal/models"

// CreateInvoiceRequest registers a tuition invoice.
type CreateInvoiceRequest struct {
	StudentID  int64                `json:"student_id" validate:"required,gt=0"`
	Period     string               `json:"period" validate:"required,len=7"`
	Amount     float64              `json:"amount" validate:"gt=0"`
	Status     models.InvoiceStatus `json:"status" validate:"omitempty,oneof=PENDIENTE PAGADO"`
	PaymentURL *string              `json:"payment_url" validate:"omitempty,url"`
}

// UpdateInvoiceRequest is a partial invoice update.
type UpdateInvoiceRequest struct {
	Period     *string               `json:"period" validate:"omitempty,len=7"`
	Amount     *float64              `json:"amount" validate:"omitempty,gt=0"`
	Status     *models.InvoiceStatus `json:"status" validate:"omitempty,oneof=PENDIENTE PAGADO"`
	PaymentURL *string               `json:"payment_url" validate:"omitempty,url"`
}

// InvoiceListQuery carries invoice list filters.
type InvoiceListQuery struct {
	StudentID *int64 `form:"student_id"`
	Status    string `form:"status"`
	Period    string `form:"period"`
	Search    string `form:"search"`
	From      string `form:"from"`
	To        string `form:"to"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}
