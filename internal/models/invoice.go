package models

import "time"

// InvoiceStatus is the payment status of a tuition invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDIENTE"
	InvoiceStatusPaid    InvoiceStatus = "PAGADO"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// Invoice is a monthly tuition charge for a student.
type Invoice struct {
	ID          int64         `db:"id" json:"id"`
	StudentID   int64         `db:"student_id" json:"student_id"`
	Period      string        `db:"period" json:"period"`
	Amount      float64       `db:"amount" json:"amount"`
	Status      InvoiceStatus `db:"status" json:"status"`
	PaymentURL  *string       `db:"payment_url" json:"payment_url,omitempty"`
	PaidAt      *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	StudentName *string       `db:"student_name" json:"student_name,omitempty"`
}

// InvoiceFilter constrains invoice listing.
type InvoiceFilter struct {
	StudentID *int64
	Status    InvoiceStatus
	Period    string
	Search    string
	From      string
	To        string
	Limit     int
	Offset    int
}
