package dto

import "github.com/noah-isme/portal-colegio-api/internal/models"

// ReportKind names an exportable dataset.
type ReportKind string

const (
	ReportStudents   ReportKind = "students"
	ReportInvoices   ReportKind = "invoices"
	ReportProcedures ReportKind = "procedures"
)

// Valid reports whether k is a known report.
func (k ReportKind) Valid() bool {
	switch k {
	case ReportStudents, ReportInvoices, ReportProcedures:
		return true
	}
	return false
}

// ReportFormat is the export file format.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportQuery carries report filters shared by listing and export.
type ReportQuery struct {
	Status    string `form:"status"`
	StudentID *int64 `form:"student_id"`
	From      string `form:"from"`
	To        string `form:"to"`
	Search    string `form:"search"`
	Format    string `form:"format"`
}

// ReportFile is a rendered export.
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportResult is the JSON form of a report. Only the slice matching Kind is set.
type ReportResult struct {
	Kind       ReportKind         `json:"kind"`
	Total      int                `json:"total"`
	Truncated  bool               `json:"truncated"`
	Students   []models.Student   `json:"students,omitempty"`
	Invoices   []models.Invoice   `json:"invoices,omitempty"`
	Procedures []models.Procedure `json:"procedures,omitempty"`
}
