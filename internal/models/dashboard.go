package models

// DashboardStats summarises the admin dashboard counters.
type DashboardStats struct {
	TotalStudents        int `db:"total_students" json:"total_students"`
	ActiveStudents       int `db:"active_students" json:"active_students"`
	LateStudents         int `db:"late_students" json:"late_students"`
	WithdrawnStudents    int `db:"withdrawn_students" json:"withdrawn_students"`
	PendingInvoices      int `db:"pending_invoices" json:"pending_invoices"`
	PaidInvoices         int `db:"paid_invoices" json:"paid_invoices"`
	PendingProcedures    int `db:"pending_procedures" json:"pending_procedures"`
	ApprovedProcedures   int `db:"approved_procedures" json:"approved_procedures"`
	UnassignedProcedures int `db:"unassigned_procedures" json:"unassigned_procedures"`
}
