package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

// DashboardRepository computes aggregate counters for the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats returns the current counters in a single round trip.
func (r *DashboardRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	const query = `SELECT
    (SELECT COUNT(*) FROM students) AS total_students,
    (SELECT COUNT(*) FROM students WHERE status = 'VIGENTE') AS active_students,
    (SELECT COUNT(*) FROM students WHERE status = 'ATRASADO') AS late_students,
    (SELECT COUNT(*) FROM students WHERE status = 'RETIRADO') AS withdrawn_students,
    (SELECT COUNT(*) FROM invoices WHERE status = 'PENDIENTE') AS pending_invoices,
    (SELECT COUNT(*) FROM invoices WHERE status = 'PAGADO') AS paid_invoices,
    (SELECT COUNT(*) FROM procedures WHERE status IN ('PENDIENTE', 'EN_PROCESO')) AS pending_procedures,
    (SELECT COUNT(*) FROM procedures WHERE status = 'APROBADO') AS approved_procedures,
    (SELECT COUNT(*) FROM procedures WHERE assigned_to IS NULL AND status IN ('PENDIENTE', 'EN_PROCESO')) AS unassigned_procedures`
	var stats models.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}
