package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

// AuditLogRepository stores and lists audit trail entries.
type AuditLogRepository struct {
	db *sqlx.DB
}

// NewAuditLogRepository constructs the repository.
func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create stores an audit log entry.
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, entity_type, entity_id, action, user_id, details, created_at)
VALUES (:id, :entity_type, :entity_id, :action, :user_id, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns the latest entries matching filter.
func (r *AuditLogRepository) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT a.id, a.entity_type, a.entity_id, a.action, a.user_id, u.full_name AS user_name, a.details, a.created_at
FROM audit_logs a LEFT JOIN users u ON u.id = a.user_id`)

	conditions := make([]string, 0, 2)
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		conditions = append(conditions, fmt.Sprintf("a.entity_type = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, strings.ToUpper(filter.Action))
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	builder.WriteString(fmt.Sprintf(" ORDER BY a.created_at DESC LIMIT %d", limit))

	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
