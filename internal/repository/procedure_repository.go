package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

const procedureSelect = `SELECT p.id, p.student_id, p.procedure_type, p.description, p.status, p.assigned_to, p.requested_by,
       p.notes, p.created_at, p.approved_at, p.approved_by,
       s.full_name AS student_name, pt.name AS type_name, au.full_name AS assigned_to_name, ab.full_name AS approved_by_name
FROM procedures p
LEFT JOIN students s ON s.id = p.student_id
LEFT JOIN procedure_types pt ON pt.code = p.procedure_type
LEFT JOIN users au ON au.id = p.assigned_to
LEFT JOIN users ab ON ab.id = p.approved_by`

// ProcedureRepository persists procedure requests.
type ProcedureRepository struct {
	db *sqlx.DB
}

// NewProcedureRepository constructs the repository.
func NewProcedureRepository(db *sqlx.DB) *ProcedureRepository {
	return &ProcedureRepository{db: db}
}

// Create inserts a new procedure and fills its id.
func (r *ProcedureRepository) Create(ctx context.Context, procedure *models.Procedure) error {
	if procedure.Status == "" {
		procedure.Status = models.ProcedureStatusPending
	}
	if procedure.CreatedAt.IsZero() {
		procedure.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO procedures
	(student_id, procedure_type, description, status, assigned_to, requested_by, notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		procedure.StudentID, procedure.ProcedureType, procedure.Description, procedure.Status,
		procedure.AssignedTo, procedure.RequestedBy, procedure.Notes, procedure.CreatedAt,
	).Scan(&procedure.ID); err != nil {
		return fmt.Errorf("create procedure: %w", err)
	}
	return nil
}

// GetByID fetches a procedure with its display names.
func (r *ProcedureRepository) GetByID(ctx context.Context, id int64) (*models.Procedure, error) {
	query := procedureSelect + ` WHERE p.id = $1`
	var procedure models.Procedure
	if err := r.db.GetContext(ctx, &procedure, query, id); err != nil {
		return nil, err
	}
	return &procedure, nil
}

// ProcedureScope narrows a listing to what an actor may see. ADMIN lists are
// unscoped; otherwise the union of AssignedTo and StudentIDs is returned.
type ProcedureScope struct {
	All        bool
	AssignedTo *int64
	StudentIDs []int64
}

// List returns procedures inside scope that match filter, newest first.
func (r *ProcedureRepository) List(ctx context.Context, scope ProcedureScope, filter models.ProcedureFilter) ([]models.Procedure, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 8)
	builder.WriteString(procedureSelect)

	conditions := make([]string, 0, 8)
	if !scope.All {
		scoped := make([]string, 0, 2)
		if scope.AssignedTo != nil {
			args = append(args, *scope.AssignedTo)
			scoped = append(scoped, fmt.Sprintf("p.assigned_to = $%d", len(args)))
		}
		if len(scope.StudentIDs) > 0 {
			placeholders := make([]string, len(scope.StudentIDs))
			for i, id := range scope.StudentIDs {
				args = append(args, id)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			scoped = append(scoped, fmt.Sprintf("p.student_id IN (%s)", strings.Join(placeholders, ",")))
		}
		if len(scoped) == 0 {
			return []models.Procedure{}, nil
		}
		conditions = append(conditions, "("+strings.Join(scoped, " OR ")+")")
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("p.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ProcedureType != "" {
		args = append(args, filter.ProcedureType)
		conditions = append(conditions, fmt.Sprintf("p.procedure_type = $%d", len(args)))
	}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("p.assigned_to = $%d", len(args)))
	}
	if filter.Unassigned {
		conditions = append(conditions, "p.assigned_to IS NULL")
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("p.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("p.created_at <= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.description) LIKE $%d OR LOWER(s.full_name) LIKE $%d)", len(args), len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY p.created_at DESC")

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

	var procedures []models.Procedure
	if err := r.db.SelectContext(ctx, &procedures, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	return procedures, nil
}

// Update persists the mutable columns of a procedure. Rows whose approval was
// already stamped are never re-stamped.
func (r *ProcedureRepository) Update(ctx context.Context, procedure *models.Procedure) error {
	const query = `UPDATE procedures SET status = :status, assigned_to = :assigned_to, notes = :notes,
	approved_at = COALESCE(approved_at, :approved_at), approved_by = COALESCE(approved_by, :approved_by)
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, procedure)
	if err != nil {
		return fmt.Errorf("update procedure: %w", err)
	}
	return expectAffected(result, "update procedure")
}

// Delete removes a procedure.
func (r *ProcedureRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM procedures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete procedure: %w", err)
	}
	return expectAffected(result, "delete procedure")
}
