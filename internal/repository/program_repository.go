package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

const programColumns = `id, name, description, google_classroom_id, google_classroom_link, is_active, created_at, updated_at`

// ProgramRepository persists academic programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns programs, optionally only the active ones.
func (r *ProgramRepository) List(ctx context.Context, activeOnly bool) ([]models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// GetByID fetches a program.
func (r *ProgramRepository) GetByID(ctx context.Context, id int64) (*models.Program, error) {
	var program models.Program
	if err := r.db.GetContext(ctx, &program, `SELECT `+programColumns+` FROM programs WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// Create inserts a program and fills its id.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	const query = `INSERT INTO programs (name, description, google_classroom_id, google_classroom_link, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		program.Name, program.Description, program.GoogleClassroomID, program.GoogleClassroomLink, program.IsActive, program.CreatedAt, program.UpdatedAt,
	).Scan(&program.ID); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update persists program fields.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET name = :name, description = :description, google_classroom_id = :google_classroom_id,
	google_classroom_link = :google_classroom_link, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, program)
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return expectAffected(result, "update program")
}

// Delete removes a program.
func (r *ProgramRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return expectAffected(result, "delete program")
}
