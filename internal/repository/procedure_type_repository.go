package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

// ProcedureTypeRepository reads the procedure type catalog.
type ProcedureTypeRepository struct {
	db *sqlx.DB
}

// NewProcedureTypeRepository constructs the repository.
func NewProcedureTypeRepository(db *sqlx.DB) *ProcedureTypeRepository {
	return &ProcedureTypeRepository{db: db}
}

// List returns the whole catalog ordered by name.
func (r *ProcedureTypeRepository) List(ctx context.Context) ([]models.ProcedureType, error) {
	const query = `SELECT code, name, description, requires_teacher FROM procedure_types ORDER BY name`
	var types []models.ProcedureType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list procedure types: %w", err)
	}
	return types, nil
}
