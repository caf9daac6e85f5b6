package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type programRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Program, error)
	GetByID(ctx context.Context, id int64) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	Delete(ctx context.Context, id int64) error
}

// ProgramService manages academic programs.
type ProgramService struct {
	repo      programRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs a ProgramService.
func NewProgramService(repo programRepository, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if audit == nil {
		audit = nopAuditRecorder{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns programs, optionally only the active ones.
func (s *ProgramService) List(ctx context.Context, activeOnly bool) ([]models.Program, error) {
	programs, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// Get returns a program.
func (s *ProgramService) Get(ctx context.Context, id int64) (*models.Program, error) {
	program, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// Create registers a program. New programs are active unless stated.
func (s *ProgramService) Create(ctx context.Context, actor authz.Identity, req dto.ProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program := &models.Program{IsActive: true}
	applyProgramRequest(program, req)
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.audit.Record(ctx, actor, models.AuditEntityProgram, program.ID, models.AuditActionCreate, program)
	return program, nil
}

// Update replaces a program's editable fields.
func (s *ProgramService) Update(ctx context.Context, actor authz.Identity, id int64, req dto.ProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProgramRequest(program, req)
	if err := s.repo.Update(ctx, program); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	s.audit.Record(ctx, actor, models.AuditEntityProgram, program.ID, models.AuditActionUpdate, req)
	return program, nil
}

// Delete removes a program.
func (s *ProgramService) Delete(ctx context.Context, actor authz.Identity, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	s.audit.Record(ctx, actor, models.AuditEntityProgram, id, models.AuditActionDelete, nil)
	return nil
}

func applyProgramRequest(program *models.Program, req dto.ProgramRequest) {
	program.Name = strings.TrimSpace(req.Name)
	program.Description = trimmedOrNil(req.Description)
	program.GoogleClassroomID = trimmedOrNil(req.GoogleClassroomID)
	program.GoogleClassroomLink = trimmedOrNil(req.GoogleClassroomLink)
	if req.IsActive != nil {
		program.IsActive = *req.IsActive
	}
}
