package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/internal/repository"
	"github.com/noah-isme/portal-colegio-api/internal/workflow"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type procedureRepository interface {
	Create(ctx context.Context, procedure *models.Procedure) error
	GetByID(ctx context.Context, id int64) (*models.Procedure, error)
	List(ctx context.Context, scope repository.ProcedureScope, filter models.ProcedureFilter) ([]models.Procedure, error)
	Update(ctx context.Context, procedure *models.Procedure) error
	Delete(ctx context.Context, id int64) error
}

type procedureCatalog interface {
	Catalog(ctx context.Context) (workflow.Catalog, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

// ProcedureServiceParams groups constructor dependencies.
type ProcedureServiceParams struct {
	Repo      procedureRepository
	Catalog   procedureCatalog
	Students  studentFinder
	Users     userFinder
	Engine    *workflow.Engine
	Audit     AuditRecorder
	Metrics   *MetricsService
	Cache     *CacheService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// ProcedureService loads procedures, runs them through the workflow engine and
// persists the result.
type ProcedureService struct {
	repo      procedureRepository
	catalog   procedureCatalog
	students  studentFinder
	users     userFinder
	engine    *workflow.Engine
	audit     AuditRecorder
	metrics   *MetricsService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProcedureService constructs a ProcedureService.
func NewProcedureService(params ProcedureServiceParams) *ProcedureService {
	if params.Engine == nil {
		params.Engine = workflow.NewEngine()
	}
	if params.Audit == nil {
		params.Audit = nopAuditRecorder{}
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &ProcedureService{
		repo:      params.Repo,
		catalog:   params.Catalog,
		students:  params.Students,
		users:     params.Users,
		engine:    params.Engine,
		audit:     params.Audit,
		metrics:   params.Metrics,
		cache:     params.Cache,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

// List returns the procedures visible to actor that match query.
func (s *ProcedureService) List(ctx context.Context, actor authz.Actor, query dto.ProcedureListQuery) ([]models.Procedure, error) {
	filter, err := procedureFilterFromQuery(query)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, actor, filter)
}

// ListForStudent returns the procedures of one student. Parents must be
// linked to it.
func (s *ProcedureService) ListForStudent(ctx context.Context, actor authz.Actor, studentID int64, query dto.ProcedureListQuery) ([]models.Procedure, error) {
	if err := requireStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	filter, err := procedureFilterFromQuery(query)
	if err != nil {
		return nil, err
	}
	filter.StudentID = &studentID
	return s.list(ctx, actor, filter)
}

func (s *ProcedureService) list(ctx context.Context, actor authz.Actor, filter models.ProcedureFilter) ([]models.Procedure, error) {
	procedures, err := s.repo.List(ctx, procedureScope(actor), filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list procedures")
	}
	return workflow.Visible(actor, procedures, filter), nil
}

// Get returns one procedure if actor may see it.
func (s *ProcedureService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Procedure, error) {
	procedure, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanView(actor, *procedure) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "procedure is not visible to this user")
	}
	return procedure, nil
}

// Create opens a procedure in PENDIENTE.
func (s *ProcedureService) Create(ctx context.Context, actor authz.Actor, req dto.CreateProcedureRequest) (*models.Procedure, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid procedure payload")
	}
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	procedure, err := s.engine.CreateProcedure(workflow.CreateInput{
		StudentID:   req.StudentID,
		TypeCode:    req.ProcedureType,
		Description: req.Description,
	}, catalog, actor)
	if err != nil {
		s.reject("create", err)
		return nil, err
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.repo.Create(ctx, &procedure); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create procedure")
	}
	s.audit.Record(ctx, actor.Identity, models.AuditEntityProcedure, procedure.ID, models.AuditActionCreate, map[string]interface{}{
		"student_id":     procedure.StudentID,
		"procedure_type": procedure.ProcedureType,
		"status":         procedure.Status,
	})
	invalidateDashboard(ctx, s.cache)
	return s.reload(ctx, procedure), nil
}

// Update applies a partial change: assignment first, then the status change
// or the notes. Nothing is persisted unless every step is accepted, and a
// request that changes nothing is neither written nor audited.
func (s *ProcedureService) Update(ctx context.Context, actor authz.Actor, id int64, req dto.UpdateProcedureRequest) (*dto.ProcedureUpdateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid procedure payload")
	}
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	original := *current
	updated := *current
	var advisories []workflow.Advisory

	if req.AssignedTo.Set {
		procType, err := s.procedureType(ctx, updated.ProcedureType)
		if err != nil {
			return nil, err
		}
		if req.AssignedTo.Value == nil {
			updated, advisories, err = s.engine.Unassign(updated, procType, actor)
			if err != nil {
				s.reject("unassign", err)
				return nil, err
			}
		} else {
			candidate, err := s.candidate(ctx, *req.AssignedTo.Value)
			if err != nil {
				s.reject("assign", err)
				return nil, err
			}
			updated, advisories, err = s.engine.Assign(updated, candidate, procType, actor)
			if err != nil {
				s.reject("assign", err)
				return nil, err
			}
		}
	}

	switch {
	case req.Status != nil && *req.Status == updated.Status && updated.Status.Terminal() && req.Notes != nil:
		// A resolved procedure echoed back with notes is a notes edit.
		updated, err = s.engine.Annotate(updated, *req.Notes, actor)
		if err != nil {
			s.reject("annotate", err)
			return nil, err
		}
	case req.Status != nil:
		updated, err = s.engine.Transition(updated, *req.Status, req.Notes, actor)
		if err != nil {
			s.reject("transition", err)
			return nil, err
		}
	case req.Notes != nil:
		updated, err = s.engine.Annotate(updated, *req.Notes, actor)
		if err != nil {
			s.reject("annotate", err)
			return nil, err
		}
	}

	response := &dto.ProcedureUpdateResponse{Procedure: updated}
	changes := procedureChanges(original, updated)
	if len(changes) > 0 {
		if err := s.repo.Update(ctx, &updated); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "procedure not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update procedure")
		}

		if original.Status != updated.Status {
			s.metrics.RecordTransition(original.Status, updated.Status)
		}
		s.audit.Record(ctx, actor.Identity, models.AuditEntityProcedure, updated.ID, models.AuditActionUpdate, changes)
		invalidateDashboard(ctx, s.cache)
		response.Procedure = *s.reload(ctx, updated)
	}

	for _, advisory := range advisories {
		response.Advisories = append(response.Advisories, dto.AdvisoryResponse{Code: string(advisory), Message: advisory.Message()})
	}
	return response, nil
}

// Delete removes a procedure. ADMIN only.
func (s *ProcedureService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if !actor.HasRole(authz.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can delete procedures")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "procedure not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete procedure")
	}
	s.audit.Record(ctx, actor.Identity, models.AuditEntityProcedure, id, models.AuditActionDelete, nil)
	invalidateDashboard(ctx, s.cache)
	return nil
}

func (s *ProcedureService) load(ctx context.Context, id int64) (*models.Procedure, error) {
	procedure, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "procedure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load procedure")
	}
	return procedure, nil
}

// reload refreshes the joined display names after a write; the written value
// is returned when the read fails.
func (s *ProcedureService) reload(ctx context.Context, procedure models.Procedure) *models.Procedure {
	fresh, err := s.repo.GetByID(ctx, procedure.ID)
	if err != nil {
		s.logger.Warn("failed to reload procedure", zap.Int64("procedure_id", procedure.ID), zap.Error(err))
		return &procedure
	}
	return fresh
}

func (s *ProcedureService) procedureType(ctx context.Context, code string) (models.ProcedureType, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return models.ProcedureType{}, err
	}
	if procType, ok := catalog.Lookup(code); ok {
		return procType, nil
	}
	return models.ProcedureType{Code: code}, nil
}

// candidate loads a prospective assignee. Unknown and inactive users are
// ineligible.
func (s *ProcedureService) candidate(ctx context.Context, userID int64) (authz.Identity, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authz.Identity{}, appErrors.Clone(appErrors.ErrIneligibleAssignee, "assignee does not exist")
		}
		return authz.Identity{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
	}
	if !user.Active {
		return authz.Identity{}, appErrors.Clone(appErrors.ErrIneligibleAssignee, "assignee account is inactive")
	}
	roles := make([]authz.Role, 0, len(user.Roles))
	for _, raw := range user.Roles {
		if role, err := authz.ParseRole(raw); err == nil {
			roles = append(roles, role)
		}
	}
	return authz.Identity{ID: user.ID, Name: user.FullName, Email: user.Email, Roles: authz.NewRoleSet(roles...)}, nil
}

func (s *ProcedureService) reject(operation string, err error) {
	code := appErrors.FromError(err).Code
	s.metrics.RecordRejection(operation, code)
	s.logger.Debug("procedure operation rejected", zap.String("operation", operation), zap.String("code", code))
}

// requireStudentAccess applies the shared student scope rule.
func requireStudentAccess(actor authz.Actor, studentID int64) error {
	if authz.CanAccessStudent(actor, studentID) {
		return nil
	}
	if actor.HasRole(authz.RoleParent) {
		return appErrors.Clone(appErrors.ErrUnauthorizedStudentLink, "")
	}
	return appErrors.Clone(appErrors.ErrForbidden, "student is outside your scope")
}

func procedureChanges(before, after models.Procedure) map[string]interface{} {
	changes := map[string]interface{}{}
	if before.Status != after.Status {
		changes["status"] = map[string]interface{}{"from": before.Status, "to": after.Status}
	}
	if !equalInt64Ptr(before.AssignedTo, after.AssignedTo) {
		changes["assigned_to"] = map[string]interface{}{"from": before.AssignedTo, "to": after.AssignedTo}
	}
	if !equalStringPtr(before.Notes, after.Notes) {
		changes["notes"] = after.Notes
	}
	return changes
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
