package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	ListRoles(ctx context.Context) ([]models.RoleInfo, error)
	ListAssignable(ctx context.Context) ([]models.AssignableUser, error)
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if audit == nil {
		audit = nopAuditRecorder{}
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, query dto.UserListQuery) ([]models.User, *models.Pagination, error) {
	filter := models.UserFilter{
		Active:    query.Active,
		Search:    strings.TrimSpace(query.Search),
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Role != "" {
		role, err := authz.ParseRole(query.Role)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "role must be ADMIN, MAESTRO or PADRE")
		}
		filter.Role = string(role)
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Roles lists the roles and the permissions each one grants.
func (s *UserService) Roles(ctx context.Context) ([]models.RoleInfo, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return roles, nil
}

// Assignable lists the active users that may receive procedures.
func (s *UserService) Assignable(ctx context.Context) ([]models.AssignableUser, error) {
	users, err := s.repo.ListAssignable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignable users")
	}
	return users, nil
}

// Create adds a new user.
func (s *UserService) Create(ctx context.Context, actor authz.Identity, req dto.CreateUserRequest) (*models.User, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}
	roles, err := normaliseRoles(req.Roles)
	if err != nil {
		return nil, err
	}
	email := req.Email
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        email,
		FullName:     req.FullName,
		PasswordHash: string(passwordHash),
		Active:       true,
		Roles:        roles,
	}
	if req.IsActive != nil {
		user.Active = *req.IsActive
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.audit.Record(ctx, actor, models.AuditEntityUser, user.ID, models.AuditActionCreate, map[string]interface{}{
		"email": user.Email,
		"roles": user.Roles,
	})
	return user, nil
}

// Update modifies the user attributes. Roles, when given, replace the set.
func (s *UserService) Update(ctx context.Context, actor authz.Identity, id int64, req dto.UpdateUserRequest) (*models.User, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	if req.Email != nil && *req.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email cannot be empty")
	}
	if req.FullName != nil && *req.FullName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "full_name cannot be empty")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousRoles := user.Roles
	before := map[string]interface{}{"roles": previousRoles, "is_active": user.Active}

	if req.Email != nil {
		email := *req.Email
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	if req.IsActive != nil {
		if !*req.IsActive && user.ID == actor.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "you cannot deactivate your own account")
		}
		user.Active = *req.IsActive
	}
	if req.Roles != nil {
		roles, err := normaliseRoles(req.Roles)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
	} else {
		// nil leaves user_roles untouched
		user.Roles = nil
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if req.Roles == nil {
		user.Roles = previousRoles
	}

	s.audit.Record(ctx, actor, models.AuditEntityUser, user.ID, models.AuditActionUpdate, map[string]interface{}{
		"before": before,
		"after":  map[string]interface{}{"roles": user.Roles, "is_active": user.Active},
	})
	return user, nil
}

// Delete removes a user. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor authz.Identity, id int64) error {
	if id == actor.ID {
		return appErrors.Clone(appErrors.ErrValidation, "you cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.audit.Record(ctx, actor, models.AuditEntityUser, id, models.AuditActionDelete, nil)
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, ownerID int64) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.ID != ownerID {
			return appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	return nil
}

// normaliseRoles validates role tags and returns them sorted and deduplicated.
func normaliseRoles(raw []string) ([]string, error) {
	set, err := authz.ParseRoleSet(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "roles must be ADMIN, MAESTRO or PADRE")
	}
	if len(set) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one role is required")
	}
	return set.Strings(), nil
}
