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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
	ListParents(ctx context.Context, studentID int64) ([]models.ParentLink, error)
	LinkParent(ctx context.Context, parentID, studentID int64) error
	UnlinkParent(ctx context.Context, parentID, studentID int64) error
}

type userFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// StudentService handles student use-cases and parent links.
type StudentService struct {
	repo      studentRepository
	users     userFinder
	audit     AuditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, users userFinder, audit AuditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = nopAuditRecorder{}
	}
	return &StudentService{repo: repo, users: users, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, query dto.StudentListQuery) ([]models.Student, *models.Pagination, error) {
	filter := models.StudentFilter{
		Search:    strings.TrimSpace(query.Search),
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Status != "" {
		status := models.StudentStatus(strings.ToUpper(query.Status))
		if !validStudentStatus(status) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be VIGENTE, ATRASADO or RETIRADO")
		}
		filter.Status = status
	}
	return s.list(ctx, filter)
}

// ListForParent returns the students linked to the parent actor.
func (s *StudentService) ListForParent(ctx context.Context, actor authz.Identity) ([]models.Student, *models.Pagination, error) {
	parentID := actor.ID
	return s.list(ctx, models.StudentFilter{ParentID: &parentID, PageSize: 500})
}

func (s *StudentService) list(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, actor authz.Identity, req dto.CreateStudentRequest) (*models.Student, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		FullName:    req.FullName,
		GoogleEmail: trimmedOrNil(req.GoogleEmail),
		Status:      req.Status,
	}
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.audit.Record(ctx, actor, models.AuditEntityStudent, student.ID, models.AuditActionCreate, student)
	invalidateDashboard(ctx, s.cache)
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, actor authz.Identity, id int64, req dto.UpdateStudentRequest) (*models.Student, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		if *req.FullName == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "full_name cannot be empty")
		}
		student.FullName = *req.FullName
	}
	if req.GoogleEmail != nil {
		student.GoogleEmail = trimmedOrNil(req.GoogleEmail)
	}
	if req.Status != nil {
		student.Status = *req.Status
	}
	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.audit.Record(ctx, actor, models.AuditEntityStudent, student.ID, models.AuditActionUpdate, req)
	invalidateDashboard(ctx, s.cache)
	return student, nil
}

// Delete removes a student together with its links, invoices and procedures.
func (s *StudentService) Delete(ctx context.Context, actor authz.Identity, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.audit.Record(ctx, actor, models.AuditEntityStudent, id, models.AuditActionDelete, nil)
	invalidateDashboard(ctx, s.cache)
	return nil
}

// Parents lists the parent links of a student.
func (s *StudentService) Parents(ctx context.Context, studentID int64) ([]models.ParentLink, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	links, err := s.repo.ListParents(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return links, nil
}

// LinkParent binds a PADRE user to a student.
func (s *StudentService) LinkParent(ctx context.Context, actor authz.Identity, studentID, parentID int64) error {
	if _, err := s.Get(ctx, studentID); err != nil {
		return err
	}
	parent, err := s.users.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent user")
	}
	if !containsRole(parent.Roles, authz.RoleParent) {
		return appErrors.Clone(appErrors.ErrValidation, "user does not hold the PADRE role")
	}
	if err := s.repo.LinkParent(ctx, parentID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link parent")
	}
	s.audit.Record(ctx, actor, models.AuditEntityParent, studentID, models.AuditActionCreate, map[string]int64{"parent_id": parentID, "student_id": studentID})
	return nil
}

// UnlinkParent removes a parent-student link.
func (s *StudentService) UnlinkParent(ctx context.Context, actor authz.Identity, studentID, parentID int64) error {
	if err := s.repo.UnlinkParent(ctx, parentID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent link not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlink parent")
	}
	s.audit.Record(ctx, actor, models.AuditEntityParent, studentID, models.AuditActionDelete, map[string]int64{"parent_id": parentID, "student_id": studentID})
	return nil
}

func validStudentStatus(status models.StudentStatus) bool {
	switch status {
	case models.StudentStatusActive, models.StudentStatusLate, models.StudentStatusWithdrawn:
		return true
	}
	return false
}

func containsRole(roles []string, role authz.Role) bool {
	for _, r := range roles {
		if strings.EqualFold(r, string(role)) {
			return true
		}
	}
	return false
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
