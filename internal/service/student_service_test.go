package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type studentRepoStub struct {
	students   map[int64]models.Student
	links      map[int64][]int64
	lastFilter models.StudentFilter
	nextID     int64
}

func newStudentRepoStub(students ...models.Student) *studentRepoStub {
	repo := &studentRepoStub{students: map[int64]models.Student{}, links: map[int64][]int64{}, nextID: 50}
	for _, st := range students {
		repo.students[st.ID] = st
	}
	return repo
}

func (r *studentRepoStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	r.lastFilter = filter
	out := []models.Student{}
	for _, st := range r.students {
		if filter.ParentID != nil {
			linked := false
			for _, id := range r.links[*filter.ParentID] {
				if id == st.ID {
					linked = true
				}
			}
			if !linked {
				continue
			}
		}
		out = append(out, st)
	}
	return out, len(out), nil
}

func (r *studentRepoStub) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	st, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &st, nil
}

func (r *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	r.nextID++
	student.ID = r.nextID
	r.students[student.ID] = *student
	return nil
}

func (r *studentRepoStub) Update(ctx context.Context, student *models.Student) error {
	if _, ok := r.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	r.students[student.ID] = *student
	return nil
}

func (r *studentRepoStub) Delete(ctx context.Context, id int64) error {
	if _, ok := r.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.students, id)
	return nil
}

func (r *studentRepoStub) ListParents(ctx context.Context, studentID int64) ([]models.ParentLink, error) {
	out := []models.ParentLink{}
	for parent, ids := range r.links {
		for _, id := range ids {
			if id == studentID {
				out = append(out, models.ParentLink{ParentID: parent, StudentID: studentID})
			}
		}
	}
	return out, nil
}

func (r *studentRepoStub) LinkParent(ctx context.Context, parentID, studentID int64) error {
	r.links[parentID] = append(r.links[parentID], studentID)
	return nil
}

func (r *studentRepoStub) UnlinkParent(ctx context.Context, parentID, studentID int64) error {
	ids := r.links[parentID]
	for i, id := range ids {
		if id == studentID {
			r.links[parentID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func newStudentFixture() (*StudentService, *studentRepoStub, *stubAuditRecorder, *memoryCacheRepo) {
	repo := newStudentRepoStub(
		models.Student{ID: 1, FullName: "Sofia Rojas", Status: models.StudentStatusActive},
		models.Student{ID: 2, FullName: "Tomas Diaz", Status: models.StudentStatusLate},
	)
	users := userFinderStub{
		20: {ID: 20, FullName: "Padre", Active: true, Roles: []string{"PADRE"}},
		21: {ID: 21, FullName: "Profe", Active: true, Roles: []string{"MAESTRO"}},
	}
	audit := &stubAuditRecorder{}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	return NewStudentService(repo, users, audit, cache, nil, nil), repo, audit, cacheRepo
}

func TestStudentServiceList(t *testing.T) {
	svc, repo, _, _ := newStudentFixture()

	students, pagination, err := svc.List(context.Background(), dto.StudentListQuery{Status: "atrasado", Search: " tom "})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, models.StudentStatusLate, repo.lastFilter.Status)
	assert.Equal(t, "tom", repo.lastFilter.Search)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 2, pagination.TotalCount)

	_, _, err = svc.List(context.Background(), dto.StudentListQuery{Status: "GRADUADO"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateDefaultsStatus(t *testing.T) {
	svc, repo, audit, cacheRepo := newStudentFixture()
	cacheRepo.store[dashboardCacheKey] = []byte(`{}`)
	email := " sofia@colegio.cl "

	student, err := svc.Create(context.Background(), identity(1, authz.RoleAdmin), dto.CreateStudentRequest{FullName: " Ana Perez ", GoogleEmail: &email})
	require.NoError(t, err)
	assert.Equal(t, "Ana Perez", student.FullName)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Equal(t, "sofia@colegio.cl", *student.GoogleEmail)
	assert.Contains(t, repo.students, student.ID)
	require.Len(t, audit.entries, 1)
	assert.NotContains(t, cacheRepo.store, dashboardCacheKey)

	_, err = svc.Create(context.Background(), identity(1, authz.RoleAdmin), dto.CreateStudentRequest{FullName: "X", Status: "OTRO"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdate(t *testing.T) {
	svc, _, _, _ := newStudentFixture()
	status := models.StudentStatusWithdrawn

	student, err := svc.Update(context.Background(), identity(1, authz.RoleAdmin), 2, dto.UpdateStudentRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusWithdrawn, student.Status)
	assert.Equal(t, "Tomas Diaz", student.FullName)

	blank := "  "
	_, err = svc.Update(context.Background(), identity(1, authz.RoleAdmin), 2, dto.UpdateStudentRequest{FullName: &blank})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	padded := " tomas@colegio.cl "
	student, err = svc.Update(context.Background(), identity(1, authz.RoleAdmin), 2, dto.UpdateStudentRequest{GoogleEmail: &padded})
	require.NoError(t, err)
	require.NotNil(t, student.GoogleEmail)
	assert.Equal(t, "tomas@colegio.cl", *student.GoogleEmail)

	cleared := " "
	student, err = svc.Update(context.Background(), identity(1, authz.RoleAdmin), 2, dto.UpdateStudentRequest{GoogleEmail: &cleared})
	require.NoError(t, err)
	assert.Nil(t, student.GoogleEmail)

	_, err = svc.Update(context.Background(), identity(1, authz.RoleAdmin), 404, dto.UpdateStudentRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDelete(t *testing.T) {
	svc, repo, audit, _ := newStudentFixture()

	require.NoError(t, svc.Delete(context.Background(), identity(1, authz.RoleAdmin), 1))
	assert.NotContains(t, repo.students, int64(1))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionDelete, audit.entries[0].action)

	err := svc.Delete(context.Background(), identity(1, authz.RoleAdmin), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceParentLinks(t *testing.T) {
	svc, repo, audit, _ := newStudentFixture()
	admin := identity(1, authz.RoleAdmin)
	ctx := context.Background()

	require.NoError(t, svc.LinkParent(ctx, admin, 1, 20))
	assert.Equal(t, []int64{1}, repo.links[20])

	err := svc.LinkParent(ctx, admin, 1, 21)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.LinkParent(ctx, admin, 404, 20)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	parents, err := svc.Parents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, int64(20), parents[0].ParentID)

	mine, _, err := svc.ListForParent(ctx, identity(20, authz.RoleParent))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].ID)

	require.NoError(t, svc.UnlinkParent(ctx, admin, 1, 20))
	err = svc.UnlinkParent(ctx, admin, 1, 20)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.Len(t, audit.entries, 2)
	assert.Equal(t, models.AuditEntityParent, audit.entries[0].entityType)
	assert.Equal(t, models.AuditActionDelete, audit.entries[1].action)
}
