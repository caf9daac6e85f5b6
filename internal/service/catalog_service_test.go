package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type procedureTypeRepoStub struct {
	types []models.ProcedureType
	calls int
	err   error
}

func (s *procedureTypeRepoStub) List(ctx context.Context) ([]models.ProcedureType, error) {
	s.calls++
	return s.types, s.err
}

type dashboardRepoStub struct {
	stats models.DashboardStats
	calls int
}

func (s *dashboardRepoStub) Stats(ctx context.Context) (*models.DashboardStats, error) {
	s.calls++
	stats := s.stats
	return &stats, nil
}

type parentLinksStub map[int64][]int64

func (s parentLinksStub) StudentIDsForParent(ctx context.Context, parentID int64) ([]int64, error) {
	if ids, ok := s[parentID]; ok {
		return ids, nil
	}
	return nil, errors.New("boom")
}

func TestCatalogServiceReadsThroughCache(t *testing.T) {
	repo := &procedureTypeRepoStub{types: []models.ProcedureType{{Code: "CERT", Name: "Certificado"}, {Code: "EVAL", RequiresTeacher: true}}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewCatalogService(repo, cache, time.Minute, nil)
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)

	procType, err := svc.Lookup(ctx, " EVAL ")
	require.NoError(t, err)
	assert.True(t, procType.RequiresTeacher)

	_, err = svc.Lookup(ctx, "NOPE")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceWithoutCache(t *testing.T) {
	repo := &procedureTypeRepoStub{err: errors.New("db down")}
	svc := NewCatalogService(repo, nil, 0, nil)

	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestDashboardServiceCachesAndInvalidates(t *testing.T) {
	repo := &dashboardRepoStub{stats: models.DashboardStats{TotalStudents: 12}}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, time.Minute, nil)
	ctx := context.Background()

	stats, cached, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 12, stats.TotalStudents)

	_, cached, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, repo.calls)

	invalidateDashboard(ctx, cache)
	_, cached, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, repo.calls)
}

func TestActorResolver(t *testing.T) {
	resolver := NewActorResolver(parentLinksStub{7: {3, 4}})
	ctx := context.Background()

	actor, err := resolver.Resolve(ctx, identity(7, authz.RoleParent))
	require.NoError(t, err)
	assert.True(t, actor.IsLinked(3))
	assert.False(t, actor.IsLinked(5))

	actor, err = resolver.Resolve(ctx, identity(99, authz.RoleTeacher))
	require.NoError(t, err)
	assert.Empty(t, actor.Students)

	_, err = resolver.Resolve(ctx, identity(99, authz.RoleParent))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
