package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errRedisDown = errors.New("redis down")

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errRedisDown
}

func (brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errRedisDown
}

func (brokenCacheRepo) Delete(context.Context, ...string) error {
	return errRedisDown
}

func TestRememberLoadsOnceAndCountsHits(t *testing.T) {
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) ([]string, error) {
		loads++
		return []string{"CERT", "EVAL"}, nil
	}

	first, hit, err := Remember(ctx, cache, "catalog", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := Remember(ctx, cache, "catalog", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestRememberDoesNotCacheFailures(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	boom := errors.New("db down")

	_, _, err := Remember(context.Background(), cache, "dashboard:stats", 0, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, repo.store)
}

func TestCacheServiceDegradesToMisses(t *testing.T) {
	ctx := context.Background()
	for name, cache := range map[string]*CacheService{
		"nil":      nil,
		"disabled": NewCacheService(newMemoryCacheRepo(), nil, 0, nil, false),
		"broken":   NewCacheService(brokenCacheRepo{}, nil, 0, nil, true),
	} {
		t.Run(name, func(t *testing.T) {
			value, hit, err := Remember(ctx, cache, "k", 0, func(context.Context) (int, error) { return 42, nil })
			require.NoError(t, err)
			assert.False(t, hit)
			assert.Equal(t, 42, value)
			assert.NotPanics(t, func() { cache.Invalidate(ctx, "k") })
		})
	}
}

func TestInvalidateDropsExactKeys(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()
	cache.Set(ctx, "dashboard:stats", 1, 0)
	cache.Set(ctx, "catalog:procedure-types", 2, 0)

	invalidateDashboard(ctx, cache)

	assert.Equal(t, []string{"dashboard:stats"}, repo.invalidated)
	assert.NotContains(t, repo.store, "dashboard:stats")
	assert.Contains(t, repo.store, "catalog:procedure-types")
}
