package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "portal", nil)
	ctx := context.Background()

	var dest map[string]int
	err := repo.Get(ctx, "catalog:procedure-types", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "catalog:procedure-types", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "catalog:procedure-types", "dashboard:stats"))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyNamespace(t *testing.T) {
	assert.Equal(t, "portal:dashboard:stats", NewCacheRepository(nil, "portal", nil).key("dashboard:stats"))
	assert.Equal(t, "dashboard:stats", NewCacheRepository(nil, "", nil).key("dashboard:stats"))
}
