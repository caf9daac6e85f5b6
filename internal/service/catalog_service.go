package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/internal/workflow"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

const catalogCacheKey = "catalog:procedure-types"

type procedureTypeLister interface {
	List(ctx context.Context) ([]models.ProcedureType, error)
}

// CatalogService serves the procedure type catalog, read through the cache.
type CatalogService struct {
	repo   procedureTypeLister
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo procedureTypeLister, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns every procedure type ordered by name.
func (s *CatalogService) List(ctx context.Context) ([]models.ProcedureType, error) {
	types, _, err := Remember(ctx, s.cache, catalogCacheKey, s.ttl, func(ctx context.Context) ([]models.ProcedureType, error) {
		types, err := s.repo.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load procedure types")
		}
		return types, nil
	})
	return types, err
}

// Catalog returns the list indexed by code.
func (s *CatalogService) Catalog(ctx context.Context) (workflow.Catalog, error) {
	types, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return workflow.NewCatalog(types), nil
}

// Lookup returns one type; unknown codes are a validation error.
func (s *CatalogService) Lookup(ctx context.Context, code string) (models.ProcedureType, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return models.ProcedureType{}, err
	}
	procType, ok := catalog.Lookup(strings.TrimSpace(code))
	if !ok {
		return models.ProcedureType{}, appErrors.Clone(appErrors.ErrValidation, "unknown procedure type")
	}
	return procType, nil
}
