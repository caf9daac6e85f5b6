package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:stats"

type dashboardStatsRepository interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// DashboardService serves the admin dashboard counters through the cache.
type DashboardService struct {
	repo   dashboardStatsRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardStatsRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Stats returns the counters and whether they came from the cache.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	stats, hit, err := Remember(ctx, s.cache, dashboardCacheKey, s.ttl, func(ctx context.Context) (models.DashboardStats, error) {
		stats, err := s.repo.Stats(ctx)
		if err != nil || stats == nil {
			return models.DashboardStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
		}
		return *stats, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &stats, hit, nil
}

// invalidateDashboard drops the cached counters after a write that moves them.
func invalidateDashboard(ctx context.Context, cache *CacheService) {
	cache.Invalidate(ctx, dashboardCacheKey)
}
