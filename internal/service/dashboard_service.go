package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
)

type dashboardStore interface {
	ClanDashboard(ctx context.Context, clanID string) (*models.ClanDashboard, error)
}

type dashboardClanStore interface {
	GetClan(ctx context.Context, id string) (*models.Clan, error)
}

// DashboardService composes the per-clan overview, backed by a short-lived
// Redis cache.
type DashboardService struct {
	analytics dashboardStore
	clans     dashboardClanStore
	cache     *CacheService
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewDashboardService constructs the service.
func NewDashboardService(analytics dashboardStore, clans dashboardClanStore, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		analytics: analytics,
		clans:     clans,
		cache:     cache,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// ClanOverview returns aggregate counters for one clan and reports whether the
// response came from cache.
func (s *DashboardService) ClanOverview(ctx context.Context, clanID string) (*models.ClanDashboard, bool, error) {
	if _, err := uuid.Parse(clanID); err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "clan id must be a valid UUID")
	}

	cacheKey := "dash:clan:" + clanID
	if s.cache.Enabled() {
		var cached models.ClanDashboard
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	if _, err := s.clans.GetClan(ctx, clanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "clan not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clan")
	}

	dashboard, err := s.analytics.ClanDashboard(ctx, clanID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, dashboard, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return dashboard, false, nil
}
