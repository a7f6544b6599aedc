package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
)

type analyticsStub struct {
	dashboard *models.ClanDashboard
	err       error
	calls     int
}

func (s *analyticsStub) ClanDashboard(context.Context, string) (*models.ClanDashboard, error) {
	s.calls++
	return s.dashboard, s.err
}

type dashboardClanStub struct {
	clan *models.Clan
	err  error
}

func (s *dashboardClanStub) GetClan(context.Context, string) (*models.Clan, error) {
	return s.clan, s.err
}

type memoryCacheRepo struct {
	entries  map[string][]byte
	patterns []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (r *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

func TestDashboardServiceClanOverviewBuildsAndCaches(t *testing.T) {
	analytics := &analyticsStub{dashboard: &models.ClanDashboard{ClanID: testClanID, ChestEntries: 42}}
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(analytics, &dashboardClanStub{clan: &models.Clan{ID: testClanID}}, cache, zap.NewNop(), time.Minute)

	dashboard, cached, err := svc.ClanOverview(context.Background(), testClanID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 42, dashboard.ChestEntries)
	assert.Contains(t, repo.entries, "dash:clan:"+testClanID)

	dashboard, cached, err = svc.ClanOverview(context.Background(), testClanID)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 42, dashboard.ChestEntries)
	assert.Equal(t, 1, analytics.calls)
}

func TestDashboardServiceClanOverviewWithoutCache(t *testing.T) {
	analytics := &analyticsStub{dashboard: &models.ClanDashboard{ClanID: testClanID}}
	svc := NewDashboardService(analytics, &dashboardClanStub{clan: &models.Clan{ID: testClanID}}, nil, zap.NewNop(), 0)

	_, cached, err := svc.ClanOverview(context.Background(), testClanID)
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestDashboardServiceClanOverviewUnknownClan(t *testing.T) {
	svc := NewDashboardService(&analyticsStub{}, &dashboardClanStub{err: sql.ErrNoRows}, nil, zap.NewNop(), 0)

	_, _, err := svc.ClanOverview(context.Background(), testClanID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDashboardServiceClanOverviewRejectsBadID(t *testing.T) {
	svc := NewDashboardService(&analyticsStub{}, &dashboardClanStub{}, nil, zap.NewNop(), 0)

	_, _, err := svc.ClanOverview(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
