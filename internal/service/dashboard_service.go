package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

// dashboardCacheKey is invalidated by every write that changes a dashboard count.
const dashboardCacheKey = "dash:counselor"

const (
	dashboardUpcomingLimit = 5
	dashboardRecentLimit   = 10
)

type dashboardCounter interface {
	Counts(ctx context.Context) (models.DashboardCounts, error)
}

type upcomingInterventionReader interface {
	Upcoming(ctx context.Context, from time.Time, limit int) ([]models.Intervention, error)
}

type recentAlertReader interface {
	Recent(ctx context.Context, limit int) ([]models.Alert, error)
}

// DashboardConfig governs dashboard caching.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// DashboardService builds the counselor caseload summary.
type DashboardService struct {
	counts        dashboardCounter
	interventions upcomingInterventionReader
	alerts        recentAlertReader
	cache         *CacheService
	logger        *zap.Logger
	cfg           DashboardConfig
	now           func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(counts dashboardCounter, interventions upcomingInterventionReader, alerts recentAlertReader, cache *CacheService, logger *zap.Logger, cfg DashboardConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &DashboardService{counts: counts, interventions: interventions, alerts: alerts, cache: cache, logger: logger, cfg: cfg, now: time.Now}
}

// Counselor returns the dashboard and whether it was served from cache.
func (s *DashboardService) Counselor(ctx context.Context) (*models.CounselorDashboard, bool, error) {
	if !s.cfg.Enabled {
		return nil, false, appErrors.ErrFeatureDisabled
	}
	var cached models.CounselorDashboard
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	var (
		counts   models.DashboardCounts
		upcoming []models.Intervention
		recent   []models.Alert
	)
	now := s.now().UTC()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.counts.Counts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		upcoming, err = s.interventions.Upcoming(gctx, now, dashboardUpcomingLimit)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.alerts.Recent(gctx, dashboardRecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, internalError(err, "failed to build dashboard")
	}

	if upcoming == nil {
		upcoming = []models.Intervention{}
	}
	if recent == nil {
		recent = []models.Alert{}
	}
	dashboard := &models.CounselorDashboard{
		HighRiskStudents:       counts.HighRisk,
		MediumRiskStudents:     counts.MediumRisk,
		UnresolvedAlerts:       counts.UnresolvedAlerts,
		UnreadAlerts:           counts.UnreadAlerts,
		ScheduledInterventions: counts.ScheduledInterventions,
		UpcomingInterventions:  upcoming,
		RecentAlerts:           recent,
		GeneratedAt:            now,
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, dashboard, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return dashboard, false, nil
}
