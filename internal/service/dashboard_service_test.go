package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

type stubDashboardSource struct {
	counts    models.DashboardCounts
	countErr  error
	upcoming  []models.Intervention
	recent    []models.Alert
	countHits int
	from      time.Time
}

func (s *stubDashboardSource) Counts(context.Context) (models.DashboardCounts, error) {
	s.countHits++
	return s.counts, s.countErr
}

func (s *stubDashboardSource) Upcoming(_ context.Context, from time.Time, limit int) ([]models.Intervention, error) {
	s.from = from
	return s.upcoming, nil
}

func (s *stubDashboardSource) Recent(_ context.Context, limit int) ([]models.Alert, error) {
	return s.recent, nil
}

func TestDashboardCounselorCachesResult(t *testing.T) {
	src := &stubDashboardSource{
		counts: models.DashboardCounts{HighRisk: 2, MediumRisk: 5, UnresolvedAlerts: 7, UnreadAlerts: 3, ScheduledInterventions: 1},
		recent: []models.Alert{{ID: "a-1", AlertType: models.AlertHighRisk}},
	}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewDashboardService(src, src, src, cache, nil, DashboardConfig{Enabled: true})
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	dash, hit, err := svc.Counselor(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, dash.HighRiskStudents)
	assert.Equal(t, 5, dash.MediumRiskStudents)
	assert.Equal(t, 7, dash.UnresolvedAlerts)
	assert.Equal(t, 3, dash.UnreadAlerts)
	assert.Equal(t, 1, dash.ScheduledInterventions)
	assert.NotNil(t, dash.UpcomingInterventions)
	assert.Len(t, dash.RecentAlerts, 1)
	assert.Equal(t, fixed, src.from)

	_, hit, err = svc.Counselor(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, src.countHits)

	require.NoError(t, cache.Delete(context.Background(), dashboardCacheKey))
	_, hit, err = svc.Counselor(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, src.countHits)
}

func TestDashboardCounselorErrors(t *testing.T) {
	src := &stubDashboardSource{countErr: errors.New("db down")}
	svc := NewDashboardService(src, src, src, nil, nil, DashboardConfig{Enabled: true})
	_, _, err := svc.Counselor(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	disabled := NewDashboardService(src, src, src, nil, nil, DashboardConfig{})
	_, _, err = disabled.Counselor(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)
}
