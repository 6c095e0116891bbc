package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

type alertRepository interface {
	FindByID(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
	MarkRead(ctx context.Context, q sqlx.ExtContext, id string, at time.Time) error
	Resolve(ctx context.Context, q sqlx.ExtContext, id, resolvedBy string, at time.Time) error
}

// AlertService exposes alert listing and the read/resolve transitions.
type AlertService struct {
	alerts alertRepository
	tx     txRunner
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

// NewAlertService constructs an AlertService.
func NewAlertService(alerts alertRepository, tx txRunner, cache *CacheService, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{alerts: alerts, tx: tx, cache: cache, logger: logger, now: time.Now}
}

// List returns alerts matching the filter, newest first.
func (s *AlertService) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, *models.Pagination, error) {
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid alert type "+string(t))
		}
	}
	for _, sev := range filter.Severities {
		if !validSeverity(sev) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid severity "+string(sev))
		}
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	alerts, total, err := s.alerts.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list alerts")
	}
	return alerts, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get loads one alert.
func (s *AlertService) Get(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, internalError(err, "failed to load alert")
	}
	return alert, nil
}

// MarkRead flags the alert as read. Read is monotonic, so repeating the call on
// a read or resolved alert succeeds without changing it.
func (s *AlertService) MarkRead(ctx context.Context, id string) (*models.Alert, error) {
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		return s.alerts.MarkRead(ctx, q, id, s.now().UTC())
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to mark alert read")
	}
	if err == nil {
		s.invalidateDashboard(ctx)
	}
	return s.Get(ctx, id)
}

// Resolve closes the alert and marks it read. Resolution is terminal.
func (s *AlertService) Resolve(ctx context.Context, id, actorID string) (*models.Alert, error) {
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		return s.alerts.Resolve(ctx, q, id, actorID, s.now().UTC())
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, internalError(err, "failed to resolve alert")
		}
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, appErrors.Clone(appErrors.ErrAlertResolved, "alert is already resolved")
	}
	s.logger.Info("alert resolved", zap.String("alert_id", id), zap.String("resolved_by", actorID))
	s.invalidateDashboard(ctx)
	return s.Get(ctx, id)
}

func (s *AlertService) invalidateDashboard(ctx context.Context) {
	_ = s.cache.Delete(ctx, dashboardCacheKey)
}

func validSeverity(sev models.Severity) bool {
	switch sev {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
		return true
	}
	return false
}
