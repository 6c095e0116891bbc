package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

type alertWriter interface {
	Insert(ctx context.Context, q sqlx.ExtContext, alert *models.Alert) (bool, error)
}

// AlertEngine runs every rule that handles an event and persists the drafts on
// the caller's transaction. Deduplicated types rely on the store's atomic
// insert-unless-unresolved, so a suppressed draft is not an error.
type AlertEngine struct {
	alerts  alertWriter
	rules   []AlertRule
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAlertEngine constructs the engine.
func NewAlertEngine(alerts alertWriter, rules []AlertRule, metrics *MetricsService, logger *zap.Logger) *AlertEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertEngine{alerts: alerts, rules: rules, metrics: metrics, logger: logger}
}

// Dispatch evaluates the event and returns the alerts actually created. Any
// insert failure aborts the dispatch so the triggering write can roll back.
func (e *AlertEngine) Dispatch(ctx context.Context, q sqlx.ExtContext, event models.Event) ([]models.Alert, error) {
	if event.StudentID == "" {
		return nil, errors.New("dispatch alert event: missing student id")
	}
	created := make([]models.Alert, 0, 2)
	for _, rule := range e.rules {
		if !rule.Handles(event.Kind) {
			continue
		}
		draft := rule.Evaluate(event)
		if draft == nil {
			continue
		}
		draft.StudentID = event.StudentID
		draft.StudentName = event.StudentName

		ok, err := e.alerts.Insert(ctx, q, draft)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		if !ok {
			e.metrics.RecordAlertSuppressed(draft.AlertType)
			e.logger.Debug("alert suppressed by unresolved duplicate",
				zap.String("student_id", event.StudentID),
				zap.String("alert_type", string(draft.AlertType)))
			continue
		}
		e.metrics.RecordAlertCreated(draft.AlertType, draft.Severity)
		created = append(created, *draft)
	}
	return created, nil
}
