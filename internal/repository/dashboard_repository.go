package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

// DashboardRepository computes caseload counters.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts returns every dashboard counter in one round trip.
func (r *DashboardRepository) Counts(ctx context.Context) (models.DashboardCounts, error) {
	const query = `WITH latest AS (
		SELECT DISTINCT ON (ra.student_id) ra.student_id, ra.risk_level
		FROM risk_assessments ra JOIN students s ON s.id = ra.student_id AND s.active = TRUE
		ORDER BY ra.student_id, ra.date DESC, ra.created_at DESC
	)
	SELECT
		(SELECT COUNT(*) FROM latest WHERE risk_level = 'high') AS high_risk,
		(SELECT COUNT(*) FROM latest WHERE risk_level = 'medium') AS medium_risk,
		(SELECT COUNT(*) FROM alerts WHERE resolved = FALSE) AS unresolved_alerts,
		(SELECT COUNT(*) FROM alerts WHERE is_read = FALSE) AS unread_alerts,
		(SELECT COUNT(*) FROM interventions WHERE status = 'scheduled') AS scheduled_interventions`
	var counts models.DashboardCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return models.DashboardCounts{}, fmt.Errorf("load dashboard counts: %w", err)
	}
	return counts, nil
}
