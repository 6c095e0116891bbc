package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

const alertColumns = `a.id, a.student_id, s.full_name AS student_name, a.alert_type, a.severity, a.message, a.is_read, a.resolved, a.read_at, a.resolved_at, a.resolved_by, a.created_at`

// AlertRepository persists alerts and enforces the one-unresolved-per-type rule
// through the alerts_one_unresolved_per_type partial index.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs the repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert stores an alert. For deduplicated types an existing unresolved alert of
// the same type makes the insert a no-op and created is false. The check and the
// insert are a single statement, so concurrent triggers cannot both succeed.
func (r *AlertRepository) Insert(ctx context.Context, q sqlx.ExtContext, alert *models.Alert) (bool, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO alerts (id, student_id, alert_type, severity, message, is_read, resolved, created_at)
	VALUES (:id, :student_id, :alert_type, :severity, :message, FALSE, FALSE, :created_at)
	ON CONFLICT (student_id, alert_type)
		WHERE resolved = FALSE AND alert_type IN ('high_risk', 'missing_assignments', 'low_attendance')
	DO NOTHING`
	result, err := sqlx.NamedExecContext(ctx, q, query, alert)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check alert insert rows: %w", err)
	}
	return rows == 1, nil
}

// FindByID loads an alert.
func (r *AlertRepository) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts a JOIN students s ON s.id = a.student_id WHERE a.id = $1`
	var alert models.Alert
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		return nil, err
	}
	return &alert, nil
}

// List returns alerts newest first together with the total matching count.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 5)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, pq.Array(types))
		conditions = append(conditions, fmt.Sprintf("a.alert_type = ANY($%d)", len(args)))
	}
	if len(filter.Severities) > 0 {
		severities := make([]string, len(filter.Severities))
		for i, s := range filter.Severities {
			severities[i] = string(s)
		}
		args = append(args, pq.Array(severities))
		conditions = append(conditions, fmt.Sprintf("a.severity = ANY($%d)", len(args)))
	}
	if filter.Resolved != nil {
		args = append(args, *filter.Resolved)
		conditions = append(conditions, fmt.Sprintf("a.resolved = $%d", len(args)))
	}
	if filter.Read != nil {
		args = append(args, *filter.Read)
		conditions = append(conditions, fmt.Sprintf("a.is_read = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM alerts a"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := `SELECT ` + alertColumns + ` FROM alerts a JOIN students s ON s.id = a.student_id` + where +
		fmt.Sprintf(" ORDER BY a.created_at DESC LIMIT %d OFFSET %d", limit, offset)
	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, total, nil
}

// MarkRead flips an unread, unresolved alert to read. Zero affected rows yields
// sql.ErrNoRows.
func (r *AlertRepository) MarkRead(ctx context.Context, q sqlx.ExtContext, id string, at time.Time) error {
	const query = `UPDATE alerts SET is_read = TRUE, read_at = $2 WHERE id = $1 AND is_read = FALSE AND resolved = FALSE`
	result, err := q.ExecContext(ctx, query, id, at)
	return expectOne("mark alert read", result, err)
}

// Resolve closes an unresolved alert, marking it read as well. Zero affected
// rows yields sql.ErrNoRows.
func (r *AlertRepository) Resolve(ctx context.Context, q sqlx.ExtContext, id, resolvedBy string, at time.Time) error {
	const query = `UPDATE alerts SET resolved = TRUE, is_read = TRUE, read_at = COALESCE(read_at, $2), resolved_at = $2, resolved_by = $3
	WHERE id = $1 AND resolved = FALSE`
	result, err := q.ExecContext(ctx, query, id, at, resolvedBy)
	return expectOne("resolve alert", result, err)
}

// MarkStudentAlertsRead marks every unread, unresolved alert of the given
// severities for a student as read and returns how many changed.
func (r *AlertRepository) MarkStudentAlertsRead(ctx context.Context, q sqlx.ExtContext, studentID string, severities []models.Severity, at time.Time) (int, error) {
	values := make([]string, len(severities))
	for i, s := range severities {
		values[i] = string(s)
	}
	const query = `UPDATE alerts SET is_read = TRUE, read_at = $3
	WHERE student_id = $1 AND severity = ANY($2) AND resolved = FALSE AND is_read = FALSE`
	result, err := q.ExecContext(ctx, query, studentID, pq.Array(values), at)
	if err != nil {
		return 0, fmt.Errorf("mark student alerts read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check alert update rows: %w", err)
	}
	return int(rows), nil
}

// StudentsNeedingRemediation lists students holding an unresolved alert of the
// given severities and no scheduled intervention.
func (r *AlertRepository) StudentsNeedingRemediation(ctx context.Context, severities []models.Severity) ([]string, error) {
	values := make([]string, len(severities))
	for i, s := range severities {
		values[i] = string(s)
	}
	const query = `SELECT DISTINCT a.student_id FROM alerts a
	WHERE a.resolved = FALSE AND a.severity = ANY($1)
	AND NOT EXISTS (
		SELECT 1 FROM interventions i WHERE i.student_id = a.student_id AND i.status = 'scheduled'
	)
	ORDER BY a.student_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list remediation candidates: %w", err)
	}
	return ids, nil
}

// HasUnresolved reports whether the student holds an unresolved alert of the
// given severities. Run inside the remediation transaction to re-check a candidate.
func (r *AlertRepository) HasUnresolved(ctx context.Context, q sqlx.ExtContext, studentID string, severities []models.Severity) (bool, error) {
	values := make([]string, len(severities))
	for i, s := range severities {
		values[i] = string(s)
	}
	const query = `SELECT EXISTS (SELECT 1 FROM alerts WHERE student_id = $1 AND resolved = FALSE AND severity = ANY($2))`
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, studentID, pq.Array(values)); err != nil {
		return false, fmt.Errorf("check unresolved alerts: %w", err)
	}
	return exists, nil
}

// Recent returns the newest unresolved alerts.
func (r *AlertRepository) Recent(ctx context.Context, limit int) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts a JOIN students s ON s.id = a.student_id
	WHERE a.resolved = FALSE ORDER BY a.created_at DESC LIMIT $1`
	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, limit); err != nil {
		return nil, fmt.Errorf("list recent alerts: %w", err)
	}
	return alerts, nil
}
