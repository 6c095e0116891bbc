package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

const interventionColumns = `i.id, i.student_id, s.full_name AS student_name, i.counselor_id, i.intervention_type, i.description,
       i.scheduled_date, i.status, i.notes, i.outcome, i.completed_at, i.created_at, i.updated_at`

// InterventionRepository persists interventions.
type InterventionRepository struct {
	db *sqlx.DB
}

// NewInterventionRepository constructs the repository.
func NewInterventionRepository(db *sqlx.DB) *InterventionRepository {
	return &InterventionRepository{db: db}
}

// Create inserts an intervention in the scheduled state.
func (r *InterventionRepository) Create(ctx context.Context, q sqlx.ExtContext, intervention *models.Intervention) error {
	if intervention.ID == "" {
		intervention.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if intervention.CreatedAt.IsZero() {
		intervention.CreatedAt = now
	}
	intervention.UpdatedAt = intervention.CreatedAt
	intervention.Status = models.InterventionScheduled
	const query = `INSERT INTO interventions
	(id, student_id, counselor_id, intervention_type, description, scheduled_date, status, notes, outcome, created_at, updated_at)
	VALUES (:id, :student_id, :counselor_id, :intervention_type, :description, :scheduled_date, :status, :notes, :outcome, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, intervention); err != nil {
		return fmt.Errorf("create intervention: %w", err)
	}
	return nil
}

// FindByID loads an intervention.
func (r *InterventionRepository) FindByID(ctx context.Context, id string) (*models.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions i JOIN students s ON s.id = i.student_id WHERE i.id = $1`
	var intervention models.Intervention
	if err := r.db.GetContext(ctx, &intervention, query, id); err != nil {
		return nil, err
	}
	return &intervention, nil
}

// List returns interventions by scheduled date, newest first.
func (r *InterventionRepository) List(ctx context.Context, filter models.InterventionFilter) ([]models.Intervention, int, error) {
	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if filter.GradeLevel != nil {
		args = append(args, *filter.GradeLevel)
		conditions = append(conditions, fmt.Sprintf("s.grade_level = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	const from = ` FROM interventions i JOIN students s ON s.id = i.student_id`

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+from+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count interventions: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := `SELECT ` + interventionColumns + from + where +
		fmt.Sprintf(" ORDER BY i.scheduled_date DESC LIMIT %d OFFSET %d", limit, offset)
	var interventions []models.Intervention
	if err := r.db.SelectContext(ctx, &interventions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list interventions: %w", err)
	}
	return interventions, total, nil
}

// Close moves a scheduled intervention to a terminal status. Zero affected rows
// yields sql.ErrNoRows.
func (r *InterventionRepository) Close(ctx context.Context, q sqlx.ExtContext, id string, status models.InterventionStatus, notes, outcome string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE interventions SET status = $2,
	notes = CASE WHEN $3 = '' THEN notes ELSE $3 END,
	outcome = CASE WHEN $4 = '' THEN outcome ELSE $4 END,
	completed_at = CASE WHEN $2 = '%s' THEN $5::timestamptz ELSE NULL END,
	updated_at = $5
	WHERE id = $1 AND status = '%s'`, models.InterventionCompleted, models.InterventionScheduled)
	result, err := q.ExecContext(ctx, query, id, string(status), notes, outcome, at)
	return expectOne("close intervention", result, err)
}

// HasScheduled reports whether the student holds a scheduled intervention.
func (r *InterventionRepository) HasScheduled(ctx context.Context, q sqlx.ExtContext, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM interventions WHERE student_id = $1 AND status = 'scheduled')`
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, studentID); err != nil {
		return false, fmt.Errorf("check scheduled intervention: %w", err)
	}
	return exists, nil
}

// LockStudent takes a transaction-scoped advisory lock keyed by the student id so
// concurrent remediation runs serialise per student.
func (r *InterventionRepository) LockStudent(ctx context.Context, q sqlx.ExtContext, studentID string) error {
	if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, studentID); err != nil {
		return fmt.Errorf("lock student %s: %w", studentID, err)
	}
	return nil
}

// Upcoming lists the next scheduled interventions.
func (r *InterventionRepository) Upcoming(ctx context.Context, from time.Time, limit int) ([]models.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions i JOIN students s ON s.id = i.student_id
	WHERE i.status = 'scheduled' AND i.scheduled_date >= $1 ORDER BY i.scheduled_date ASC LIMIT $2`
	var interventions []models.Intervention
	if err := r.db.SelectContext(ctx, &interventions, query, from, limit); err != nil {
		return nil, fmt.Errorf("list upcoming interventions: %w", err)
	}
	return interventions, nil
}
