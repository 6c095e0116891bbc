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

const riskAssessmentColumns = `id, student_id, date, risk_score, risk_level, gpa, attendance_rate, missing_assignment_count, wellness_flagged, created_at`

// RiskRepository stores the append-only assessment history.
type RiskRepository struct {
	db *sqlx.DB
}

// NewRiskRepository constructs the repository.
func NewRiskRepository(db *sqlx.DB) *RiskRepository {
	return &RiskRepository{db: db}
}

// Create appends an assessment. It never updates an existing row.
func (r *RiskRepository) Create(ctx context.Context, q sqlx.ExtContext, assessment *models.RiskAssessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = time.Now().UTC()
	}
	if assessment.Date.IsZero() {
		assessment.Date = assessment.CreatedAt.Truncate(24 * time.Hour)
	}
	const query = `INSERT INTO risk_assessments (` + riskAssessmentColumns + `)
	VALUES (:id, :student_id, :date, :risk_score, :risk_level, :gpa, :attendance_rate, :missing_assignment_count, :wellness_flagged, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, assessment); err != nil {
		return fmt.Errorf("create risk assessment: %w", err)
	}
	return nil
}

// Latest returns the most recent assessment for a student (by date, then insertion time).
func (r *RiskRepository) Latest(ctx context.Context, studentID string) (*models.RiskAssessment, error) {
	const query = `SELECT ` + riskAssessmentColumns + ` FROM risk_assessments
	WHERE student_id = $1 ORDER BY date DESC, created_at DESC LIMIT 1`
	var assessment models.RiskAssessment
	if err := r.db.GetContext(ctx, &assessment, query, studentID); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// History lists assessments newest first.
func (r *RiskRepository) History(ctx context.Context, studentID string, limit int) ([]models.RiskAssessment, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}
	const query = `SELECT ` + riskAssessmentColumns + ` FROM risk_assessments
	WHERE student_id = $1 ORDER BY date DESC, created_at DESC LIMIT $2`
	var history []models.RiskAssessment
	if err := r.db.SelectContext(ctx, &history, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list risk history: %w", err)
	}
	return history, nil
}

// ListLatest joins every active student with their latest assessment and filters
// on that latest row only.
func (r *RiskRepository) ListLatest(ctx context.Context, filter models.AtRiskFilter) ([]models.AtRiskStudent, int, error) {
	args := make([]interface{}, 0, 6)
	conditions := []string{"s.active = TRUE"}
	if len(filter.Levels) > 0 {
		placeholders := make([]string, len(filter.Levels))
		for i, level := range filter.Levels {
			args = append(args, string(level))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("ra.risk_level IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.GradeLevel != nil {
		args = append(args, *filter.GradeLevel)
		conditions = append(conditions, fmt.Sprintf("s.grade_level = $%d", len(args)))
	}
	if filter.Section != "" {
		args = append(args, filter.Section)
		conditions = append(conditions, fmt.Sprintf("s.section = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	const from = ` FROM students s
	JOIN LATERAL (
		SELECT id, date, risk_score, risk_level, gpa, attendance_rate, missing_assignment_count
		FROM risk_assessments WHERE student_id = s.id ORDER BY date DESC, created_at DESC LIMIT 1
	) ra ON TRUE`

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+from+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count at-risk students: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := `SELECT s.id AS student_id, s.full_name, s.grade_level, s.section,
       ra.id AS assessment_id, ra.date, ra.risk_score, ra.risk_level, ra.gpa, ra.attendance_rate, ra.missing_assignment_count,
       (SELECT COUNT(*) FROM alerts a WHERE a.student_id = s.id AND a.resolved = FALSE) AS unresolved_alerts` +
		from + where + fmt.Sprintf(" ORDER BY ra.risk_score DESC, s.full_name ASC LIMIT %d OFFSET %d", limit, offset)

	var students []models.AtRiskStudent
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list at-risk students: %w", err)
	}
	return students, total, nil
}
