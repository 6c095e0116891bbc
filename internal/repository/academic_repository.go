package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

// AcademicRepository runs the read-only aggregate queries over academic records.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository constructs the repository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// AttendanceSummary counts attendance rows and the present ones. A nil since means
// the whole history.
func (r *AcademicRepository) AttendanceSummary(ctx context.Context, studentID string, since *time.Time) (models.AttendanceSummary, error) {
	query := `SELECT COUNT(*) AS total,
       COUNT(*) FILTER (WHERE status = 'present') AS present
	FROM attendance_records WHERE student_id = $1`
	args := []interface{}{studentID}
	if since != nil {
		query += " AND date >= $2"
		args = append(args, *since)
	}
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, args...); err != nil {
		return models.AttendanceSummary{}, fmt.Errorf("summarise attendance: %w", err)
	}
	return summary, nil
}

// GradeSummary averages the scores of graded submissions.
func (r *AcademicRepository) GradeSummary(ctx context.Context, studentID string) (models.GradeSummary, error) {
	const query = `SELECT COUNT(score) AS graded, AVG(score)::float8 AS avg_score
	FROM submissions WHERE student_id = $1 AND score IS NOT NULL`
	var summary models.GradeSummary
	if err := r.db.GetContext(ctx, &summary, query, studentID); err != nil {
		return models.GradeSummary{}, fmt.Errorf("summarise grades: %w", err)
	}
	return summary, nil
}

// MissingAssignmentCount counts assignments in the student's enrolled classes
// that have no submission from the student.
func (r *AcademicRepository) MissingAssignmentCount(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments a
	JOIN class_enrollments ce ON ce.class_id = a.class_id AND ce.student_id = $1
	WHERE NOT EXISTS (
		SELECT 1 FROM submissions s WHERE s.assignment_id = a.id AND s.student_id = $1
	)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("count missing assignments: %w", err)
	}
	return count, nil
}
