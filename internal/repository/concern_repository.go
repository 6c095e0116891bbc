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

// ConcernRepository stores teacher concerns.
type ConcernRepository struct {
	db *sqlx.DB
}

// NewConcernRepository constructs the repository.
func NewConcernRepository(db *sqlx.DB) *ConcernRepository {
	return &ConcernRepository{db: db}
}

// Create inserts a concern.
func (r *ConcernRepository) Create(ctx context.Context, q sqlx.ExtContext, concern *models.TeacherConcern) error {
	if concern.ID == "" {
		concern.ID = uuid.NewString()
	}
	if concern.CreatedAt.IsZero() {
		concern.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_concerns
	(id, student_id, teacher_id, teacher_name, concern_type, severity, description, date_observed, created_at)
	VALUES (:id, :student_id, :teacher_id, :teacher_name, :concern_type, :severity, :description, :date_observed, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, concern); err != nil {
		return fmt.Errorf("create teacher concern: %w", err)
	}
	return nil
}

// List returns concerns newest first.
func (r *ConcernRepository) List(ctx context.Context, filter models.ConcernFilter) ([]models.TeacherConcern, int, error) {
	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("c.student_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		conditions = append(conditions, fmt.Sprintf("c.severity = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM teacher_concerns c"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count teacher concerns: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := `SELECT c.id, c.student_id, s.full_name AS student_name, c.teacher_id, c.teacher_name, c.concern_type,
       c.severity, c.description, c.date_observed, c.created_at
	FROM teacher_concerns c JOIN students s ON s.id = c.student_id` + where +
		fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT %d OFFSET %d", limit, offset)
	var concerns []models.TeacherConcern
	if err := r.db.SelectContext(ctx, &concerns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teacher concerns: %w", err)
	}
	return concerns, total, nil
}
