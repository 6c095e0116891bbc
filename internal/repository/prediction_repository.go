package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

// PredictionRepository keeps a log of AI-backed decisions.
type PredictionRepository struct {
	db *sqlx.DB
}

// NewPredictionRepository constructs the repository.
func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create stores a prediction log entry.
func (r *PredictionRepository) Create(ctx context.Context, q sqlx.ExtContext, entry *models.PredictionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(entry.Input) == 0 {
		entry.Input = []byte("{}")
	}
	if len(entry.Output) == 0 {
		entry.Output = []byte("{}")
	}
	const query = `INSERT INTO prediction_logs (id, student_id, kind, input, output, created_at)
	VALUES (:id, :student_id, :kind, :input, :output, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, entry); err != nil {
		return fmt.Errorf("create prediction log: %w", err)
	}
	return nil
}
