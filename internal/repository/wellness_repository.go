package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

const checkInColumns = `id, student_id, date, stress_level, motivation_level, workload_level, sleep_quality, need_help, free_text, created_at`

// WellnessRepository stores check-ins and their sentiment analyses.
type WellnessRepository struct {
	db *sqlx.DB
}

// NewWellnessRepository constructs the repository.
func NewWellnessRepository(db *sqlx.DB) *WellnessRepository {
	return &WellnessRepository{db: db}
}

// Create inserts a check-in.
func (r *WellnessRepository) Create(ctx context.Context, q sqlx.ExtContext, checkIn *models.WellnessCheckIn) error {
	if checkIn.ID == "" {
		checkIn.ID = uuid.NewString()
	}
	if checkIn.CreatedAt.IsZero() {
		checkIn.CreatedAt = time.Now().UTC()
	}
	if checkIn.Date.IsZero() {
		checkIn.Date = checkIn.CreatedAt.Truncate(24 * time.Hour)
	}
	const query = `INSERT INTO wellness_checkins (` + checkInColumns + `)
	VALUES (:id, :student_id, :date, :stress_level, :motivation_level, :workload_level, :sleep_quality, :need_help, :free_text, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, checkIn); err != nil {
		return fmt.Errorf("create wellness check-in: %w", err)
	}
	return nil
}

// FindByID loads a check-in.
func (r *WellnessRepository) FindByID(ctx context.Context, id string) (*models.WellnessCheckIn, error) {
	const query = `SELECT ` + checkInColumns + ` FROM wellness_checkins WHERE id = $1`
	var checkIn models.WellnessCheckIn
	if err := r.db.GetContext(ctx, &checkIn, query, id); err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// ListByStudent returns check-ins newest first.
func (r *WellnessRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.WellnessCheckIn, error) {
	if limit <= 0 || limit > 200 {
		limit = 30
	}
	const query = `SELECT ` + checkInColumns + ` FROM wellness_checkins
	WHERE student_id = $1 ORDER BY date DESC, created_at DESC LIMIT $2`
	var checkIns []models.WellnessCheckIn
	if err := r.db.SelectContext(ctx, &checkIns, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list wellness check-ins: %w", err)
	}
	return checkIns, nil
}

// RecentSignals returns the scoring-relevant fields of the latest check-ins.
func (r *WellnessRepository) RecentSignals(ctx context.Context, studentID string, limit int) ([]models.WellnessSignal, error) {
	if limit <= 0 {
		limit = 1
	}
	const query = `SELECT stress_level, motivation_level, need_help, date FROM wellness_checkins
	WHERE student_id = $1 ORDER BY date DESC, created_at DESC LIMIT $2`
	var signals []models.WellnessSignal
	if err := r.db.SelectContext(ctx, &signals, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list wellness signals: %w", err)
	}
	return signals, nil
}

// CreateSentiment stores the analysis of a check-in. A check-in holds at most one
// analysis; a second insert is a no-op that reports created=false and leaves the
// surrounding transaction usable.
func (r *WellnessRepository) CreateSentiment(ctx context.Context, q sqlx.ExtContext, analysis *models.SentimentAnalysis) (bool, error) {
	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}
	if len(analysis.ConcerningPhrases) == 0 {
		analysis.ConcerningPhrases = []byte("[]")
	}
	const query = `INSERT INTO sentiment_analyses
	(id, checkin_id, student_id, sentiment, confidence, alert_level, concerning_phrases, created_at)
	VALUES (:id, :checkin_id, :student_id, :sentiment, :confidence, :alert_level, :concerning_phrases, :created_at)
	ON CONFLICT (checkin_id) DO NOTHING`
	result, err := sqlx.NamedExecContext(ctx, q, query, analysis)
	if err != nil {
		return false, fmt.Errorf("create sentiment analysis: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check sentiment insert rows: %w", err)
	}
	return rows == 1, nil
}
