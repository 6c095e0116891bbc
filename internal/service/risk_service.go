package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

const (
	defaultRecalcWorkers = 4
	defaultHistoryLimit  = 30
	maxHistoryLimit      = 365
)

type riskStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}

type riskAssessmentRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, assessment *models.RiskAssessment) error
	Latest(ctx context.Context, studentID string) (*models.RiskAssessment, error)
	History(ctx context.Context, studentID string, limit int) ([]models.RiskAssessment, error)
	ListLatest(ctx context.Context, filter models.AtRiskFilter) ([]models.AtRiskStudent, int, error)
}

type snapshotAggregator interface {
	Aggregate(ctx context.Context, studentID string) (models.MetricsSnapshot, error)
}

// RiskServiceConfig tunes batch recalculation.
type RiskServiceConfig struct {
	Workers int
}

// RiskService runs aggregation, scoring, persistence and alert rules for students.
type RiskService struct {
	students   riskStudentRepository
	risks      riskAssessmentRepository
	aggregator snapshotAggregator
	scorer     *RiskScorer
	engine     alertDispatcher
	tx         txRunner
	notifier   alertNotifier
	metrics    *MetricsService
	logger     *zap.Logger
	config     RiskServiceConfig
	now        func() time.Time
}

// NewRiskService constructs a RiskService.
func NewRiskService(
	students riskStudentRepository,
	risks riskAssessmentRepository,
	aggregator snapshotAggregator,
	scorer *RiskScorer,
	engine alertDispatcher,
	tx txRunner,
	notifier alertNotifier,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg RiskServiceConfig,
) *RiskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultRecalcWorkers
	}
	return &RiskService{
		students:   students,
		risks:      risks,
		aggregator: aggregator,
		scorer:     scorer,
		engine:     engine,
		tx:         tx,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		config:     cfg,
		now:        time.Now,
	}
}

// Assess appends a new assessment for the student and evaluates the
// assessment-triggered alert rules in the same transaction.
func (s *RiskService) Assess(ctx context.Context, studentID string) (*models.AssessmentResult, error) {
	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.aggregator.Aggregate(ctx, student.ID)
	if err != nil {
		return nil, internalError(err, "failed to aggregate student metrics")
	}
	score := s.scorer.Score(snapshot)

	now := s.now().UTC()
	assessment := models.RiskAssessment{
		StudentID:              student.ID,
		Date:                   now.Truncate(24 * time.Hour),
		RiskScore:              score.Score,
		RiskLevel:              score.Level,
		GPA:                    snapshot.GPA,
		AttendanceRate:         snapshot.AttendanceRate,
		MissingAssignmentCount: snapshot.MissingAssignmentCount,
		WellnessFlagged:        s.scorer.WellnessFlagged(snapshot),
		CreatedAt:              now,
	}

	var alerts []models.Alert
	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		if err := s.risks.Create(ctx, q, &assessment); err != nil {
			return err
		}
		var dispatchErr error
		alerts, dispatchErr = s.engine.Dispatch(ctx, q, models.Event{
			Kind:        models.EventRiskAssessed,
			StudentID:   student.ID,
			StudentName: student.FullName,
			Assessment:  &assessment,
		})
		return dispatchErr
	})
	if err != nil {
		return nil, internalError(err, "failed to record risk assessment")
	}

	s.metrics.RecordAssessment(assessment.RiskLevel)
	notify(ctx, s.notifier, alerts)

	return &models.AssessmentResult{
		Assessment: assessment,
		Metrics:    snapshot,
		Breakdown:  score.Breakdown,
		Alerts:     alerts,
	}, nil
}

// RecalculateAll assesses every active student. Per-student failures are
// collected and never abort the run; only failing to list students is an error.
func (s *RiskService) RecalculateAll(ctx context.Context) (*models.BatchResult, error) {
	started := s.now().UTC()
	ids, err := s.students.ListActiveIDs(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list active students")
	}

	result := &models.BatchResult{
		Total:     len(ids),
		Failed:    []models.BatchFailure{},
		ByLevel:   map[models.RiskLevel]int{},
		StartedAt: started,
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.config.Workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			assessed, err := s.Assess(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("risk recalculation failed", zap.String("student_id", id), zap.Error(err))
				result.Failed = append(result.Failed, models.BatchFailure{StudentID: id, Error: err.Error()})
				return nil
			}
			result.Succeeded++
			result.ByLevel[assessed.Assessment.RiskLevel]++
			result.AlertsCreated += len(assessed.Alerts)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].StudentID < result.Failed[j].StudentID })
	result.FinishedAt = s.now().UTC()
	s.metrics.ObserveBatch(result.FinishedAt.Sub(started), len(result.Failed))
	s.logger.Info("risk recalculation finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", len(result.Failed)),
		zap.Int("alerts_created", result.AlertsCreated))
	return result, nil
}

// Latest returns the current assessment, which is always the newest history row.
func (s *RiskService) Latest(ctx context.Context, studentID string) (*models.RiskAssessment, error) {
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	assessment, err := s.risks.Latest(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no risk assessment yet")
		}
		return nil, internalError(err, "failed to load latest assessment")
	}
	return assessment, nil
}

// History lists assessments newest first.
func (s *RiskService) History(ctx context.Context, studentID string, limit int) ([]models.RiskAssessment, error) {
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	history, err := s.risks.History(ctx, studentID, limit)
	if err != nil {
		return nil, internalError(err, "failed to load risk history")
	}
	return history, nil
}

// ListAtRisk lists students by their latest assessment.
func (s *RiskService) ListAtRisk(ctx context.Context, filter models.AtRiskFilter) ([]models.AtRiskStudent, *models.Pagination, error) {
	for _, level := range filter.Levels {
		if !level.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid risk level "+string(level))
		}
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	students, total, err := s.risks.ListLatest(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list at-risk students")
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}
