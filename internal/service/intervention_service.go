package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

// remediationSeverities are the alert severities that qualify a student for
// automatic scheduling.
var remediationSeverities = []models.Severity{models.SeverityCritical, models.SeverityHigh}

const remediationDescription = "Automatically scheduled for unresolved high-severity alerts."

type interventionRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, intervention *models.Intervention) error
	FindByID(ctx context.Context, id string) (*models.Intervention, error)
	List(ctx context.Context, filter models.InterventionFilter) ([]models.Intervention, int, error)
	Close(ctx context.Context, q sqlx.ExtContext, id string, status models.InterventionStatus, notes, outcome string, at time.Time) error
	HasScheduled(ctx context.Context, q sqlx.ExtContext, studentID string) (bool, error)
	LockStudent(ctx context.Context, q sqlx.ExtContext, studentID string) error
}

type remediationAlertRepository interface {
	StudentsNeedingRemediation(ctx context.Context, severities []models.Severity) ([]string, error)
	HasUnresolved(ctx context.Context, q sqlx.ExtContext, studentID string, severities []models.Severity) (bool, error)
	MarkStudentAlertsRead(ctx context.Context, q sqlx.ExtContext, studentID string, severities []models.Severity, at time.Time) (int, error)
}

type latestAssessmentReader interface {
	Latest(ctx context.Context, studentID string) (*models.RiskAssessment, error)
}

// InterventionConfig tunes automatic scheduling.
type InterventionConfig struct {
	ScheduleOffset       time.Duration
	TutoringMissingCount int
}

// InterventionService manages the intervention lifecycle and bulk remediation.
type InterventionService struct {
	interventions interventionRepository
	alerts        remediationAlertRepository
	risks         latestAssessmentReader
	students      studentReader
	tx            txRunner
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	config        InterventionConfig
	now           func() time.Time
}

// NewInterventionService constructs an InterventionService.
func NewInterventionService(
	interventions interventionRepository,
	alerts remediationAlertRepository,
	risks latestAssessmentReader,
	students studentReader,
	tx txRunner,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg InterventionConfig,
) *InterventionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ScheduleOffset <= 0 {
		cfg.ScheduleOffset = 24 * time.Hour
	}
	if cfg.TutoringMissingCount <= 0 {
		cfg.TutoringMissingCount = 3
	}
	return &InterventionService{
		interventions: interventions,
		alerts:        alerts,
		risks:         risks,
		students:      students,
		tx:            tx,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		config:        cfg,
		now:           time.Now,
	}
}

// List returns interventions matching the filter.
func (s *InterventionService) List(ctx context.Context, filter models.InterventionFilter) ([]models.Intervention, *models.Pagination, error) {
	if filter.Status != nil && !validInterventionStatus(*filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid intervention status")
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	items, total, err := s.interventions.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list interventions")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get loads one intervention.
func (s *InterventionService) Get(ctx context.Context, id string) (*models.Intervention, error) {
	item, err := s.interventions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intervention not found")
		}
		return nil, internalError(err, "failed to load intervention")
	}
	return item, nil
}

// Create schedules an intervention on behalf of a counselor.
func (s *InterventionService) Create(ctx context.Context, req models.CreateInterventionRequest, counselorID string) (*models.Intervention, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intervention payload")
	}
	student, err := loadStudent(ctx, s.students, req.StudentID)
	if err != nil {
		return nil, err
	}
	item := models.Intervention{
		StudentID:        student.ID,
		StudentName:      student.FullName,
		CounselorID:      optionalString(counselorID),
		InterventionType: req.InterventionType,
		Description:      req.Description,
		ScheduledDate:    req.ScheduledDate.UTC(),
		Notes:            req.Notes,
	}
	if err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		return s.interventions.Create(ctx, q, &item)
	}); err != nil {
		return nil, internalError(err, "failed to schedule intervention")
	}
	s.invalidateDashboard(ctx)
	return &item, nil
}

// Complete closes a scheduled intervention as completed.
func (s *InterventionService) Complete(ctx context.Context, id string, req models.CloseInterventionRequest) (*models.Intervention, error) {
	return s.close(ctx, id, models.InterventionCompleted, req)
}

// Cancel closes a scheduled intervention as cancelled.
func (s *InterventionService) Cancel(ctx context.Context, id string, req models.CloseInterventionRequest) (*models.Intervention, error) {
	return s.close(ctx, id, models.InterventionCancelled, req)
}

func (s *InterventionService) close(ctx context.Context, id string, status models.InterventionStatus, req models.CloseInterventionRequest) (*models.Intervention, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intervention payload")
	}
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		return s.interventions.Close(ctx, q, id, status, req.Notes, req.Outcome, s.now().UTC())
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, internalError(err, "failed to update intervention")
		}
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, appErrors.Clone(appErrors.ErrInterventionClosed, "intervention is already "+string(current.Status))
	}
	s.invalidateDashboard(ctx)
	return s.Get(ctx, id)
}

// BulkRemediate schedules one intervention for every student with an unresolved
// critical or high alert and no scheduled intervention, then marks those alerts
// read. Each student is handled in its own transaction under an advisory lock
// and re-checked there, so concurrent or repeated runs never double-schedule.
func (s *InterventionService) BulkRemediate(ctx context.Context, counselorID string) (*models.RemediationResult, error) {
	candidates, err := s.alerts.StudentsNeedingRemediation(ctx, remediationSeverities)
	if err != nil {
		return nil, internalError(err, "failed to list remediation candidates")
	}

	result := &models.RemediationResult{
		Candidates: len(candidates),
		Scheduled:  []models.Intervention{},
		Failed:     []models.BatchFailure{},
	}
	for _, studentID := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		item, marked, err := s.remediateStudent(ctx, studentID, counselorID)
		if err != nil {
			s.logger.Error("remediation failed", zap.String("student_id", studentID), zap.Error(err))
			result.Failed = append(result.Failed, models.BatchFailure{StudentID: studentID, Error: err.Error()})
			continue
		}
		if item == nil {
			result.Skipped++
			continue
		}
		result.Scheduled = append(result.Scheduled, *item)
		result.AlertsMarked += marked
	}

	s.metrics.RecordRemediation(len(result.Scheduled))
	if len(result.Scheduled) > 0 {
		s.invalidateDashboard(ctx)
	}
	s.logger.Info("bulk remediation finished",
		zap.Int("candidates", result.Candidates),
		zap.Int("scheduled", len(result.Scheduled)),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *InterventionService) remediateStudent(ctx context.Context, studentID, counselorID string) (*models.Intervention, int, error) {
	interventionType := models.InterventionTypeCounseling
	latest, err := s.risks.Latest(ctx, studentID)
	switch {
	case err == nil:
		if latest.MissingAssignmentCount >= s.config.TutoringMissingCount {
			interventionType = models.InterventionTypeTutoring
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, 0, err
	}

	var (
		created *models.Intervention
		marked  int
	)
	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		if err := s.interventions.LockStudent(ctx, q, studentID); err != nil {
			return err
		}
		scheduled, err := s.interventions.HasScheduled(ctx, q, studentID)
		if err != nil || scheduled {
			return err
		}
		pending, err := s.alerts.HasUnresolved(ctx, q, studentID, remediationSeverities)
		if err != nil || !pending {
			return err
		}

		now := s.now().UTC()
		item := models.Intervention{
			StudentID:        studentID,
			CounselorID:      optionalString(counselorID),
			InterventionType: interventionType,
			Description:      remediationDescription,
			ScheduledDate:    now.Add(s.config.ScheduleOffset),
		}
		if err := s.interventions.Create(ctx, q, &item); err != nil {
			return err
		}
		marked, err = s.alerts.MarkStudentAlertsRead(ctx, q, studentID, remediationSeverities, now)
		if err != nil {
			return err
		}
		created = &item
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return created, marked, nil
}

func (s *InterventionService) invalidateDashboard(ctx context.Context) {
	_ = s.cache.Delete(ctx, dashboardCacheKey)
}

func validInterventionStatus(status models.InterventionStatus) bool {
	switch status {
	case models.InterventionScheduled, models.InterventionCompleted, models.InterventionCancelled:
		return true
	}
	return false
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
