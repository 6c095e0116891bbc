package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

type concernRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, concern *models.TeacherConcern) error
	List(ctx context.Context, filter models.ConcernFilter) ([]models.TeacherConcern, int, error)
}

// Reporter identifies the teacher filing a concern.
type Reporter struct {
	ID   string
	Name string
}

// ConcernService records teacher concerns and runs the teacher-concern rule.
type ConcernService struct {
	concerns  concernRepository
	students  studentReader
	engine    alertDispatcher
	tx        txRunner
	cache     *CacheService
	notifier  alertNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewConcernService constructs a ConcernService.
func NewConcernService(concerns concernRepository, students studentReader, engine alertDispatcher, tx txRunner, cache *CacheService, notifier alertNotifier, validate *validator.Validate, logger *zap.Logger) *ConcernService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ConcernService{
		concerns:  concerns,
		students:  students,
		engine:    engine,
		tx:        tx,
		cache:     cache,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create stores the concern. Every concern raises its own alert.
func (s *ConcernService) Create(ctx context.Context, req models.CreateConcernRequest, reporter Reporter) (*models.ConcernResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid concern payload")
	}
	if reporter.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "reporter is required")
	}
	student, err := loadStudent(ctx, s.students, req.StudentID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	observed := now.Truncate(24 * time.Hour)
	if req.DateObserved != "" {
		observed, err = time.Parse("2006-01-02", req.DateObserved)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date_observed")
		}
		if observed.After(now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_observed cannot be in the future")
		}
	}

	name := reporter.Name
	if name == "" {
		name = reporter.ID
	}
	concern := models.TeacherConcern{
		StudentID:    student.ID,
		StudentName:  student.FullName,
		TeacherID:    reporter.ID,
		TeacherName:  name,
		ConcernType:  req.ConcernType,
		Severity:     models.Severity(req.Severity),
		Description:  req.Description,
		DateObserved: observed,
		CreatedAt:    now,
	}

	var alerts []models.Alert
	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		if err := s.concerns.Create(ctx, q, &concern); err != nil {
			return err
		}
		var dispatchErr error
		alerts, dispatchErr = s.engine.Dispatch(ctx, q, models.Event{
			Kind:        models.EventConcernCreated,
			StudentID:   student.ID,
			StudentName: student.FullName,
			Concern:     &concern,
		})
		return dispatchErr
	})
	if err != nil {
		return nil, internalError(err, "failed to record concern")
	}

	_ = s.cache.Delete(ctx, dashboardCacheKey)
	notify(ctx, s.notifier, alerts)
	s.logger.Info("teacher concern recorded",
		zap.String("student_id", student.ID),
		zap.String("teacher_id", reporter.ID),
		zap.String("severity", req.Severity))
	return &models.ConcernResult{Concern: concern, Alerts: alerts}, nil
}

// List returns concerns matching the filter.
func (s *ConcernService) List(ctx context.Context, filter models.ConcernFilter) ([]models.TeacherConcern, *models.Pagination, error) {
	switch filter.Severity {
	case "", string(models.SeverityLow), string(models.SeverityMedium), string(models.SeverityHigh):
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid severity")
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	items, total, err := s.concerns.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list concerns")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}
