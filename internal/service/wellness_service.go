package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
	"github.com/noah-isme/sma-wellbeing-api/pkg/jobs"
)

// JobTypeSentiment identifies sentiment enrichment jobs.
const JobTypeSentiment = "wellness.sentiment"

const defaultCheckInListLimit = 20

type wellnessRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, checkIn *models.WellnessCheckIn) error
	FindByID(ctx context.Context, id string) (*models.WellnessCheckIn, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.WellnessCheckIn, error)
	CreateSentiment(ctx context.Context, q sqlx.ExtContext, analysis *models.SentimentAnalysis) (bool, error)
}

type sentimentAnalyzer interface {
	Enabled() bool
	AnalyzeSentiment(ctx context.Context, text string) (models.SentimentResult, error)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// WellnessService records check-ins and runs the wellness alert rules.
type WellnessService struct {
	checkIns  wellnessRepository
	students  studentReader
	engine    alertDispatcher
	tx        txRunner
	analyzer  sentimentAnalyzer
	queue     jobEnqueuer
	cache     *CacheService
	notifier  alertNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewWellnessService constructs the service. analyzer and queue may be nil, in
// which case free text is stored without sentiment analysis.
func NewWellnessService(
	checkIns wellnessRepository,
	students studentReader,
	engine alertDispatcher,
	tx txRunner,
	analyzer sentimentAnalyzer,
	cache *CacheService,
	notifier alertNotifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *WellnessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WellnessService{
		checkIns:  checkIns,
		students:  students,
		engine:    engine,
		tx:        tx,
		analyzer:  analyzer,
		cache:     cache,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// SetQueue attaches the sentiment job queue. The queue's handler is usually
// this service's HandleSentimentJob, hence the late binding.
func (s *WellnessService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Submit stores a check-in and evaluates the wellness rule with it.
func (s *WellnessService) Submit(ctx context.Context, req models.CreateCheckInRequest) (*models.CheckInResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}
	student, err := loadStudent(ctx, s.students, req.StudentID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	checkIn := models.WellnessCheckIn{
		StudentID:       student.ID,
		Date:            now.Truncate(24 * time.Hour),
		StressLevel:     req.StressLevel,
		MotivationLevel: req.MotivationLevel,
		WorkloadLevel:   req.WorkloadLevel,
		SleepQuality:    req.SleepQuality,
		NeedHelp:        req.NeedHelp,
		FreeText:        strings.TrimSpace(req.FreeText),
		CreatedAt:       now,
	}

	var alerts []models.Alert
	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		if err := s.checkIns.Create(ctx, q, &checkIn); err != nil {
			return err
		}
		var dispatchErr error
		alerts, dispatchErr = s.engine.Dispatch(ctx, q, models.Event{
			Kind:        models.EventCheckInCreated,
			StudentID:   student.ID,
			StudentName: student.FullName,
			CheckIn:     &checkIn,
		})
		return dispatchErr
	})
	if err != nil {
		return nil, internalError(err, "failed to record check-in")
	}

	if len(alerts) > 0 {
		_ = s.cache.Delete(ctx, dashboardCacheKey)
	}
	notify(ctx, s.notifier, alerts)

	return &models.CheckInResult{
		CheckIn:         checkIn,
		Alerts:          alerts,
		SentimentQueued: s.queueSentiment(checkIn),
	}, nil
}

func (s *WellnessService) queueSentiment(checkIn models.WellnessCheckIn) bool {
	if checkIn.FreeText == "" || s.queue == nil || s.analyzer == nil || !s.analyzer.Enabled() {
		return false
	}
	err := s.queue.TryEnqueue(jobs.Job{ID: checkIn.ID, Type: JobTypeSentiment, Payload: checkIn.ID})
	if err != nil {
		s.logger.Warn("sentiment job not queued", zap.String("checkin_id", checkIn.ID), zap.Error(err))
		return false
	}
	return true
}

// HandleSentimentJob classifies a check-in's free text, stores the result once
// per check-in and raises an emotional_distress alert when warranted.
func (s *WellnessService) HandleSentimentJob(ctx context.Context, job jobs.Job) error {
	checkInID, ok := job.Payload.(string)
	if !ok || checkInID == "" {
		return fmt.Errorf("sentiment job %s: unexpected payload %T", job.ID, job.Payload)
	}
	checkIn, err := s.checkIns.FindByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("sentiment job for unknown check-in", zap.String("checkin_id", checkInID))
			return nil
		}
		return err
	}
	student, err := loadStudent(ctx, s.students, checkIn.StudentID)
	if err != nil {
		return err
	}

	result, err := s.analyzer.AnalyzeSentiment(ctx, checkIn.FreeText)
	if err != nil {
		return err
	}
	phrases, err := json.Marshal(result.ConcerningPhrases)
	if err != nil {
		return err
	}
	analysis := models.SentimentAnalysis{
		CheckInID:         checkIn.ID,
		StudentID:         checkIn.StudentID,
		Sentiment:         result.Sentiment,
		Confidence:        result.Confidence,
		AlertLevel:        result.AlertLevel,
		ConcerningPhrases: phrases,
	}

	var alerts []models.Alert
	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		created, err := s.checkIns.CreateSentiment(ctx, q, &analysis)
		if err != nil || !created {
			return err
		}
		alerts, err = s.engine.Dispatch(ctx, q, models.Event{
			Kind:        models.EventSentimentAnalyzed,
			StudentID:   student.ID,
			StudentName: student.FullName,
			Sentiment:   &analysis,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("store sentiment for %s: %w", checkIn.ID, err)
	}
	if len(alerts) > 0 {
		_ = s.cache.Delete(ctx, dashboardCacheKey)
	}
	notify(ctx, s.notifier, alerts)
	return nil
}

// ListByStudent returns the newest check-ins of a student.
func (s *WellnessService) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.WellnessCheckIn, error) {
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultCheckInListLimit
	}
	items, err := s.checkIns.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, internalError(err, "failed to list check-ins")
	}
	return items, nil
}
