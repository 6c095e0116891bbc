package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

const genericAIDescription = "AI recommendation unavailable. Counselor review needed for general support."

type studentRecommender interface {
	RecommendForStudent(ctx context.Context, studentID string) (*models.RecommendationResult, error)
}

type interventionCreator interface {
	Create(ctx context.Context, q sqlx.ExtContext, intervention *models.Intervention) error
}

type predictionRecorder interface {
	Create(ctx context.Context, q sqlx.ExtContext, entry *models.PredictionLog) error
}

// AIInterventionService schedules counseling enriched with model recommendations.
type AIInterventionService struct {
	students      studentReader
	recommender   studentRecommender
	interventions interventionCreator
	predictions   predictionRecorder
	engine        alertDispatcher
	tx            txRunner
	cache         *CacheService
	notifier      alertNotifier
	validator     *validator.Validate
	logger        *zap.Logger
	offset        time.Duration
	now           func() time.Time
}

// NewAIInterventionService constructs the service. offset is how far ahead the
// session is scheduled.
func NewAIInterventionService(
	students studentReader,
	recommender studentRecommender,
	interventions interventionCreator,
	predictions predictionRecorder,
	engine alertDispatcher,
	tx txRunner,
	cache *CacheService,
	notifier alertNotifier,
	validate *validator.Validate,
	logger *zap.Logger,
	offset time.Duration,
) *AIInterventionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if offset <= 0 {
		offset = 72 * time.Hour
	}
	return &AIInterventionService{
		students:      students,
		recommender:   recommender,
		interventions: interventions,
		predictions:   predictions,
		engine:        engine,
		tx:            tx,
		cache:         cache,
		notifier:      notifier,
		validator:     validate,
		logger:        logger,
		offset:        offset,
		now:           time.Now,
	}
}

// Create schedules a counseling session describing the top recommendation and
// raises an ai_intervention alert. Without a model answer the session is still
// scheduled with a generic description.
func (s *AIInterventionService) Create(ctx context.Context, req models.AIInterventionRequest, counselorID string) (*models.AIInterventionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ai intervention payload")
	}
	student, err := loadStudent(ctx, s.students, req.StudentID)
	if err != nil {
		return nil, err
	}
	rec, err := s.recommender.RecommendForStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	item := models.Intervention{
		StudentID:        student.ID,
		StudentName:      student.FullName,
		CounselorID:      optionalString(counselorID),
		InterventionType: models.InterventionTypeCounseling,
		Description:      genericAIDescription,
		ScheduledDate:    s.now().UTC().Add(s.offset),
	}
	var top *models.Recommendation
	if len(rec.Recommendations) > 0 {
		top = &rec.Recommendations[0]
		item.Description = fmt.Sprintf("AI-recommended %s (estimated success %.0f%%). %s",
			top.Type, top.SuccessProbability*100, top.Reasoning)
	}

	var alerts []models.Alert
	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		if err := s.interventions.Create(ctx, q, &item); err != nil {
			return err
		}
		if !rec.Degraded {
			entry, err := predictionEntry(student.ID, rec)
			if err != nil {
				return err
			}
			if err := s.predictions.Create(ctx, q, entry); err != nil {
				return err
			}
		}
		var dispatchErr error
		alerts, dispatchErr = s.engine.Dispatch(ctx, q, models.Event{
			Kind:           models.EventAIIntervention,
			StudentID:      student.ID,
			StudentName:    student.FullName,
			Intervention:   &item,
			Recommendation: top,
		})
		return dispatchErr
	})
	if err != nil {
		return nil, internalError(err, "failed to create ai intervention")
	}

	_ = s.cache.Delete(ctx, dashboardCacheKey)
	notify(ctx, s.notifier, alerts)
	s.logger.Info("ai intervention scheduled",
		zap.String("student_id", student.ID),
		zap.String("intervention_id", item.ID),
		zap.Bool("degraded", rec.Degraded))

	result := &models.AIInterventionResult{
		Intervention:    item,
		Recommendations: rec.Recommendations,
		Degraded:        rec.Degraded,
	}
	if len(alerts) > 0 {
		result.Alert = &alerts[0]
	}
	return result, nil
}

func predictionEntry(studentID string, rec *models.RecommendationResult) (*models.PredictionLog, error) {
	input, err := json.Marshal(rec.Profile)
	if err != nil {
		return nil, err
	}
	output, err := json.Marshal(models.RecommendationSet{Recommendations: rec.Recommendations})
	if err != nil {
		return nil, err
	}
	return &models.PredictionLog{StudentID: studentID, Kind: AIKindRecommendation, Input: input, Output: output}, nil
}
