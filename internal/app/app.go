// Package app assembles repositories, services and background workers from config.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/repository"
	"github.com/noah-isme/sma-wellbeing-api/internal/service"
	"github.com/noah-isme/sma-wellbeing-api/pkg/ai"
	"github.com/noah-isme/sma-wellbeing-api/pkg/cache"
	"github.com/noah-isme/sma-wellbeing-api/pkg/config"
	"github.com/noah-isme/sma-wellbeing-api/pkg/database"
	"github.com/noah-isme/sma-wellbeing-api/pkg/jobs"
	"github.com/noah-isme/sma-wellbeing-api/pkg/notify"
)

// Container holds every long-lived dependency of a process.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Audit *repository.AuditRepository

	Metrics         *service.MetricsService
	Auth            *service.AuthService
	Risk            *service.RiskService
	Alerts          *service.AlertService
	Interventions   *service.InterventionService
	AIInterventions *service.AIInterventionService
	Recommendations *service.RecommendationService
	Wellness        *service.WellnessService
	Concerns        *service.ConcernService
	Dashboard       *service.DashboardService
	Reports         *service.ReportService
	Notifications   *service.NotificationService

	SentimentQueue *jobs.Queue
	EmailQueue     *jobs.Queue
}

// New connects to storage and builds the service graph. Queues are created but
// not started; call Start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// the cache is optional; run without it
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	c := &Container{Config: cfg, Logger: logger, DB: db, Redis: redisClient}
	c.build(ctx)
	return c, nil
}

func (c *Container) build(ctx context.Context) {
	cfg, logger := c.Config, c.Logger
	validate := validator.New()

	students := repository.NewStudentRepository(c.DB)
	academic := repository.NewAcademicRepository(c.DB)
	risks := repository.NewRiskRepository(c.DB)
	alerts := repository.NewAlertRepository(c.DB)
	concerns := repository.NewConcernRepository(c.DB)
	wellness := repository.NewWellnessRepository(c.DB)
	interventions := repository.NewInterventionRepository(c.DB)
	predictions := repository.NewPredictionRepository(c.DB)
	dashboard := repository.NewDashboardRepository(c.DB)
	tx := repository.NewTransactor(c.DB)
	c.Audit = repository.NewAuditRepository(c.DB)

	c.Metrics = service.NewMetricsService()
	c.Auth = service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})

	var cacheRepo service.CacheRepository
	if c.Redis != nil {
		cacheRepo = repository.NewCacheRepository(c.Redis, logger)
	}
	cacheSvc := service.NewCacheService(cacheRepo, c.Metrics, cfg.Dashboard.CacheTTL, logger, cacheRepo != nil)

	c.Notifications = c.buildNotifications(ctx)

	aggregator := service.NewMetricsAggregator(academic, wellness, c.Metrics, service.AggregatorConfig{
		WellnessWindow:     cfg.Risk.WellnessWindow,
		AttendanceLookback: cfg.Risk.AttendanceLookback,
	})
	scorer, err := service.NewRiskScorer(service.DefaultRiskPolicy().WithThresholds(cfg.Risk.HighThreshold, cfg.Risk.MediumThreshold))
	if err != nil {
		logger.Warn("invalid risk thresholds, using defaults", zap.Error(err))
		scorer, _ = service.NewRiskScorer(service.DefaultRiskPolicy())
	}
	alertPolicy := service.DefaultAlertPolicy()
	if cfg.Alerts.MissingAssignmentThreshold > 0 {
		alertPolicy.MissingThreshold = cfg.Alerts.MissingAssignmentThreshold
	}
	if cfg.Alerts.AttendanceThreshold > 0 {
		alertPolicy.AttendanceThreshold = cfg.Alerts.AttendanceThreshold
	}
	engine := service.NewAlertEngine(alerts, service.DefaultAlertRules(alertPolicy), c.Metrics, logger)

	c.Risk = service.NewRiskService(students, risks, aggregator, scorer, engine, tx, c.Notifications, c.Metrics, logger,
		service.RiskServiceConfig{Workers: cfg.Risk.RecalcWorkers})
	c.Alerts = service.NewAlertService(alerts, tx, cacheSvc, logger)
	c.Interventions = service.NewInterventionService(interventions, alerts, risks, students, tx, cacheSvc, c.Metrics, validate, logger,
		service.InterventionConfig{
			ScheduleOffset:       cfg.Remediation.ScheduleOffset,
			TutoringMissingCount: cfg.Remediation.TutoringMissingCount,
		})

	var generator interface {
		GenerateJSON(ctx context.Context, prompt string, out interface{}) error
	}
	if client := c.buildAIClient(ctx); client != nil {
		generator = client
	}
	c.Recommendations = service.NewRecommendationService(generator, cacheSvc, students, risks, aggregator, c.Metrics, logger,
		service.RecommendationConfig{
			Enabled:           cfg.AI.Enabled && generator != nil,
			Timeout:           cfg.AI.Timeout,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
			ScoreCacheTTL:     cfg.AI.ScoreCacheTTL,
			SentimentCacheTTL: cfg.AI.SentimentCacheTTL,
		})
	c.AIInterventions = service.NewAIInterventionService(students, c.Recommendations, interventions, predictions, engine, tx, cacheSvc,
		c.Notifications, validate, logger, cfg.Remediation.AIScheduleOffset)

	c.Wellness = service.NewWellnessService(wellness, students, engine, tx, c.Recommendations, cacheSvc, c.Notifications, validate, logger)
	c.Concerns = service.NewConcernService(concerns, students, engine, tx, cacheSvc, c.Notifications, validate, logger)
	c.Dashboard = service.NewDashboardService(dashboard, interventions, alerts, cacheSvc, logger, service.DashboardConfig{
		Enabled:  cfg.Dashboard.Enabled,
		CacheTTL: cfg.Dashboard.CacheTTL,
	})
	c.Reports = service.NewReportService(risks, logger, cfg.Reports.Enabled)

	c.SentimentQueue = jobs.NewQueue("sentiment", c.Wellness.HandleSentimentJob, jobs.QueueConfig{
		Workers:    cfg.AI.Workers,
		BufferSize: 256,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		JobTimeout: cfg.AI.Timeout + 5*time.Second,
		Logger:     logger,
	})
	c.Wellness.SetQueue(c.SentimentQueue)

	c.EmailQueue = jobs.NewQueue("alert-email", c.Notifications.HandleAlertEmailJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 128,
		MaxRetries: 3,
		RetryDelay: 10 * time.Second,
		JobTimeout: 15 * time.Second,
		Logger:     logger,
	})
	c.Notifications.SetQueue(c.EmailQueue)
}

func (c *Container) buildAIClient(ctx context.Context) *ai.Client {
	if !c.Config.AI.Enabled {
		return nil
	}
	client, err := ai.NewClient(ctx, ai.Options{
		BaseURL:              c.Config.AI.BaseURL,
		Model:                c.Config.AI.Model,
		APIKey:               c.Config.AI.APIKey,
		UseGoogleCredentials: c.Config.AI.UseGoogleCredentials,
		Timeout:              c.Config.AI.Timeout,
	})
	if err != nil {
		c.Logger.Warn("ai client unavailable, recommendations degraded", zap.Error(err))
		return nil
	}
	return client
}

func (c *Container) buildNotifications(ctx context.Context) *service.NotificationService {
	cfg := c.Config.Notifications
	var mailer *notify.Mailer
	if cfg.Enabled {
		m, err := notify.NewSESMailer(ctx, cfg.AWSRegion, cfg.FromEmail, cfg.FromName, c.Logger)
		if err != nil {
			c.Logger.Warn("ses mailer unavailable, alert emails disabled", zap.Error(err))
		} else {
			mailer = m
		}
	}
	return service.NewNotificationService(mailer, c.Logger, service.NotificationConfig{
		Recipients: cfg.Recipients,
		AppBaseURL: cfg.AppBaseURL,
	})
}

// Start launches the background queues.
func (c *Container) Start(ctx context.Context) {
	c.SentimentQueue.Start(ctx)
	c.EmailQueue.Start(ctx)
}

// Drain waits until both queues are empty or ctx is done.
func (c *Container) Drain(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for c.SentimentQueue.Pending()+c.EmailQueue.Pending() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close stops the queues and releases connections.
func (c *Container) Close() {
	c.SentimentQueue.Stop()
	c.EmailQueue.Stop()
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
