package app

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/sma-wellbeing-api/internal/handler"
	"github.com/noah-isme/sma-wellbeing-api/internal/middleware"
	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/internal/repository"
	"github.com/noah-isme/sma-wellbeing-api/pkg/config"
	"github.com/noah-isme/sma-wellbeing-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-wellbeing-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-wellbeing-api/pkg/middleware/requestid"
)

const (
	admin     = string(models.RoleAdmin)
	counselor = string(models.RoleCounselor)
	teacher   = string(models.RoleTeacher)
	student   = string(models.RoleStudent)
)

// NewRouter builds the gin engine with every route mounted.
func NewRouter(c *Container) *gin.Engine {
	cfg := c.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(c.Metrics))
	r.Use(middleware.WithResponseMeta())

	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(func(ctx context.Context) error { return c.DB.PingContext(ctx) }),
	}
	if c.Redis != nil {
		checks["redis"] = handler.PingFunc(repository.NewCacheRepository(c.Redis, c.Logger).Ping)
	}
	ops := handler.NewMetricsHandler(c.Metrics.Handler(), checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(c.Auth))
	registerRoutes(api, c)
	return r
}

func registerRoutes(api *gin.RouterGroup, c *Container) {
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(c.Audit, c.Logger, action, resource)
	}
	staff := middleware.RBAC(admin, counselor)

	riskHandler := handler.NewRiskHandler(c.Risk)
	risk := api.Group("/risk")
	risk.POST("/recalculate", staff, audit(models.AuditActionRiskRecalculate, "risk"), riskHandler.Recalculate)
	risk.POST("/students/:id/assess", staff, riskHandler.Assess)
	risk.GET("/students/:id/latest", middleware.RBAC(admin, counselor, teacher, middleware.SelfStudent), riskHandler.Latest)
	risk.GET("/students/:id/history", middleware.RBAC(admin, counselor, teacher, middleware.SelfStudent), riskHandler.History)
	risk.GET("/at-risk", middleware.RBAC(admin, counselor, teacher), riskHandler.AtRisk)

	alertHandler := handler.NewAlertHandler(c.Alerts)
	alerts := api.Group("/alerts", staff)
	alerts.GET("", alertHandler.List)
	alerts.GET("/:id", alertHandler.Get)
	alerts.POST("/:id/read", audit(models.AuditActionAlertRead, "alert"), alertHandler.MarkRead)
	alerts.POST("/:id/resolve", audit(models.AuditActionAlertResolve, "alert"), alertHandler.Resolve)

	interventionHandler := handler.NewInterventionHandler(c.Interventions, c.AIInterventions)
	interventions := api.Group("/interventions", staff)
	interventions.GET("", interventionHandler.List)
	interventions.POST("", audit(models.AuditActionInterventionSchedule, "intervention"), interventionHandler.Create)
	interventions.POST("/remediate", audit(models.AuditActionRemediation, "intervention"), interventionHandler.Remediate)
	interventions.POST("/ai", audit(models.AuditActionInterventionSchedule, "intervention"), interventionHandler.CreateAI)
	interventions.POST("/:id/complete", audit(models.AuditActionInterventionComplete, "intervention"), interventionHandler.Complete)
	interventions.POST("/:id/cancel", audit(models.AuditActionInterventionCancel, "intervention"), interventionHandler.Cancel)

	recommendationHandler := handler.NewRecommendationHandler(c.Recommendations)
	api.GET("/students/:id/recommendations", staff, recommendationHandler.ForStudent)

	concernHandler := handler.NewConcernHandler(c.Concerns)
	concerns := api.Group("/concerns", middleware.RBAC(admin, counselor, teacher))
	concerns.POST("", concernHandler.Create)
	concerns.GET("", concernHandler.List)

	wellnessHandler := handler.NewWellnessHandler(c.Wellness)
	wellness := api.Group("/wellness")
	wellness.POST("/checkins", middleware.RBAC(admin, counselor, student), wellnessHandler.Submit)
	wellness.GET("/students/:id/checkins", middleware.RBAC(admin, counselor, middleware.SelfStudent), wellnessHandler.ListByStudent)

	dashboardHandler := handler.NewDashboardHandler(c.Dashboard)
	api.GET("/dashboard/counselor", staff, dashboardHandler.Counselor)

	reportHandler := handler.NewReportHandler(c.Reports)
	api.GET("/reports/at-risk", staff, reportHandler.AtRisk)
}
