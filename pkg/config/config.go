package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Risk          RiskConfig
	Alerts        AlertConfig
	Remediation   RemediationConfig
	AI            AIConfig
	Notifications NotificationConfig
	Dashboard     DashboardConfig
	Reports       ReportsConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the secret shared with the account service that issues tokens.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RiskConfig overrides the risk tiering policy and batch behaviour.
type RiskConfig struct {
	HighThreshold      int
	MediumThreshold    int
	WellnessWindow     int
	AttendanceLookback time.Duration
	RecalcWorkers      int
	RecalcInterval     time.Duration
	RecalcOnStart      bool
	SchedulerEnabled   bool
}

// AlertConfig holds the thresholds used by assessment-triggered alert rules.
type AlertConfig struct {
	MissingAssignmentThreshold int
	AttendanceThreshold        float64
}

// RemediationConfig tunes automatic intervention scheduling.
type RemediationConfig struct {
	ScheduleOffset       time.Duration
	TutoringMissingCount int
	AIScheduleOffset     time.Duration
}

// AIConfig configures the external generative capability.
type AIConfig struct {
	Enabled              bool
	BaseURL              string
	Model                string
	APIKey               string
	UseGoogleCredentials bool
	Timeout              time.Duration
	RequestsPerMinute    int
	ScoreCacheTTL        time.Duration
	SentimentCacheTTL    time.Duration
	Workers              int
}

// NotificationConfig toggles SES delivery of critical alerts.
type NotificationConfig struct {
	Enabled    bool
	AWSRegion  string
	FromEmail  string
	FromName   string
	Recipients []string
	AppBaseURL string
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// ReportsConfig gates the at-risk export endpoint.
type ReportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Risk = RiskConfig{
		HighThreshold:      v.GetInt("RISK_HIGH_THRESHOLD"),
		MediumThreshold:    v.GetInt("RISK_MEDIUM_THRESHOLD"),
		WellnessWindow:     v.GetInt("RISK_WELLNESS_WINDOW"),
		AttendanceLookback: parseDuration(v.GetString("RISK_ATTENDANCE_LOOKBACK"), 0),
		RecalcWorkers:      v.GetInt("RISK_RECALC_WORKERS"),
		RecalcInterval:     parseDuration(v.GetString("RISK_RECALC_INTERVAL"), 24*time.Hour),
		RecalcOnStart:      v.GetBool("RISK_RECALC_ON_START"),
		SchedulerEnabled:   v.GetBool("ENABLE_RISK_SCHEDULER"),
	}

	cfg.Alerts = AlertConfig{
		MissingAssignmentThreshold: v.GetInt("ALERT_MISSING_THRESHOLD"),
		AttendanceThreshold:        v.GetFloat64("ALERT_ATTENDANCE_THRESHOLD"),
	}

	cfg.Remediation = RemediationConfig{
		ScheduleOffset:       parseDuration(v.GetString("REMEDIATION_SCHEDULE_OFFSET"), 24*time.Hour),
		TutoringMissingCount: v.GetInt("REMEDIATION_TUTORING_MISSING"),
		AIScheduleOffset:     parseDuration(v.GetString("AI_INTERVENTION_SCHEDULE_OFFSET"), 72*time.Hour),
	}

	cfg.AI = AIConfig{
		Enabled:              v.GetBool("ENABLE_AI"),
		BaseURL:              strings.TrimRight(v.GetString("AI_BASE_URL"), "/"),
		Model:                v.GetString("AI_MODEL"),
		APIKey:               v.GetString("AI_API_KEY"),
		UseGoogleCredentials: v.GetBool("AI_USE_GOOGLE_CREDENTIALS"),
		Timeout:              parseDuration(v.GetString("AI_TIMEOUT"), 10*time.Second),
		RequestsPerMinute:    v.GetInt("AI_REQUESTS_PER_MINUTE"),
		ScoreCacheTTL:        parseDuration(v.GetString("AI_SCORE_CACHE_TTL"), 24*time.Hour),
		SentimentCacheTTL:    parseDuration(v.GetString("AI_SENTIMENT_CACHE_TTL"), 7*24*time.Hour),
		Workers:              v.GetInt("AI_WORKERS"),
	}

	cfg.Notifications = NotificationConfig{
		Enabled:    v.GetBool("ENABLE_ALERT_EMAILS"),
		AWSRegion:  v.GetString("AWS_REGION"),
		FromEmail:  v.GetString("SES_FROM_EMAIL"),
		FromName:   v.GetString("SES_FROM_NAME"),
		Recipients: splitAndTrim(v.GetString("ALERT_EMAIL_RECIPIENTS")),
		AppBaseURL: strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:  v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reports = ReportsConfig{Enabled: v.GetBool("ENABLE_REPORTS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_wellbeing")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RISK_HIGH_THRESHOLD", 50)
	v.SetDefault("RISK_MEDIUM_THRESHOLD", 30)
	v.SetDefault("RISK_WELLNESS_WINDOW", 3)
	v.SetDefault("RISK_ATTENDANCE_LOOKBACK", "0")
	v.SetDefault("RISK_RECALC_WORKERS", 4)
	v.SetDefault("RISK_RECALC_INTERVAL", "24h")
	v.SetDefault("RISK_RECALC_ON_START", false)
	v.SetDefault("ENABLE_RISK_SCHEDULER", true)

	v.SetDefault("ALERT_MISSING_THRESHOLD", 3)
	v.SetDefault("ALERT_ATTENDANCE_THRESHOLD", 75)

	v.SetDefault("REMEDIATION_SCHEDULE_OFFSET", "24h")
	v.SetDefault("REMEDIATION_TUTORING_MISSING", 3)
	v.SetDefault("AI_INTERVENTION_SCHEDULE_OFFSET", "72h")

	v.SetDefault("ENABLE_AI", false)
	v.SetDefault("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("AI_MODEL", "gemini-2.5-flash")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_USE_GOOGLE_CREDENTIALS", false)
	v.SetDefault("AI_TIMEOUT", "10s")
	v.SetDefault("AI_REQUESTS_PER_MINUTE", 15)
	v.SetDefault("AI_SCORE_CACHE_TTL", "24h")
	v.SetDefault("AI_SENTIMENT_CACHE_TTL", "168h")
	v.SetDefault("AI_WORKERS", 1)

	v.SetDefault("ENABLE_ALERT_EMAILS", false)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SES_FROM_EMAIL", "")
	v.SetDefault("SES_FROM_NAME", "Student Wellbeing")
	v.SetDefault("ALERT_EMAIL_RECIPIENTS", "")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_REPORTS", true)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
