package service

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/pkg/ai"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

// AI request kinds used for cache keys and metrics.
const (
	AIKindRecommendation = "recommendation"
	AIKindSentiment      = "sentiment"
)

const (
	defaultYearLevel    = 9
	defaultProfileLevel = models.RiskMedium
	generalSupportIssue = "general support needed"
	maxRecommendations  = 2
)

// interventionCatalog is offered to the model as the closed set of choices.
var interventionCatalog = []string{
	"One-on-One Counseling",
	"Group Counseling",
	"Academic Tutoring",
	"Peer Mentoring",
	"Parent Meeting",
	"Study Skills Workshop",
}

type aiGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, out interface{}) error
}

// RecommendationConfig tunes the bridge to the generative capability.
type RecommendationConfig struct {
	Enabled           bool
	Timeout           time.Duration
	RequestsPerMinute int
	ScoreCacheTTL     time.Duration
	SentimentCacheTTL time.Duration
}

// RecommendationService packages student profiles and free text for the
// external model. Every failure degrades to "no enrichment"; callers decide
// whether ErrAIUnavailable matters to them.
type RecommendationService struct {
	client     aiGenerator
	cache      *CacheService
	limiter    *rate.Limiter
	students   studentReader
	risks      latestAssessmentReader
	aggregator snapshotAggregator
	metrics    *MetricsService
	logger     *zap.Logger
	config     RecommendationConfig
}

// NewRecommendationService constructs the bridge. A nil client disables it.
func NewRecommendationService(
	client aiGenerator,
	cache *CacheService,
	students studentReader,
	risks latestAssessmentReader,
	aggregator snapshotAggregator,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg RecommendationConfig,
) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 15
	}
	if cfg.ScoreCacheTTL <= 0 {
		cfg.ScoreCacheTTL = 24 * time.Hour
	}
	if cfg.SentimentCacheTTL <= 0 {
		cfg.SentimentCacheTTL = 7 * 24 * time.Hour
	}
	return &RecommendationService{
		client:     client,
		cache:      cache,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		students:   students,
		risks:      risks,
		aggregator: aggregator,
		metrics:    metrics,
		logger:     logger,
		config:     cfg,
	}
}

// Enabled reports whether AI calls can be attempted.
func (s *RecommendationService) Enabled() bool {
	return s != nil && s.config.Enabled && s.client != nil
}

// BuildProfile summarises a student without identifying data. GPA and tier come
// from the latest assessment; attendance, missing work and stress are live.
func (s *RecommendationService) BuildProfile(ctx context.Context, student models.Student) (models.InterventionProfile, error) {
	profile := models.InterventionProfile{RiskLevel: defaultProfileLevel, YearLevel: student.GradeLevel}
	if profile.YearLevel <= 0 {
		profile.YearLevel = defaultYearLevel
	}

	var issues []string
	latest, err := s.risks.Latest(ctx, student.ID)
	switch {
	case err == nil:
		profile.RiskLevel = latest.RiskLevel
		if latest.GPA > 0 && latest.GPA < 2.5 {
			issues = append(issues, "academic decline")
		}
	case !errors.Is(err, sql.ErrNoRows):
		return profile, err
	}

	snapshot, err := s.aggregator.Aggregate(ctx, student.ID)
	if err != nil {
		return profile, err
	}
	if snapshot.AttendanceRate < 80 {
		issues = append(issues, "low attendance")
	}
	if snapshot.MissingAssignmentCount >= 3 {
		issues = append(issues, "missing assignments")
	}
	if snapshot.HasCheckIn && snapshot.AverageStress >= 4 {
		issues = append(issues, "high stress")
	}

	profile.Issues = generalSupportIssue
	if len(issues) > 0 {
		profile.Issues = strings.Join(issues, ", ")
	}
	return profile, nil
}

// RecommendForStudent returns ranked suggestions. An unavailable model yields an
// empty, degraded result rather than an error.
func (s *RecommendationService) RecommendForStudent(ctx context.Context, studentID string) (*models.RecommendationResult, error) {
	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		return nil, err
	}
	profile, err := s.BuildProfile(ctx, *student)
	if err != nil {
		return nil, internalError(err, "failed to build intervention profile")
	}

	result := &models.RecommendationResult{StudentID: student.ID, Profile: profile, Recommendations: []models.Recommendation{}}
	set, cached, err := s.Recommend(ctx, profile)
	if err != nil {
		s.logger.Warn("recommendations unavailable", zap.String("student_id", student.ID), zap.Error(err))
		result.Degraded = true
		return result, nil
	}
	result.Recommendations = set.Recommendations
	result.Cached = cached
	return result, nil
}

// Recommend asks the model for the best interventions for a profile.
func (s *RecommendationService) Recommend(ctx context.Context, profile models.InterventionProfile) (models.RecommendationSet, bool, error) {
	encoded, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return models.RecommendationSet{}, false, err
	}
	prompt := fmt.Sprintf("Recommend top %d interventions for this at-risk student.\n\nStudent Profile:\n%s\n\nAvailable interventions: %s\n\n"+
		`Return JSON only: {"recommendations":[{"type":"...","success_probability":0.0,"reasoning":"..."}]}`,
		maxRecommendations, encoded, strings.Join(interventionCatalog, ", "))

	var set models.RecommendationSet
	cached, err := s.generate(ctx, AIKindRecommendation, prompt, s.config.ScoreCacheTTL, &set, func() error {
		set = normalizeRecommendations(set)
		if len(set.Recommendations) == 0 {
			return ai.ErrEmptyResponse
		}
		return nil
	})
	if err != nil {
		return models.RecommendationSet{}, false, err
	}
	return set, cached, nil
}

// AnalyzeSentiment classifies free text from a wellness check-in.
func (s *RecommendationService) AnalyzeSentiment(ctx context.Context, text string) (models.SentimentResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.SentimentResult{}, appErrors.Clone(appErrors.ErrValidation, "text is required")
	}
	prompt := fmt.Sprintf("Analyze this student's wellness response for emotional distress.\n\nText: %q\n\n"+
		`Return JSON only: {"sentiment":"positive|neutral|negative","confidence":0.0,"alert_level":"none|low|medium|high|critical","concerning_phrases":["..."]}`,
		text)

	var result models.SentimentResult
	_, err := s.generate(ctx, AIKindSentiment, prompt, s.config.SentimentCacheTTL, &result, func() error {
		result = normalizeSentiment(result)
		return nil
	})
	return result, err
}

// generate serves from cache when possible, otherwise calls the model under the
// rate limiter and a timeout, validates the answer and caches it.
func (s *RecommendationService) generate(ctx context.Context, kind, prompt string, ttl time.Duration, out interface{}, validate func() error) (bool, error) {
	if !s.Enabled() {
		s.metrics.RecordAIRequest(kind, AIOutcomeDisabled)
		return false, appErrors.Clone(appErrors.ErrAIUnavailable, "ai capability disabled")
	}

	key := aiCacheKey(kind, prompt)
	if hit, _ := s.cache.Get(ctx, key, out); hit {
		if err := validate(); err == nil {
			s.metrics.RecordAIRequest(kind, AIOutcomeCacheHit)
			return true, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if err := s.limiter.Wait(callCtx); err != nil {
		s.metrics.RecordAIRequest(kind, AIOutcomeRateLimited)
		return false, appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "ai request throttled")
	}

	if err := s.client.GenerateJSON(callCtx, prompt, out); err != nil {
		s.metrics.RecordAIRequest(kind, aiFailureOutcome(callCtx, err))
		s.logger.Warn("ai request failed", zap.String("kind", kind), zap.Error(err))
		return false, appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "ai request failed")
	}
	if err := validate(); err != nil {
		s.metrics.RecordAIRequest(kind, AIOutcomeError)
		return false, appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "ai response malformed")
	}

	s.metrics.RecordAIRequest(kind, AIOutcomeSuccess)
	_ = s.cache.Set(ctx, key, out, ttl)
	return false, nil
}

func aiFailureOutcome(ctx context.Context, err error) string {
	var status *ai.StatusError
	switch {
	case errors.As(err, &status) && status.RateLimited():
		return AIOutcomeRateLimited
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return AIOutcomeTimeout
	default:
		return AIOutcomeError
	}
}

func aiCacheKey(kind, prompt string) string {
	sum := blake2b.Sum256([]byte(prompt))
	return "ai:" + kind + ":" + hex.EncodeToString(sum[:])
}

func normalizeRecommendations(set models.RecommendationSet) models.RecommendationSet {
	out := make([]models.Recommendation, 0, len(set.Recommendations))
	for _, r := range set.Recommendations {
		r.Type = strings.TrimSpace(r.Type)
		if r.Type == "" {
			continue
		}
		r.SuccessProbability = clampUnit(r.SuccessProbability)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SuccessProbability > out[j].SuccessProbability })
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return models.RecommendationSet{Recommendations: out}
}

func normalizeSentiment(r models.SentimentResult) models.SentimentResult {
	r.Sentiment = strings.ToLower(strings.TrimSpace(r.Sentiment))
	switch r.Sentiment {
	case "positive", "neutral", "negative":
	default:
		r.Sentiment = "neutral"
	}
	r.AlertLevel = strings.ToLower(strings.TrimSpace(r.AlertLevel))
	switch r.AlertLevel {
	case "none", "low", "medium", "high", "critical":
	default:
		r.AlertLevel = "none"
	}
	r.Confidence = clampUnit(r.Confidence)
	if r.ConcerningPhrases == nil {
		r.ConcerningPhrases = []string{}
	}
	return r
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
