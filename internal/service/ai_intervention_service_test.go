package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

type stubRecommender struct {
	result *models.RecommendationResult
	err    error
}

func (s *stubRecommender) RecommendForStudent(_ context.Context, studentID string) (*models.RecommendationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	r.StudentID = studentID
	return &r, nil
}

type fakePredictions struct {
	mu      sync.Mutex
	entries []models.PredictionLog
}

func (f *fakePredictions) Create(_ context.Context, _ sqlx.ExtContext, entry *models.PredictionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func newAIInterventionFixture(rec *stubRecommender) (*AIInterventionService, *fakeInterventionRepo, *fakePredictions, *fakeAlertStore) {
	repo := &fakeInterventionRepo{}
	predictions := &fakePredictions{}
	alerts := &fakeAlertStore{}
	engine := NewAlertEngine(alerts, DefaultAlertRules(DefaultAlertPolicy()), nil, nil)
	students := newFakeStudents(models.Student{ID: "stu-1", FullName: "Ana", Active: true})
	svc := NewAIInterventionService(students, rec, repo, predictions, engine, &fakeTx{}, nil, nil, nil, nil, 0)
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }
	return svc, repo, predictions, alerts
}

func TestAIInterventionCreatesCounselingWithTopRecommendation(t *testing.T) {
	svc, repo, predictions, _ := newAIInterventionFixture(&stubRecommender{result: &models.RecommendationResult{
		Profile: models.InterventionProfile{RiskLevel: models.RiskHigh, Issues: "low attendance", YearLevel: 10},
		Recommendations: []models.Recommendation{
			{Type: "Peer Mentoring", SuccessProbability: 0.8, Reasoning: "Builds belonging."},
			{Type: "Parent Meeting", SuccessProbability: 0.5, Reasoning: "Aligns support."},
		},
	}})

	result, err := svc.Create(context.Background(), models.AIInterventionRequest{StudentID: "stu-1"}, "counselor-1")
	require.NoError(t, err)

	assert.Equal(t, models.InterventionTypeCounseling, result.Intervention.InterventionType)
	assert.Equal(t, models.InterventionScheduled, result.Intervention.Status)
	assert.Equal(t, time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC), result.Intervention.ScheduledDate)
	assert.Equal(t, "AI-recommended Peer Mentoring (estimated success 80%). Builds belonging.", result.Intervention.Description)
	require.NotNil(t, result.Alert)
	assert.Equal(t, models.AlertAIIntervention, result.Alert.AlertType)
	assert.Equal(t, models.SeverityMedium, result.Alert.Severity)
	assert.False(t, result.Degraded)
	require.Len(t, predictions.entries, 1)
	assert.JSONEq(t, `{"risk_level":"high","issues":"low attendance","year_level":10}`, string(predictions.entries[0].Input))
	assert.Len(t, repo.scheduledFor("stu-1"), 1)
}

func TestAIInterventionDegradesWithoutModel(t *testing.T) {
	svc, repo, predictions, alerts := newAIInterventionFixture(&stubRecommender{result: &models.RecommendationResult{
		Recommendations: []models.Recommendation{},
		Degraded:        true,
	}})

	result, err := svc.Create(context.Background(), models.AIInterventionRequest{StudentID: "stu-1"}, "")
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, genericAIDescription, result.Intervention.Description)
	assert.Empty(t, predictions.entries)
	assert.Len(t, repo.scheduledFor("stu-1"), 1)
	assert.Equal(t, 1, alerts.countByType("stu-1", models.AlertAIIntervention, true))
}

func TestAIInterventionErrors(t *testing.T) {
	svc, _, _, _ := newAIInterventionFixture(&stubRecommender{result: &models.RecommendationResult{}})

	_, err := svc.Create(context.Background(), models.AIInterventionRequest{}, "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), models.AIInterventionRequest{StudentID: "ghost"}, "")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
