package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

func newTestEngine(store *fakeAlertStore) *AlertEngine {
	return NewAlertEngine(store, DefaultAlertRules(DefaultAlertPolicy()), nil, nil)
}

func assessmentEvent(a models.RiskAssessment) models.Event {
	a.StudentID = "stu-1"
	return models.Event{Kind: models.EventRiskAssessed, StudentID: "stu-1", StudentName: "Ana", Assessment: &a}
}

func alertsByType(alerts []models.Alert) map[models.AlertType]models.Alert {
	out := make(map[models.AlertType]models.Alert, len(alerts))
	for _, a := range alerts {
		out[a.AlertType] = a
	}
	return out
}

func TestDispatchReferenceAssessment(t *testing.T) {
	store := &fakeAlertStore{}
	engine := newTestEngine(store)

	created, err := engine.Dispatch(context.Background(), nil, assessmentEvent(models.RiskAssessment{
		RiskScore: 60, RiskLevel: models.RiskHigh, GPA: 2.2, AttendanceRate: 68, MissingAssignmentCount: 4,
	}))
	require.NoError(t, err)
	require.Len(t, created, 3)

	byType := alertsByType(created)
	assert.Equal(t, models.SeverityCritical, byType[models.AlertHighRisk].Severity)
	assert.Equal(t, "Ana has been identified as high risk. Risk score: 60. GPA: 2.2, Attendance: 68%, Missing assignments: 4.",
		byType[models.AlertHighRisk].Message)
	assert.Equal(t, models.SeverityMedium, byType[models.AlertMissingAssignments].Severity)
	assert.Equal(t, models.SeverityMedium, byType[models.AlertLowAttendance].Severity)
	for _, a := range created {
		assert.Equal(t, "stu-1", a.StudentID)
		assert.False(t, a.IsRead)
		assert.False(t, a.Resolved)
	}
}

func TestDispatchDeduplicatesAssessmentAlerts(t *testing.T) {
	store := &fakeAlertStore{}
	engine := newTestEngine(store)
	event := assessmentEvent(models.RiskAssessment{RiskScore: 70, RiskLevel: models.RiskHigh, GPA: 1.2, AttendanceRate: 55, MissingAssignmentCount: 6})

	first, err := engine.Dispatch(context.Background(), nil, event)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := engine.Dispatch(context.Background(), nil, event)
	require.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, 1, store.countByType("stu-1", models.AlertHighRisk, true))
	assert.Equal(t, 1, store.countByType("stu-1", models.AlertMissingAssignments, true))
	assert.Equal(t, 1, store.countByType("stu-1", models.AlertLowAttendance, true))
}

func TestDispatchAfterResolveCreatesNewAlert(t *testing.T) {
	store := &fakeAlertStore{}
	store.seed(models.Alert{StudentID: "stu-1", AlertType: models.AlertHighRisk, Severity: models.SeverityCritical, Resolved: true, IsRead: true})
	engine := newTestEngine(store)

	created, err := engine.Dispatch(context.Background(), nil, assessmentEvent(models.RiskAssessment{RiskScore: 55, RiskLevel: models.RiskHigh, GPA: 3.5, AttendanceRate: 95}))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.AlertHighRisk, created[0].AlertType)
	assert.Equal(t, 2, store.countByType("stu-1", models.AlertHighRisk, false))
}

func TestAssessmentRuleThresholds(t *testing.T) {
	rules := DefaultAlertRules(DefaultAlertPolicy())
	evaluate := func(a models.RiskAssessment) map[models.AlertType]models.Alert {
		out := map[models.AlertType]models.Alert{}
		for _, r := range rules {
			if !r.Handles(models.EventRiskAssessed) {
				continue
			}
			if draft := r.Evaluate(assessmentEvent(a)); draft != nil {
				out[draft.AlertType] = *draft
			}
		}
		return out
	}

	low := evaluate(models.RiskAssessment{RiskLevel: models.RiskMedium, AttendanceRate: 75, MissingAssignmentCount: 2})
	assert.Empty(t, low)

	edge := evaluate(models.RiskAssessment{RiskLevel: models.RiskMedium, AttendanceRate: 74.9, MissingAssignmentCount: 3})
	assert.Equal(t, models.SeverityMedium, edge[models.AlertMissingAssignments].Severity)
	assert.Equal(t, models.SeverityMedium, edge[models.AlertLowAttendance].Severity)
	assert.NotContains(t, edge, models.AlertHighRisk)

	belowHigh := evaluate(models.RiskAssessment{RiskLevel: models.RiskHigh, AttendanceRate: 80, MissingAssignmentCount: 4})
	assert.Equal(t, models.SeverityMedium, belowHigh[models.AlertMissingAssignments].Severity)

	severe := evaluate(models.RiskAssessment{RiskLevel: models.RiskHigh, AttendanceRate: 59.9, MissingAssignmentCount: 5})
	assert.Equal(t, models.SeverityHigh, severe[models.AlertMissingAssignments].Severity)
	assert.Equal(t, models.SeverityHigh, severe[models.AlertLowAttendance].Severity)
	assert.Equal(t, models.SeverityCritical, severe[models.AlertHighRisk].Severity)
}

func TestDispatchTeacherConcernEscalatesSeverity(t *testing.T) {
	cases := map[models.Severity]models.Severity{
		models.SeverityLow:    models.SeverityMedium,
		models.SeverityMedium: models.SeverityHigh,
		models.SeverityHigh:   models.SeverityCritical,
	}
	for reported, expected := range cases {
		store := &fakeAlertStore{}
		engine := newTestEngine(store)
		event := models.Event{
			Kind: models.EventConcernCreated, StudentID: "stu-1", StudentName: "Ana",
			Concern: &models.TeacherConcern{TeacherName: "Mr. Budi", Severity: reported, ConcernType: "academic"},
		}
		for i := 0; i < 2; i++ {
			created, err := engine.Dispatch(context.Background(), nil, event)
			require.NoError(t, err)
			require.Len(t, created, 1)
			assert.Equal(t, expected, created[0].Severity)
			assert.Equal(t, "Teacher Mr. Budi reported a "+string(reported)+" severity academic concern about Ana.", created[0].Message)
		}
		assert.Equal(t, 2, store.countByType("stu-1", models.AlertTeacherConcern, true))
	}
}

func TestDispatchWellnessConcern(t *testing.T) {
	store := &fakeAlertStore{}
	store.seed(models.Alert{StudentID: "stu-1", AlertType: models.AlertWellnessConcern, Severity: models.SeverityCritical})
	engine := newTestEngine(store)

	event := models.Event{
		Kind: models.EventCheckInCreated, StudentID: "stu-1", StudentName: "Ana",
		CheckIn: &models.WellnessCheckIn{StressLevel: 5, MotivationLevel: 3, NeedHelp: true},
	}
	created, err := engine.Dispatch(context.Background(), nil, event)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.SeverityCritical, created[0].Severity)
	assert.Equal(t, "Ana wellness check-in shows concerning indicators. Stress: 5/5, Motivation: 3/5, Needs help: Yes.", created[0].Message)
	assert.Equal(t, 2, store.countByType("stu-1", models.AlertWellnessConcern, true))

	event.CheckIn = &models.WellnessCheckIn{StressLevel: 4, MotivationLevel: 3}
	created, err = engine.Dispatch(context.Background(), nil, event)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.SeverityHigh, created[0].Severity)

	event.CheckIn = &models.WellnessCheckIn{StressLevel: 3, MotivationLevel: 3}
	created, err = engine.Dispatch(context.Background(), nil, event)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestDispatchSentimentAndAIIntervention(t *testing.T) {
	store := &fakeAlertStore{}
	engine := newTestEngine(store)

	created, err := engine.Dispatch(context.Background(), nil, models.Event{
		Kind: models.EventSentimentAnalyzed, StudentID: "stu-1", StudentName: "Ana",
		Sentiment: &models.SentimentAnalysis{AlertLevel: "low"},
	})
	require.NoError(t, err)
	assert.Empty(t, created)

	created, err = engine.Dispatch(context.Background(), nil, models.Event{
		Kind: models.EventSentimentAnalyzed, StudentID: "stu-1", StudentName: "Ana",
		Sentiment: &models.SentimentAnalysis{AlertLevel: "critical", Confidence: 0.9},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.AlertEmotionalDistress, created[0].AlertType)
	assert.Equal(t, models.SeverityHigh, created[0].Severity)

	created, err = engine.Dispatch(context.Background(), nil, models.Event{
		Kind: models.EventAIIntervention, StudentID: "stu-1", StudentName: "Ana",
		Intervention: &models.Intervention{ID: "int-1"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.AlertAIIntervention, created[0].AlertType)
	assert.Equal(t, models.SeverityMedium, created[0].Severity)
	assert.Equal(t, "AI assistant auto-created intervention for Ana. Please review the intervention details.", created[0].Message)
}

func TestDispatchErrors(t *testing.T) {
	engine := newTestEngine(&fakeAlertStore{insertErr: errors.New("db down")})
	_, err := engine.Dispatch(context.Background(), nil, assessmentEvent(models.RiskAssessment{RiskLevel: models.RiskHigh, AttendanceRate: 100}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "high_risk")

	_, err = engine.Dispatch(context.Background(), nil, models.Event{Kind: models.EventRiskAssessed})
	require.Error(t, err)
}
