package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

func newTestScorer(t *testing.T) *RiskScorer {
	t.Helper()
	scorer, err := NewRiskScorer(DefaultRiskPolicy())
	require.NoError(t, err)
	return scorer
}

func TestScoreReferenceScenario(t *testing.T) {
	scorer := newTestScorer(t)
	result := scorer.Score(models.MetricsSnapshot{GPA: 2.2, AttendanceRate: 68, MissingAssignmentCount: 4})

	assert.Equal(t, models.ScoreBreakdown{GPA: 20, Attendance: 25, Missing: 15, Wellness: 0}, result.Breakdown)
	assert.Equal(t, 60, result.Score)
	assert.Equal(t, models.RiskHigh, result.Level)
}

func TestScoreBands(t *testing.T) {
	scorer := newTestScorer(t)
	healthy := models.MetricsSnapshot{GPA: 3.5, AttendanceRate: 100}

	gpaCases := map[float64]int{1.49: 40, 1.5: 30, 1.99: 30, 2.0: 20, 2.49: 20, 2.5: 10, 2.99: 10, 3.0: 0, 0: 40}
	for gpa, points := range gpaCases {
		m := healthy
		m.GPA = gpa
		assert.Equal(t, points, scorer.Score(m).Breakdown.GPA, "gpa %v", gpa)
	}

	attendanceCases := map[float64]int{59.99: 30, 60: 25, 69.9: 25, 70: 15, 79.9: 15, 80: 5, 89.99: 5, 90: 0, 100: 0}
	for rate, points := range attendanceCases {
		m := healthy
		m.AttendanceRate = rate
		assert.Equal(t, points, scorer.Score(m).Breakdown.Attendance, "attendance %v", rate)
	}

	missingCases := map[int]int{0: 0, 1: 5, 2: 5, 3: 15, 4: 15, 5: 20, 12: 20}
	for count, points := range missingCases {
		m := healthy
		m.MissingAssignmentCount = count
		assert.Equal(t, points, scorer.Score(m).Breakdown.Missing, "missing %d", count)
	}
}

func TestScoreWellnessBand(t *testing.T) {
	scorer := newTestScorer(t)
	base := models.MetricsSnapshot{GPA: 3.5, AttendanceRate: 100}

	assert.Zero(t, scorer.Score(base).Breakdown.Wellness, "no check-in means no penalty")

	cases := []struct {
		name   string
		m      models.MetricsSnapshot
		points int
	}{
		{"calm", models.MetricsSnapshot{HasCheckIn: true, LatestStressLevel: 3, LatestMotivationLevel: 3}, 0},
		{"stressed", models.MetricsSnapshot{HasCheckIn: true, LatestStressLevel: 4, LatestMotivationLevel: 4}, 10},
		{"unmotivated", models.MetricsSnapshot{HasCheckIn: true, LatestStressLevel: 1, LatestMotivationLevel: 2}, 10},
		{"needs help", models.MetricsSnapshot{HasCheckIn: true, LatestStressLevel: 1, LatestMotivationLevel: 5, NeedsHelp: true}, 10},
		{"stress five and help", models.MetricsSnapshot{HasCheckIn: true, LatestStressLevel: 5, LatestMotivationLevel: 5, NeedsHelp: true}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.m
			m.GPA, m.AttendanceRate = base.GPA, base.AttendanceRate
			assert.Equal(t, tc.points, scorer.Score(m).Breakdown.Wellness)
		})
	}
}

func TestScoreRangeAndTiers(t *testing.T) {
	scorer := newTestScorer(t)

	worst := scorer.Score(models.MetricsSnapshot{GPA: 0, AttendanceRate: 0, MissingAssignmentCount: 50, HasCheckIn: true, NeedsHelp: true})
	assert.Equal(t, 100, worst.Score)
	assert.Equal(t, models.RiskHigh, worst.Level)

	best := scorer.Score(models.MetricsSnapshot{GPA: 4, AttendanceRate: 100})
	assert.Equal(t, 0, best.Score)
	assert.Equal(t, models.RiskLow, best.Level)

	for score := 0; score <= 100; score++ {
		level := scorer.Level(score)
		switch {
		case score >= 50:
			assert.Equal(t, models.RiskHigh, level, "score %d", score)
		case score >= 30:
			assert.Equal(t, models.RiskMedium, level, "score %d", score)
		default:
			assert.Equal(t, models.RiskLow, level, "score %d", score)
		}
	}
}

func TestRiskPolicyOverridesAndValidation(t *testing.T) {
	policy := DefaultRiskPolicy().WithThresholds(70, 40)
	scorer, err := NewRiskScorer(policy)
	require.NoError(t, err)
	assert.Equal(t, models.RiskMedium, scorer.Level(60))

	_, err = NewRiskScorer(DefaultRiskPolicy().WithThresholds(30, 50))
	assert.Error(t, err)

	_, err = NewRiskScorer(DefaultRiskPolicy().WithThresholds(120, 0))
	assert.Error(t, err)
}
