package service

import (
	"fmt"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

// FloatBand awards Points when a value is strictly below Below.
type FloatBand struct {
	Below  float64
	Points int
}

// CountBand awards Points when a count is at least AtLeast.
type CountBand struct {
	AtLeast int
	Points  int
}

// RiskPolicy holds every threshold the scorer uses. Bands are checked in order
// and the first match wins, so they must be listed from the most severe down.
type RiskPolicy struct {
	GPABands        []FloatBand
	AttendanceBands []FloatBand
	MissingBands    []CountBand

	WellnessPoints        int
	WellnessStressAtLeast int
	WellnessMotivationMax int

	HighThreshold   int
	MediumThreshold int
}

// DefaultRiskPolicy returns the standard four-band model.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		GPABands: []FloatBand{
			{Below: 1.5, Points: 40},
			{Below: 2.0, Points: 30},
			{Below: 2.5, Points: 20},
			{Below: 3.0, Points: 10},
		},
		AttendanceBands: []FloatBand{
			{Below: 60, Points: 30},
			{Below: 70, Points: 25},
			{Below: 80, Points: 15},
			{Below: 90, Points: 5},
		},
		MissingBands: []CountBand{
			{AtLeast: 5, Points: 20},
			{AtLeast: 3, Points: 15},
			{AtLeast: 1, Points: 5},
		},
		WellnessPoints:        10,
		WellnessStressAtLeast: 4,
		WellnessMotivationMax: 2,
		HighThreshold:         50,
		MediumThreshold:       30,
	}
}

// WithThresholds overrides the tier cut-offs when positive.
func (p RiskPolicy) WithThresholds(high, medium int) RiskPolicy {
	if high > 0 {
		p.HighThreshold = high
	}
	if medium > 0 {
		p.MediumThreshold = medium
	}
	return p
}

// Validate rejects policies whose tiers would overlap.
func (p RiskPolicy) Validate() error {
	if p.MediumThreshold <= 0 || p.HighThreshold <= p.MediumThreshold {
		return fmt.Errorf("risk policy: need 0 < medium (%d) < high (%d)", p.MediumThreshold, p.HighThreshold)
	}
	if p.HighThreshold > maxRiskScore {
		return fmt.Errorf("risk policy: high threshold %d exceeds %d", p.HighThreshold, maxRiskScore)
	}
	return nil
}

const maxRiskScore = 100

// RiskScorer applies a RiskPolicy to a metrics snapshot. It is stateless.
type RiskScorer struct {
	policy RiskPolicy
}

// NewRiskScorer validates the policy and builds a scorer.
func NewRiskScorer(policy RiskPolicy) (*RiskScorer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &RiskScorer{policy: policy}, nil
}

// Policy exposes the active thresholds.
func (s *RiskScorer) Policy() RiskPolicy {
	return s.policy
}

// Score computes the banded score and tier.
func (s *RiskScorer) Score(m models.MetricsSnapshot) models.RiskScore {
	breakdown := models.ScoreBreakdown{
		GPA:        floatBandPoints(s.policy.GPABands, m.GPA),
		Attendance: floatBandPoints(s.policy.AttendanceBands, m.AttendanceRate),
		Missing:    countBandPoints(s.policy.MissingBands, m.MissingAssignmentCount),
		Wellness:   s.wellnessPoints(m),
	}
	score := breakdown.Total()
	if score < 0 {
		score = 0
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}
	return models.RiskScore{Score: score, Level: s.Level(score), Breakdown: breakdown}
}

// Level maps a score to its tier.
func (s *RiskScorer) Level(score int) models.RiskLevel {
	switch {
	case score >= s.policy.HighThreshold:
		return models.RiskHigh
	case score >= s.policy.MediumThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// WellnessFlagged reports whether the latest check-in earns wellness points.
// Without any check-in there is no penalty.
func (s *RiskScorer) WellnessFlagged(m models.MetricsSnapshot) bool {
	if !m.HasCheckIn {
		return false
	}
	return m.LatestStressLevel >= s.policy.WellnessStressAtLeast ||
		m.LatestMotivationLevel <= s.policy.WellnessMotivationMax ||
		m.NeedsHelp
}

func (s *RiskScorer) wellnessPoints(m models.MetricsSnapshot) int {
	if s.WellnessFlagged(m) {
		return s.policy.WellnessPoints
	}
	return 0
}

func floatBandPoints(bands []FloatBand, value float64) int {
	for _, b := range bands {
		if value < b.Below {
			return b.Points
		}
	}
	return 0
}

func countBandPoints(bands []CountBand, value int) int {
	for _, b := range bands {
		if value >= b.AtLeast {
			return b.Points
		}
	}
	return 0
}
