package service

import (
	"fmt"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

// AlertRule turns a triggering event into at most one alert draft. Rules are
// pure; persistence and deduplication belong to the AlertEngine.
type AlertRule interface {
	Name() string
	Handles(kind models.EventKind) bool
	Evaluate(event models.Event) *models.Alert
}

// AlertPolicy holds the thresholds of the assessment-triggered rules.
type AlertPolicy struct {
	MissingThreshold    int
	MissingHighAt       int
	AttendanceThreshold float64
	AttendanceHighBelow float64
}

// DefaultAlertPolicy returns the standard thresholds.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		MissingThreshold:    3,
		MissingHighAt:       5,
		AttendanceThreshold: 75,
		AttendanceHighBelow: 60,
	}
}

// DefaultAlertRules returns every built-in rule.
func DefaultAlertRules(policy AlertPolicy) []AlertRule {
	return []AlertRule{
		highRiskRule{},
		missingAssignmentsRule{threshold: policy.MissingThreshold, highAt: policy.MissingHighAt},
		lowAttendanceRule{threshold: policy.AttendanceThreshold, highBelow: policy.AttendanceHighBelow},
		teacherConcernRule{},
		wellnessConcernRule{},
		emotionalDistressRule{},
		aiInterventionRule{},
	}
}

type highRiskRule struct{}

func (highRiskRule) Name() string { return string(models.AlertHighRisk) }

func (highRiskRule) Handles(kind models.EventKind) bool { return kind == models.EventRiskAssessed }

func (highRiskRule) Evaluate(event models.Event) *models.Alert {
	a := event.Assessment
	if a == nil || a.RiskLevel != models.RiskHigh {
		return nil
	}
	return &models.Alert{
		AlertType: models.AlertHighRisk,
		Severity:  models.SeverityCritical,
		Message: fmt.Sprintf("%s has been identified as high risk. Risk score: %d. GPA: %v, Attendance: %v%%, Missing assignments: %d.",
			event.StudentName, a.RiskScore, a.GPA, a.AttendanceRate, a.MissingAssignmentCount),
	}
}

type missingAssignmentsRule struct {
	threshold int
	highAt    int
}

func (missingAssignmentsRule) Name() string { return string(models.AlertMissingAssignments) }

func (missingAssignmentsRule) Handles(kind models.EventKind) bool {
	return kind == models.EventRiskAssessed
}

func (r missingAssignmentsRule) Evaluate(event models.Event) *models.Alert {
	a := event.Assessment
	if a == nil || a.MissingAssignmentCount < r.threshold {
		return nil
	}
	severity := models.SeverityMedium
	if a.MissingAssignmentCount >= r.highAt {
		severity = models.SeverityHigh
	}
	return &models.Alert{
		AlertType: models.AlertMissingAssignments,
		Severity:  severity,
		Message: fmt.Sprintf("%s has %d missing assignments. Immediate follow-up recommended.",
			event.StudentName, a.MissingAssignmentCount),
	}
}

type lowAttendanceRule struct {
	threshold float64
	highBelow float64
}

func (lowAttendanceRule) Name() string { return string(models.AlertLowAttendance) }

func (lowAttendanceRule) Handles(kind models.EventKind) bool { return kind == models.EventRiskAssessed }

func (r lowAttendanceRule) Evaluate(event models.Event) *models.Alert {
	a := event.Assessment
	if a == nil || a.AttendanceRate >= r.threshold {
		return nil
	}
	severity := models.SeverityMedium
	if a.AttendanceRate < r.highBelow {
		severity = models.SeverityHigh
	}
	return &models.Alert{
		AlertType: models.AlertLowAttendance,
		Severity:  severity,
		Message: fmt.Sprintf("%s has low attendance rate of %v%%. Intervention may be needed.",
			event.StudentName, a.AttendanceRate),
	}
}

// teacherConcernRule escalates the reported severity by one step.
type teacherConcernRule struct{}

var concernEscalation = map[models.Severity]models.Severity{
	models.SeverityLow:    models.SeverityMedium,
	models.SeverityMedium: models.SeverityHigh,
	models.SeverityHigh:   models.SeverityCritical,
}

func (teacherConcernRule) Name() string { return string(models.AlertTeacherConcern) }

func (teacherConcernRule) Handles(kind models.EventKind) bool {
	return kind == models.EventConcernCreated
}

func (teacherConcernRule) Evaluate(event models.Event) *models.Alert {
	c := event.Concern
	if c == nil {
		return nil
	}
	severity, ok := concernEscalation[c.Severity]
	if !ok {
		severity = models.SeverityMedium
	}
	return &models.Alert{
		AlertType: models.AlertTeacherConcern,
		Severity:  severity,
		Message: fmt.Sprintf("Teacher %s reported a %s severity %s concern about %s.",
			c.TeacherName, c.Severity, c.ConcernType, event.StudentName),
	}
}

type wellnessConcernRule struct{}

func (wellnessConcernRule) Name() string { return string(models.AlertWellnessConcern) }

func (wellnessConcernRule) Handles(kind models.EventKind) bool {
	return kind == models.EventCheckInCreated
}

func (wellnessConcernRule) Evaluate(event models.Event) *models.Alert {
	c := event.CheckIn
	if c == nil || !c.Concerning() {
		return nil
	}
	severity := models.SeverityHigh
	if c.NeedHelp || c.StressLevel == 5 {
		severity = models.SeverityCritical
	}
	needsHelp := "No"
	if c.NeedHelp {
		needsHelp = "Yes"
	}
	return &models.Alert{
		AlertType: models.AlertWellnessConcern,
		Severity:  severity,
		Message: fmt.Sprintf("%s wellness check-in shows concerning indicators. Stress: %d/5, Motivation: %d/5, Needs help: %s.",
			event.StudentName, c.StressLevel, c.MotivationLevel, needsHelp),
	}
}

type emotionalDistressRule struct{}

func (emotionalDistressRule) Name() string { return string(models.AlertEmotionalDistress) }

func (emotionalDistressRule) Handles(kind models.EventKind) bool {
	return kind == models.EventSentimentAnalyzed
}

func (emotionalDistressRule) Evaluate(event models.Event) *models.Alert {
	s := event.Sentiment
	if s == nil || !s.Distressed() {
		return nil
	}
	return &models.Alert{
		AlertType: models.AlertEmotionalDistress,
		Severity:  models.SeverityHigh,
		Message: fmt.Sprintf("Emotional distress detected in %s's wellness check-in (alert level %s, confidence %.2f).",
			event.StudentName, s.AlertLevel, s.Confidence),
	}
}

type aiInterventionRule struct{}

func (aiInterventionRule) Name() string { return string(models.AlertAIIntervention) }

func (aiInterventionRule) Handles(kind models.EventKind) bool {
	return kind == models.EventAIIntervention
}

func (aiInterventionRule) Evaluate(event models.Event) *models.Alert {
	if event.Intervention == nil {
		return nil
	}
	return &models.Alert{
		AlertType: models.AlertAIIntervention,
		Severity:  models.SeverityMedium,
		Message: fmt.Sprintf("AI assistant auto-created intervention for %s. Please review the intervention details.",
			event.StudentName),
	}
}
