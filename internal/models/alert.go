package models

import "time"

// AlertType enumerates alert categories.
type AlertType string

const (
	AlertHighRisk           AlertType = "high_risk"
	AlertMissingAssignments AlertType = "missing_assignments"
	AlertLowAttendance      AlertType = "low_attendance"
	AlertTeacherConcern     AlertType = "teacher_concern"
	AlertWellnessConcern    AlertType = "wellness_concern"
	AlertEmotionalDistress  AlertType = "emotional_distress"
	AlertAIIntervention     AlertType = "ai_intervention"
)

// Deduplicated reports whether at most one unresolved alert of this type may
// exist per student.
func (t AlertType) Deduplicated() bool {
	switch t {
	case AlertHighRisk, AlertMissingAssignments, AlertLowAttendance:
		return true
	}
	return false
}

// Valid reports whether the type is known.
func (t AlertType) Valid() bool {
	switch t {
	case AlertHighRisk, AlertMissingAssignments, AlertLowAttendance, AlertTeacherConcern,
		AlertWellnessConcern, AlertEmotionalDistress, AlertAIIntervention:
		return true
	}
	return false
}

// Severity is shared by alerts and concerns.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is one occurrence of a triggering condition.
type Alert struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	StudentName string     `db:"student_name" json:"student_name,omitempty"`
	AlertType   AlertType  `db:"alert_type" json:"alert_type"`
	Severity    Severity   `db:"severity" json:"severity"`
	Message     string     `db:"message" json:"message"`
	IsRead      bool       `db:"is_read" json:"is_read"`
	Resolved    bool       `db:"resolved" json:"resolved"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy  *string    `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// AlertFilter captures filters for listing alerts.
type AlertFilter struct {
	StudentID  string
	Types      []AlertType
	Severities []Severity
	Resolved   *bool
	Read       *bool
	Page       int
	PageSize   int
}
