package models

import "time"

// RiskLevel is the discrete tier produced by the scorer.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether the level is a known tier.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RiskAssessment is an immutable, dated risk snapshot.
type RiskAssessment struct {
	ID                     string    `db:"id" json:"id"`
	StudentID              string    `db:"student_id" json:"student_id"`
	Date                   time.Time `db:"date" json:"date"`
	RiskScore              int       `db:"risk_score" json:"risk_score"`
	RiskLevel              RiskLevel `db:"risk_level" json:"risk_level"`
	GPA                    float64   `db:"gpa" json:"gpa"`
	AttendanceRate         float64   `db:"attendance_rate" json:"attendance_rate"`
	MissingAssignmentCount int       `db:"missing_assignment_count" json:"missing_assignment_count"`
	WellnessFlagged        bool      `db:"wellness_flagged" json:"wellness_flagged"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// ScoreBreakdown lists the points contributed by each band.
type ScoreBreakdown struct {
	GPA        int `json:"gpa"`
	Attendance int `json:"attendance"`
	Missing    int `json:"missing_assignments"`
	Wellness   int `json:"wellness"`
}

// Total sums the bands.
func (b ScoreBreakdown) Total() int {
	return b.GPA + b.Attendance + b.Missing + b.Wellness
}

// RiskScore is the scorer output for one snapshot.
type RiskScore struct {
	Score     int            `json:"score"`
	Level     RiskLevel      `json:"level"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// AssessmentResult is returned by a single-student assessment.
type AssessmentResult struct {
	Assessment RiskAssessment  `json:"assessment"`
	Metrics    MetricsSnapshot `json:"metrics"`
	Breakdown  ScoreBreakdown  `json:"breakdown"`
	Alerts     []Alert         `json:"alerts"`
}

// AtRiskStudent joins a student with their latest assessment.
type AtRiskStudent struct {
	StudentID              string    `db:"student_id" json:"student_id"`
	FullName               string    `db:"full_name" json:"full_name"`
	GradeLevel             int       `db:"grade_level" json:"grade_level"`
	Section                string    `db:"section" json:"section"`
	AssessmentID           string    `db:"assessment_id" json:"assessment_id"`
	Date                   time.Time `db:"date" json:"date"`
	RiskScore              int       `db:"risk_score" json:"risk_score"`
	RiskLevel              RiskLevel `db:"risk_level" json:"risk_level"`
	GPA                    float64   `db:"gpa" json:"gpa"`
	AttendanceRate         float64   `db:"attendance_rate" json:"attendance_rate"`
	MissingAssignmentCount int       `db:"missing_assignment_count" json:"missing_assignment_count"`
	UnresolvedAlerts       int       `db:"unresolved_alerts" json:"unresolved_alerts"`
}

// AtRiskFilter filters the latest-assessment listing.
type AtRiskFilter struct {
	Levels     []RiskLevel
	GradeLevel *int
	Section    string
	Page       int
	PageSize   int
}

// BatchFailure records one student whose recalculation failed.
type BatchFailure struct {
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

// BatchResult summarises a full recalculation run.
type BatchResult struct {
	Total         int               `json:"total"`
	Succeeded     int               `json:"succeeded"`
	Failed        []BatchFailure    `json:"failed"`
	AlertsCreated int               `json:"alerts_created"`
	ByLevel       map[RiskLevel]int `json:"by_level"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
}
