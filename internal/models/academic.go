package models

import "time"

// AttendanceStatus mirrors the status column of attendance_records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// AttendanceSummary aggregates attendance rows for one student.
type AttendanceSummary struct {
	Total   int `db:"total"`
	Present int `db:"present"`
}

// GradeSummary aggregates graded submissions for one student.
type GradeSummary struct {
	Graded   int      `db:"graded"`
	AvgScore *float64 `db:"avg_score"`
}

// WellnessSignal is the subset of a check-in that feeds scoring.
type WellnessSignal struct {
	StressLevel     int       `db:"stress_level"`
	MotivationLevel int       `db:"motivation_level"`
	NeedHelp        bool      `db:"need_help"`
	Date            time.Time `db:"date"`
}

// MetricsSnapshot is the computed, never persisted input to the risk scorer.
type MetricsSnapshot struct {
	StudentID              string  `json:"student_id"`
	AttendanceRate         float64 `json:"attendance_rate"`
	AttendanceRecords      int     `json:"attendance_records"`
	MissingAssignmentCount int     `json:"missing_assignment_count"`
	GPA                    float64 `json:"gpa"`
	GradedItems            int     `json:"graded_items"`
	// HasCheckIn is false when the student never checked in; the wellness
	// fields below are then zero and carry no meaning.
	HasCheckIn            bool    `json:"has_check_in"`
	LatestStressLevel     int     `json:"latest_stress_level,omitempty"`
	LatestMotivationLevel int     `json:"latest_motivation_level,omitempty"`
	NeedsHelp             bool    `json:"needs_help"`
	AverageStress         float64 `json:"average_stress,omitempty"`
	CheckInsConsidered    int     `json:"check_ins_considered"`
}
