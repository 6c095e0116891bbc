package models

import "time"

// CounselorDashboard summarises the caseload.
type CounselorDashboard struct {
	HighRiskStudents       int            `json:"high_risk_students"`
	MediumRiskStudents     int            `json:"medium_risk_students"`
	UnresolvedAlerts       int            `json:"unresolved_alerts"`
	UnreadAlerts           int            `json:"unread_alerts"`
	ScheduledInterventions int            `json:"scheduled_interventions"`
	UpcomingInterventions  []Intervention `json:"upcoming_interventions"`
	RecentAlerts           []Alert        `json:"recent_alerts"`
	GeneratedAt            time.Time      `json:"generated_at"`
}

// DashboardCounts is filled by a single aggregate query.
type DashboardCounts struct {
	HighRisk               int `db:"high_risk"`
	MediumRisk             int `db:"medium_risk"`
	UnresolvedAlerts       int `db:"unresolved_alerts"`
	UnreadAlerts           int `db:"unread_alerts"`
	ScheduledInterventions int `db:"scheduled_interventions"`
}
