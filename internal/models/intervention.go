package models

import "time"

// InterventionStatus enumerates the intervention lifecycle.
type InterventionStatus string

const (
	InterventionScheduled InterventionStatus = "scheduled"
	InterventionCompleted InterventionStatus = "completed"
	InterventionCancelled InterventionStatus = "cancelled"
)

// Intervention types used by automatic scheduling.
const (
	InterventionTypeCounseling = "counseling"
	InterventionTypeTutoring   = "tutoring"
)

// Intervention is a scheduled support action.
type Intervention struct {
	ID               string             `db:"id" json:"id"`
	StudentID        string             `db:"student_id" json:"student_id"`
	StudentName      string             `db:"student_name" json:"student_name,omitempty"`
	CounselorID      *string            `db:"counselor_id" json:"counselor_id,omitempty"`
	InterventionType string             `db:"intervention_type" json:"intervention_type"`
	Description      string             `db:"description" json:"description"`
	ScheduledDate    time.Time          `db:"scheduled_date" json:"scheduled_date"`
	Status           InterventionStatus `db:"status" json:"status"`
	Notes            string             `db:"notes" json:"notes"`
	Outcome          string             `db:"outcome" json:"outcome"`
	CompletedAt      *time.Time         `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// InterventionFilter narrows intervention listings.
type InterventionFilter struct {
	StudentID  string
	Status     *InterventionStatus
	GradeLevel *int
	Page       int
	PageSize   int
}

// CreateInterventionRequest schedules an intervention manually.
type CreateInterventionRequest struct {
	StudentID        string    `json:"student_id" validate:"required"`
	InterventionType string    `json:"intervention_type" validate:"required,oneof=counseling tutoring mentoring parent_meeting group_counseling study_skills other"`
	Description      string    `json:"description" validate:"max=2000"`
	ScheduledDate    time.Time `json:"scheduled_date" validate:"required"`
	Notes            string    `json:"notes" validate:"max=2000"`
}

// CloseInterventionRequest carries optional notes when completing or cancelling.
type CloseInterventionRequest struct {
	Notes   string `json:"notes" validate:"max=2000"`
	Outcome string `json:"outcome" validate:"max=2000"`
}

// RemediationResult summarises a bulk remediation run.
type RemediationResult struct {
	Candidates   int            `json:"candidates"`
	Scheduled    []Intervention `json:"scheduled"`
	Skipped      int            `json:"skipped"`
	AlertsMarked int            `json:"alerts_marked_read"`
	Failed       []BatchFailure `json:"failed"`
}
