package models

import "time"

// TeacherConcern is an immutable observation reported by a teacher.
type TeacherConcern struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	StudentName  string    `db:"student_name" json:"student_name,omitempty"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	TeacherName  string    `db:"teacher_name" json:"teacher_name"`
	ConcernType  string    `db:"concern_type" json:"concern_type"`
	Severity     Severity  `db:"severity" json:"severity"`
	Description  string    `db:"description" json:"description"`
	DateObserved time.Time `db:"date_observed" json:"date_observed"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CreateConcernRequest is the payload for reporting a concern.
type CreateConcernRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	ConcernType  string `json:"concern_type" validate:"required,oneof=academic behavioral emotional attendance social other"`
	Severity     string `json:"severity" validate:"required,oneof=low medium high"`
	Description  string `json:"description" validate:"required,max=2000"`
	DateObserved string `json:"date_observed" validate:"omitempty,datetime=2006-01-02"`
}

// ConcernFilter narrows concern listings.
type ConcernFilter struct {
	StudentID string
	TeacherID string
	Severity  string
	Page      int
	PageSize  int
}

// ConcernResult pairs the stored concern with the alert it raised.
type ConcernResult struct {
	Concern TeacherConcern `json:"concern"`
	Alerts  []Alert        `json:"alerts"`
}
