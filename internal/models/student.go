package models

import "time"

// Student is the read-only view of a learner owned by the account service.
type Student struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	GradeLevel int       `db:"grade_level" json:"grade_level"`
	Section    string    `db:"section" json:"section"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
