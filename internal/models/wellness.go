package models

import (
	"encoding/json"
	"time"
)

// WellnessCheckIn is a student's self-reported wellbeing sample.
type WellnessCheckIn struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	Date            time.Time `db:"date" json:"date"`
	StressLevel     int       `db:"stress_level" json:"stress_level"`
	MotivationLevel int       `db:"motivation_level" json:"motivation_level"`
	WorkloadLevel   int       `db:"workload_level" json:"workload_level"`
	SleepQuality    int       `db:"sleep_quality" json:"sleep_quality"`
	NeedHelp        bool      `db:"need_help" json:"need_help"`
	FreeText        string    `db:"free_text" json:"free_text"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Concerning reports whether the check-in should raise a wellness alert.
func (c WellnessCheckIn) Concerning() bool {
	return c.StressLevel >= 4 || c.MotivationLevel <= 2 || c.NeedHelp
}

// CreateCheckInRequest is the payload for submitting a check-in.
type CreateCheckInRequest struct {
	StudentID       string `json:"student_id"`
	StressLevel     int    `json:"stress_level" validate:"required,min=1,max=5"`
	MotivationLevel int    `json:"motivation_level" validate:"required,min=1,max=5"`
	WorkloadLevel   int    `json:"workload_level" validate:"required,min=1,max=5"`
	SleepQuality    int    `json:"sleep_quality" validate:"required,min=1,max=5"`
	NeedHelp        bool   `json:"need_help"`
	FreeText        string `json:"free_text" validate:"max=4000"`
}

// CheckInResult pairs the stored check-in with the alerts it raised.
type CheckInResult struct {
	CheckIn WellnessCheckIn `json:"check_in"`
	Alerts  []Alert         `json:"alerts"`
	// SentimentQueued is true when free text was handed to background analysis.
	SentimentQueued bool `json:"sentiment_queued"`
}

// SentimentAnalysis stores the classification of a check-in's free text.
type SentimentAnalysis struct {
	ID                string          `db:"id" json:"id"`
	CheckInID         string          `db:"checkin_id" json:"checkin_id"`
	StudentID         string          `db:"student_id" json:"student_id"`
	Sentiment         string          `db:"sentiment" json:"sentiment"`
	Confidence        float64         `db:"confidence" json:"confidence"`
	AlertLevel        string          `db:"alert_level" json:"alert_level"`
	ConcerningPhrases json.RawMessage `db:"concerning_phrases" json:"concerning_phrases"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// Distressed reports whether the classification warrants an alert.
func (s SentimentAnalysis) Distressed() bool {
	return s.AlertLevel == "high" || s.AlertLevel == "critical"
}
