package models

import (
	"encoding/json"
	"time"
)

// InterventionProfile is the anonymised profile sent for recommendations.
type InterventionProfile struct {
	RiskLevel RiskLevel `json:"risk_level"`
	Issues    string    `json:"issues"`
	YearLevel int       `json:"year_level"`
}

// Recommendation is one suggested intervention.
type Recommendation struct {
	Type               string  `json:"type"`
	SuccessProbability float64 `json:"success_probability"`
	Reasoning          string  `json:"reasoning"`
}

// RecommendationSet is the decoded recommendation response.
type RecommendationSet struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// RecommendationResult is returned to callers; Degraded marks a missing AI answer.
type RecommendationResult struct {
	StudentID       string              `json:"student_id"`
	Profile         InterventionProfile `json:"profile"`
	Recommendations []Recommendation    `json:"recommendations"`
	Degraded        bool                `json:"degraded"`
	Cached          bool                `json:"cached"`
}

// SentimentResult is the decoded sentiment classification.
type SentimentResult struct {
	Sentiment         string   `json:"sentiment"`
	Confidence        float64  `json:"confidence"`
	AlertLevel        string   `json:"alert_level"`
	ConcerningPhrases []string `json:"concerning_phrases"`
}

// PredictionLog keeps the input and output of every AI-backed decision.
type PredictionLog struct {
	ID        string          `db:"id" json:"id"`
	StudentID string          `db:"student_id" json:"student_id"`
	Kind      string          `db:"kind" json:"kind"`
	Input     json.RawMessage `db:"input" json:"input"`
	Output    json.RawMessage `db:"output" json:"output"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// AIInterventionRequest asks for an AI-assisted intervention.
type AIInterventionRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// AIInterventionResult is returned after creating an AI intervention.
type AIInterventionResult struct {
	Intervention    Intervention     `json:"intervention"`
	Alert           *Alert           `json:"alert,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	Degraded        bool             `json:"degraded"`
}
