package models

// EventKind identifies what write produced an Event.
type EventKind string

const (
	EventRiskAssessed      EventKind = "risk_assessed"
	EventConcernCreated    EventKind = "concern_created"
	EventCheckInCreated    EventKind = "checkin_created"
	EventSentimentAnalyzed EventKind = "sentiment_analyzed"
	EventAIIntervention    EventKind = "ai_intervention_created"
)

// Event is emitted by every write that may raise alerts. Exactly one of the
// payload pointers matching Kind is set.
type Event struct {
	Kind           EventKind
	StudentID      string
	StudentName    string
	Assessment     *RiskAssessment
	Concern        *TeacherConcern
	CheckIn        *WellnessCheckIn
	Sentiment      *SentimentAnalysis
	Intervention   *Intervention
	Recommendation *Recommendation
}
