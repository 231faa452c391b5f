package models

import "time"

// Incident statuses as stored in the 'incidents' table.
const (
	IncidentOpen         = "open"
	IncidentAcknowledged = "acknowledged"
	IncidentResolved     = "resolved"
)

// Incident represents a flagged message stored in the 'incidents' table.
// One row is created per assessment at or above the reporting tier.
type Incident struct {
	ID         int64     `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"event_id"`
	Excerpt    string    `db:"excerpt" json:"excerpt"`
	Score      float64   `db:"score" json:"score"`
	Tier       string    `db:"tier" json:"tier"`
	Categories string    `db:"categories" json:"categories"` // comma-separated
	Action     string    `db:"action" json:"action"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AssessmentRecord is one row of the 'assessments' analytics log.
type AssessmentRecord struct {
	ID         int64     `db:"id" json:"id"`
	Score      float64   `db:"score" json:"score"`
	Tier       string    `db:"tier" json:"tier"`
	MatchCount int       `db:"match_count" json:"match_count"`
	Degraded   bool      `db:"degraded" json:"degraded"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
