package escalation

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"mindguard/internal/detector"
)

// Event is the canonical escalation payload delivered to sinks. The
// message excerpt is bounded so a full transcript never leaves the
// service through a notification channel.
type Event struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Tier       detector.Tier `json:"tier"`
	Action     Action        `json:"action"`
	Score      float64       `json:"score"`
	Categories []string      `json:"categories,omitempty"`
	Excerpt    string        `json:"excerpt,omitempty"`
	Degraded   bool          `json:"degraded,omitempty"`
}

const excerptLimit = 160

// NewEvent assembles an escalation event from an assessment and the
// directive chosen for it.
func NewEvent(assessment detector.Assessment, directive Directive, text string) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Tier:       assessment.Tier,
		Action:     directive.Action,
		Score:      assessment.Score,
		Categories: assessment.Categories,
		Excerpt:    truncate(text, excerptLimit),
		Degraded:   directive.Degraded,
	}
}

// truncate bounds s to max bytes including the ellipsis marker,
// backing up to a rune start so multibyte text is never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
