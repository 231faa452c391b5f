package escalation

import (
	"go.uber.org/zap"

	"mindguard/internal/detector"
)

// Action is the escalation response selected for a risk tier.
type Action string

const (
	ActionNone                  Action = "NO_ACTION"
	ActionSuggestResources      Action = "SUGGEST_RESOURCES"
	ActionNotifyCounselor       Action = "NOTIFY_COUNSELOR"
	ActionTriggerCrisisProtocol Action = "TRIGGER_CRISIS_PROTOCOL"
)

// Directive tells the caller what to do about an assessed message.
type Directive struct {
	Tier     detector.Tier `json:"tier"`
	Action   Action        `json:"action"`
	Message  string        `json:"message,omitempty"`
	Degraded bool          `json:"degraded,omitempty"`
}

// DefaultMessages are the shipped human-readable templates per action.
// Operators override them in config; crisis wording is reviewed by the
// clinical team, not engineering.
var DefaultMessages = map[Action]string{
	ActionSuggestResources:      "It sounds like things are heavy right now. Would you like some self-care resources?",
	ActionNotifyCounselor:       "A counselor has been notified and will check in with you shortly.",
	ActionTriggerCrisisProtocol: "We're concerned about your safety. A crisis counselor is being connected now. If you are in immediate danger, call your local emergency number.",
}

// Policy maps risk tiers to escalation directives.
type Policy struct {
	messages map[Action]string
	logger   *zap.Logger
}

// NewPolicy builds a policy with the default message templates,
// overridden by any entries in overrides.
func NewPolicy(overrides map[string]string, logger *zap.Logger) *Policy {
	messages := make(map[Action]string, len(DefaultMessages))
	for action, msg := range DefaultMessages {
		messages[action] = msg
	}
	for key, msg := range overrides {
		if msg == "" {
			continue
		}
		messages[Action(key)] = msg
	}
	return &Policy{messages: messages, logger: logger}
}

// Escalate selects a directive for an assessment. It never fails: any
// internal fault degrades to NOTIFY_COUNSELOR with the degraded flag
// set rather than silently returning NO_ACTION. CRITICAL always maps to
// TRIGGER_CRISIS_PROTOCOL; calling it repeatedly for repeated messages
// is deliberate and never suppressed.
func (p *Policy) Escalate(assessment detector.Assessment) (directive Directive) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Escalation policy panicked, degrading to counselor notification",
				zap.Any("panic", r))
			directive = Directive{
				Tier:     assessment.Tier,
				Action:   ActionNotifyCounselor,
				Message:  DefaultMessages[ActionNotifyCounselor],
				Degraded: true,
			}
		}
	}()

	action := p.actionFor(assessment)
	return Directive{
		Tier:     assessment.Tier,
		Action:   action,
		Message:  p.messages[action],
		Degraded: assessment.Degraded,
	}
}

func (p *Policy) actionFor(assessment detector.Assessment) Action {
	if assessment.Tier == detector.TierCritical {
		return ActionTriggerCrisisProtocol
	}

	// A degraded assessment means the detector could not complete its
	// pass; fail toward caution instead of toward silence.
	if assessment.Degraded {
		return ActionNotifyCounselor
	}

	switch assessment.Tier {
	case detector.TierHigh:
		return ActionNotifyCounselor
	case detector.TierModerate, detector.TierLow:
		return ActionSuggestResources
	default:
		return ActionNone
	}
}
