package detector

import (
	"go.uber.org/zap"
)

// Engine runs the full detection pass: match, score, tier. It holds no
// mutable state beyond the immutable lexicon and is safe for concurrent
// use without coordination.
type Engine struct {
	lexicon *Lexicon
	logger  *zap.Logger
}

// NewEngine creates a detection engine over a loaded lexicon.
func NewEngine(lexicon *Lexicon, logger *zap.Logger) *Engine {
	return &Engine{lexicon: lexicon, logger: logger}
}

// Lexicon exposes the engine's immutable signal table.
func (e *Engine) Lexicon() *Lexicon { return e.lexicon }

// Assess inspects one message and returns its risk assessment. It never
// fails: empty or unmatched text yields tier NONE, and an unexpected
// fault during scoring is recovered into a degraded conservative
// assessment instead of a silent zero result.
func (e *Engine) Assess(text string) (assessment Assessment) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Detection pass panicked, returning degraded assessment",
				zap.Any("panic", r))
			assessment = Assessment{
				Tier:       TierModerate,
				Categories: []string{},
				Degraded:   true,
			}
		}
	}()

	matches := e.lexicon.Match(text)
	score := scoreMatches(matches, e.lexicon.damping)

	return Assessment{
		Score:      score,
		Tier:       e.lexicon.thresholds.Tier(score),
		Categories: matchedCategories(matches),
		Matches:    matches,
	}
}
