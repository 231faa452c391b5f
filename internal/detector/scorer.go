package detector

import (
	"math"
	"sort"
)

// Assessment is the scored result for one message. It is created once
// per message and never mutated afterwards.
type Assessment struct {
	Score      float64       `json:"score"`
	Tier       Tier          `json:"tier"`
	Categories []string      `json:"categories"`
	Matches    []SignalMatch `json:"matches,omitempty"`
	Degraded   bool          `json:"degraded,omitempty"`
}

// scoreMatches aggregates matches into a bounded score. Within each
// category the heaviest occurrence contributes its full weight and each
// further occurrence is dampened geometrically, so k repetitions of a
// weight-w signal contribute at most w/(1-damping) no matter how large
// k grows.
func scoreMatches(matches []SignalMatch, damping float64) float64 {
	byCategory := make(map[string][]float64)
	for _, m := range matches {
		byCategory[m.Category] = append(byCategory[m.Category], m.Weight)
	}

	var score float64
	for _, weights := range byCategory {
		sort.Sort(sort.Reverse(sort.Float64Slice(weights)))
		for i, w := range weights {
			score += w * math.Pow(damping, float64(i))
		}
	}
	return score
}

func matchedCategories(matches []SignalMatch) []string {
	seen := make(map[string]struct{})
	for _, m := range matches {
		seen[m.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
