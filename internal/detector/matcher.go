package detector

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SignalMatch is one occurrence of a signal in a message. Position is
// the byte offset within the normalized text; matches are ordered by it.
type SignalMatch struct {
	SignalID string  `json:"signal_id"`
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
	Position int     `json:"position"`
}

// foldTransform strips diacritics so "stréssed" still hits a "stress"
// stem signal: decompose, drop combining marks, recompose.
var foldTransform = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFKC,
)

// Normalize canonicalizes message text for matching: Unicode
// normalization, diacritic removal, lower-casing.
func Normalize(text string) string {
	folded, _, err := transform.String(foldTransform, text)
	if err != nil {
		// Transform only fails on malformed input; fall back to the raw
		// bytes so matching still sees whatever is valid.
		folded = text
	}
	return strings.ToLower(folded)
}

// Match scans text against the lexicon and returns every occurrence,
// ordered by position. Empty input or no hits yields an empty slice.
func (l *Lexicon) Match(text string) []SignalMatch {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	normalized := Normalize(text)

	var matches []SignalMatch
	for _, sig := range l.signals {
		locs := sig.re.FindAllStringIndex(normalized, -1)
		for _, loc := range locs {
			matches = append(matches, SignalMatch{
				SignalID: sig.def.ID,
				Category: sig.def.Category,
				Weight:   sig.def.Weight,
				Position: loc[0],
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Position != matches[j].Position {
			return matches[i].Position < matches[j].Position
		}
		return matches[i].SignalID < matches[j].SignalID
	})

	return matches
}
