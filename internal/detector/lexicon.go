package detector

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SignalDefinition describes one lexical distress indicator. Exactly one
// of Term or Pattern must be set. Term entries are matched on word
// boundaries; MatchStem additionally allows suffixes, so a "stress" stem
// catches "stressed" but never "compressed".
type SignalDefinition struct {
	ID        string  `yaml:"id"`
	Term      string  `yaml:"term,omitempty"`
	Pattern   string  `yaml:"pattern,omitempty"`
	MatchStem bool    `yaml:"match_stem,omitempty"`
	Category  string  `yaml:"category"`
	Weight    float64 `yaml:"weight"`
}

// Thresholds are the score cut points for each tier. A score below Low
// is NONE; Critical and above is CRITICAL.
type Thresholds struct {
	Low      float64 `yaml:"low"`
	Moderate float64 `yaml:"moderate"`
	High     float64 `yaml:"high"`
	Critical float64 `yaml:"critical"`
}

// Tier maps a score onto a risk tier.
func (t Thresholds) Tier(score float64) Tier {
	switch {
	case score >= t.Critical:
		return TierCritical
	case score >= t.High:
		return TierHigh
	case score >= t.Moderate:
		return TierModerate
	case score >= t.Low:
		return TierLow
	default:
		return TierNone
	}
}

type lexiconFile struct {
	Version    string             `yaml:"version"`
	Damping    float64            `yaml:"damping"`
	Thresholds Thresholds         `yaml:"thresholds"`
	Signals    []SignalDefinition `yaml:"signals"`
}

type compiledSignal struct {
	def SignalDefinition
	re  *regexp.Regexp
}

// Lexicon is the immutable signal table loaded at startup. It is shared
// read-only between requests; there is no runtime mutation path.
type Lexicon struct {
	version    string
	damping    float64
	thresholds Thresholds
	signals    []compiledSignal
}

func (l *Lexicon) Version() string        { return l.version }
func (l *Lexicon) Damping() float64       { return l.damping }
func (l *Lexicon) Thresholds() Thresholds { return l.thresholds }
func (l *Lexicon) SignalCount() int       { return len(l.signals) }

// Categories returns the distinct signal categories, sorted.
func (l *Lexicon) Categories() []string {
	seen := make(map[string]struct{})
	for _, s := range l.signals {
		seen[s.def.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

const defaultDamping = 0.35

// LoadLexicon reads and compiles the signal lexicon from a YAML file.
// Any validation failure is returned as an error; the caller is expected
// to treat it as fatal rather than run with a partial crisis lexicon.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}
	return ParseLexicon(data)
}

// ParseLexicon builds a Lexicon from raw YAML.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}

	if file.Damping == 0 {
		file.Damping = defaultDamping
	}
	if file.Damping < 0 || file.Damping >= 1 {
		return nil, fmt.Errorf("damping must be in [0,1), got %v", file.Damping)
	}

	t := file.Thresholds
	if t.Low <= 0 || t.Moderate <= t.Low || t.High <= t.Moderate || t.Critical <= t.High {
		return nil, fmt.Errorf("thresholds must be positive and strictly increasing: %+v", t)
	}

	if len(file.Signals) == 0 {
		return nil, fmt.Errorf("lexicon defines no signals")
	}

	lex := &Lexicon{
		version:    file.Version,
		damping:    file.Damping,
		thresholds: t,
		signals:    make([]compiledSignal, 0, len(file.Signals)),
	}

	seen := make(map[string]struct{}, len(file.Signals))
	for i, def := range file.Signals {
		if def.ID == "" {
			return nil, fmt.Errorf("signal %d has no id", i)
		}
		if _, dup := seen[def.ID]; dup {
			return nil, fmt.Errorf("duplicate signal id %q", def.ID)
		}
		seen[def.ID] = struct{}{}

		if def.Category == "" {
			return nil, fmt.Errorf("signal %q has no category", def.ID)
		}
		if def.Weight <= 0 {
			return nil, fmt.Errorf("signal %q has non-positive weight %v", def.ID, def.Weight)
		}
		if (def.Term == "") == (def.Pattern == "") {
			return nil, fmt.Errorf("signal %q must set exactly one of term or pattern", def.ID)
		}

		re, err := compileSignal(def)
		if err != nil {
			return nil, fmt.Errorf("signal %q: %w", def.ID, err)
		}
		lex.signals = append(lex.signals, compiledSignal{def: def, re: re})
	}

	return lex, nil
}

func compileSignal(def SignalDefinition) (*regexp.Regexp, error) {
	if def.Pattern != "" {
		re, err := regexp.Compile(`(?i)` + def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		return re, nil
	}

	term := strings.TrimSpace(strings.ToLower(def.Term))
	if term == "" {
		return nil, fmt.Errorf("term is blank")
	}
	expr := `\b` + regexp.QuoteMeta(term)
	if def.MatchStem {
		expr += `\w*`
	}
	expr += `\b`
	return regexp.Compile(`(?i)` + expr)
}
