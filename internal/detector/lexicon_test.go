package detector

import (
	"strings"
	"testing"
)

const validLexiconYAML = `
version: "test"
damping: 0.35
thresholds:
  low: 1
  moderate: 3
  high: 6
  critical: 10
signals:
  - id: anxious
    term: anxious
    category: anxiety
    weight: 1
  - id: overwhelmed
    term: overwhelmed
    category: overwhelm
    weight: 2
  - id: stress
    term: stress
    match_stem: true
    category: overwhelm
    weight: 1
  - id: kill-myself
    pattern: '\bkill(ing)?\s+myself\b'
    category: self_harm
    weight: 10
`

func TestParseLexicon(t *testing.T) {
	lex, err := ParseLexicon([]byte(validLexiconYAML))
	if err != nil {
		t.Fatalf("ParseLexicon: %v", err)
	}
	if lex.Version() != "test" {
		t.Errorf("version = %q, want %q", lex.Version(), "test")
	}
	if lex.SignalCount() != 4 {
		t.Errorf("signal count = %d, want 4", lex.SignalCount())
	}
	got := lex.Categories()
	want := []string{"anxiety", "overwhelm", "self_harm"}
	if len(got) != len(want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseLexiconRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name: "no signals",
			mutate: func(s string) string {
				return s[:strings.Index(s, "signals:")] + "signals: []\n"
			},
			wantErr: "no signals",
		},
		{
			name:    "duplicate id",
			mutate:  func(s string) string { return strings.Replace(s, "id: overwhelmed", "id: anxious", 1) },
			wantErr: "duplicate signal id",
		},
		{
			name:    "negative weight",
			mutate:  func(s string) string { return strings.Replace(s, "weight: 2", "weight: -2", 1) },
			wantErr: "non-positive weight",
		},
		{
			name: "term and pattern both set",
			mutate: func(s string) string {
				return strings.Replace(s, "term: anxious", "term: anxious\n    pattern: 'x'", 1)
			},
			wantErr: "exactly one of term or pattern",
		},
		{
			name: "bad regex",
			mutate: func(s string) string {
				return strings.Replace(s, `pattern: '\bkill(ing)?\s+myself\b'`, `pattern: '[unclosed'`, 1)
			},
			wantErr: "invalid pattern",
		},
		{
			name:    "damping out of range",
			mutate:  func(s string) string { return strings.Replace(s, "damping: 0.35", "damping: 1.5", 1) },
			wantErr: "damping",
		},
		{
			name:    "thresholds not increasing",
			mutate:  func(s string) string { return strings.Replace(s, "high: 6", "high: 2", 1) },
			wantErr: "strictly increasing",
		},
		{
			name:    "missing category",
			mutate:  func(s string) string { return strings.Replace(s, "    category: anxiety\n", "", 1) },
			wantErr: "no category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLexicon([]byte(tt.mutate(validLexiconYAML)))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLexiconDefaultDamping(t *testing.T) {
	yaml := strings.Replace(validLexiconYAML, "damping: 0.35\n", "", 1)
	lex, err := ParseLexicon([]byte(yaml))
	if err != nil {
		t.Fatalf("ParseLexicon: %v", err)
	}
	if lex.Damping() != defaultDamping {
		t.Errorf("damping = %v, want default %v", lex.Damping(), defaultDamping)
	}
}

func TestThresholdsTier(t *testing.T) {
	th := Thresholds{Low: 1, Moderate: 3, High: 6, Critical: 10}

	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierNone},
		{0.99, TierNone},
		{1, TierLow},
		{2.9, TierLow},
		{3, TierModerate},
		{5.99, TierModerate},
		{6, TierHigh},
		{9.99, TierHigh},
		{10, TierCritical},
		{100, TierCritical},
	}
	for _, tt := range tests {
		if got := th.Tier(tt.score); got != tt.want {
			t.Errorf("Tier(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
