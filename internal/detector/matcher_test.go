package detector

import (
	"testing"
)

func mustLexicon(t *testing.T) *Lexicon {
	t.Helper()
	lex, err := ParseLexicon([]byte(validLexiconYAML))
	if err != nil {
		t.Fatalf("ParseLexicon: %v", err)
	}
	return lex
}

func signalIDs(matches []SignalMatch) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.SignalID
	}
	return ids
}

func TestMatchWordBoundaries(t *testing.T) {
	lex := mustLexicon(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"exact term", "I feel anxious today", []string{"anxious"}},
		{"stem matches suffix", "I am so stressed out", []string{"stress"}},
		{"stem matches plural", "too many stressors", []string{"stress"}},
		{"substring does not match", "the file was compressed", nil},
		{"non-stem term rejects suffix", "anxiousness", nil},
		{"punctuation boundary", "Stressed, tired, done.", []string{"stress"}},
		{"case insensitive", "OVERWHELMED", []string{"overwhelmed"}},
		{"phrase pattern", "I want to kill myself", []string{"kill-myself"}},
		{"phrase pattern inflected", "thinking about killing myself", []string{"kill-myself"}},
		{"no signals", "what a lovely morning", nil},
		{"empty", "", nil},
		{"whitespace only", "   \n\t ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signalIDs(lex.Match(tt.text))
			if len(got) != len(tt.want) {
				t.Fatalf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Match(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMatchNormalizesUnicode(t *testing.T) {
	lex := mustLexicon(t)

	// Accented and full-width variants should still hit after folding.
	for _, text := range []string{
		"je suis strèssed",
		"ＡＮＸＩＯＵＳ all the time",
	} {
		if matches := lex.Match(text); len(matches) == 0 {
			t.Errorf("Match(%q) found nothing, want at least one signal", text)
		}
	}
}

func TestMatchOrderedByPosition(t *testing.T) {
	lex := mustLexicon(t)

	matches := lex.Match("so stressed and anxious and overwhelmed")
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3: %v", len(matches), signalIDs(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Position < matches[i-1].Position {
			t.Errorf("matches out of order at %d: %v", i, matches)
		}
	}
	if matches[0].SignalID != "stress" || matches[2].SignalID != "overwhelmed" {
		t.Errorf("unexpected order: %v", signalIDs(matches))
	}
}

func TestMatchRepeatedTerm(t *testing.T) {
	lex := mustLexicon(t)

	matches := lex.Match("anxious anxious anxious")
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	for _, m := range matches {
		if m.SignalID != "anxious" {
			t.Errorf("unexpected signal %q", m.SignalID)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"HELLO", "hello"},
		{"strèssed", "stressed"},
		{"Café", "cafe"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
