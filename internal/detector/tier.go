package detector

import "fmt"

// Tier is a discrete risk level derived from the aggregate signal score.
type Tier int

const (
	TierNone Tier = iota
	TierLow
	TierModerate
	TierHigh
	TierCritical
)

var tierNames = map[Tier]string{
	TierNone:     "NONE",
	TierLow:      "LOW",
	TierModerate: "MODERATE",
	TierHigh:     "HIGH",
	TierCritical: "CRITICAL",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TIER(%d)", int(t))
}

// MarshalJSON renders the tier as its symbolic name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts a symbolic tier name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier converts a symbolic name back into a Tier.
func ParseTier(s string) (Tier, error) {
	for tier, name := range tierNames {
		if name == s {
			return tier, nil
		}
	}
	return TierNone, fmt.Errorf("unknown risk tier %q", s)
}
