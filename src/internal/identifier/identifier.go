package identifier

import (
	"errors"
	"strings"

	"golang.org/x/text/width"
)

// Kind names the standard a value was checked against.
type Kind int

const (
	ISBN10 Kind = iota + 1
	ISBN13
	ISSN
	LCCN
)

func (k Kind) String() string {
	switch k {
	case ISBN10:
		return "ISBN-10"
	case ISBN13:
		return "ISBN-13"
	case ISSN:
		return "ISSN"
	case LCCN:
		return "LCCN"
	default:
		return "unknown"
	}
}

// ErrInvalidIdentifier is wrapped by collaborators that surface a rejected
// identifier as a field error. Nothing in this package returns it.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Identifier is the outcome of validating a raw identifier string.
// Canonical is non-empty exactly when Valid is true.
type Identifier struct {
	Kind      Kind   `yaml:"kind" json:"kind"`
	Raw       string `yaml:"raw" json:"raw"`
	Canonical string `yaml:"canonical,omitempty" json:"canonical,omitempty"`
	Valid     bool   `yaml:"valid" json:"valid"`
}

func invalid(k Kind, raw string) Identifier { return Identifier{Kind: k, Raw: raw} }

func valid(k Kind, raw, canonical string) Identifier {
	return Identifier{Kind: k, Raw: raw, Canonical: canonical, Valid: true}
}

// Strip folds full-width characters to ASCII, drops blanks and hyphens and
// upper-cases a trailing check character so "4-06-1234x" becomes "4061234X".
func Strip(raw string) string {
	s := width.Narrow.String(raw)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '-' || r == '‐' || r == '‑' || r == '‒' || r == '–':
			continue
		case r == 'x':
			b.WriteRune('X')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func digit(b byte) int { return int(b - '0') }
