package identifier

import (
	"strings"
	"unicode"
)

var lccnURLPrefixes = []string{
	"https://lccn.loc.gov/",
	"http://lccn.loc.gov/",
	"info:lccn/",
}

// NormalizeLCCN applies the Library of Congress normalization rules: blanks
// removed, anything from a forward slash on dropped, and a hyphenated serial
// left-padded with zeros to six digits before the hyphen is removed.
// Alphabetic prefixes are lower-cased.
func NormalizeLCCN(raw string) string {
	s := strings.TrimSpace(raw)
	for _, p := range lccnURLPrefixes {
		if strings.HasPrefix(strings.ToLower(s), p) {
			s = s[len(p):]
			break
		}
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		left, right := s[:i], s[i+1:]
		if len(right) < 6 && allDigits(right) {
			right = strings.Repeat("0", 6-len(right)) + right
		}
		s = left + right
	}
	return s
}

// ValidateLCCN reports whether raw is a structurally valid LCCN. With
// normalized set, raw is first passed through NormalizeLCCN; otherwise raw
// must already be in normalized form.
func ValidateLCCN(raw string, normalized bool) bool {
	s := raw
	if normalized {
		s = NormalizeLCCN(raw)
	}
	return lccnShapeOK(s)
}

// ParseLCCN is ValidateLCCN with normalization, returning the normalized
// form as the canonical value.
func ParseLCCN(raw string) Identifier {
	s := NormalizeLCCN(raw)
	if !lccnShapeOK(s) {
		return invalid(LCCN, raw)
	}
	return valid(LCCN, raw, s)
}

// lccnShapeOK checks the prefix/year/serial layout by total length:
//
//	8:  yyssssss
//	9:  a yyssssss
//	10: yyyyssssss | aa yyssssss
//	11: a yyyyssssss | aaa yyssssss
//	12: aa yyyyssssss
func lccnShapeOK(s string) bool {
	alpha := 0
	for alpha < len(s) && s[alpha] >= 'a' && s[alpha] <= 'z' {
		alpha++
	}
	digits := s[alpha:]
	if !allDigits(digits) {
		return false
	}
	switch len(digits) {
	case 8:
		return alpha <= 3
	case 10:
		if alpha > 2 {
			return false
		}
		// four digit years only exist from 2001 on
		return strings.HasPrefix(digits, "20")
	default:
		return false
	}
}
