// Package numbering derives sortable integers from the free-text volume,
// issue and serial labels cataloguers type for periodicals.
package numbering

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// MaxLen is the longest label, in characters, that is still read as a number.
// Eighteen digits always fit an int64.
const MaxLen = 18

// ToHalfwidthDigits maps the full-width digits U+FF10..U+FF19 to ASCII.
// Every other rune, including other full-width forms, is left alone.
func ToHalfwidthDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return width.LookupRune(r).Narrow()
		}
		return r
	}, s)
}

// ExtractInteger returns the first run of digits in s after full-width
// conversion. It reports false when s has no digit or is longer than MaxLen.
func ExtractInteger(s string) (int64, bool) {
	s = ToHalfwidthDigits(s)
	if utf8.RuneCountInString(s) > MaxLen {
		return 0, false
	}
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.ParseInt(s[start:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasDigit reports whether s contains an ASCII or full-width digit.
func HasDigit(s string) bool {
	return strings.IndexFunc(ToHalfwidthDigits(s), isDigit) >= 0
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

var monthAbbr = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// IssueFromMonth maps an English month abbreviation ("Jan".."Dec", exact
// case) to its issue number 1..12.
func IssueFromMonth(s string) (int64, bool) {
	for i, name := range monthAbbr {
		if s == name {
			return int64(i + 1), true
		}
	}
	return 0, false
}

// SerialText holds the labels as typed.
type SerialText struct {
	Serial string `yaml:"serial,omitempty" json:"serial,omitempty"`
	Volume string `yaml:"volume,omitempty" json:"volume,omitempty"`
	Issue  string `yaml:"issue,omitempty" json:"issue,omitempty"`
}

// SerialNumbering holds the derived integers; nil means unset.
type SerialNumbering struct {
	Serial *int64 `yaml:"serial,omitempty" json:"serial,omitempty"`
	Volume *int64 `yaml:"volume,omitempty" json:"volume,omitempty"`
	Issue  *int64 `yaml:"issue,omitempty" json:"issue,omitempty"`
}

// Options tunes Normalize.
type Options struct {
	// SkipSerial leaves Serial unset, for records whose serial number is
	// maintained by hand.
	SkipSerial bool
}

// Normalize derives integers from the labels. Volume and serial must contain
// a digit; an issue without any digit is looked up as a month abbreviation.
func Normalize(text SerialText, opts Options) SerialNumbering {
	var out SerialNumbering
	if n, ok := ExtractInteger(text.Volume); ok {
		out.Volume = Int(n)
	}
	if n, ok := ExtractInteger(text.Issue); ok {
		out.Issue = Int(n)
	} else if !HasDigit(text.Issue) {
		if n, ok := IssueFromMonth(strings.TrimSpace(text.Issue)); ok {
			out.Issue = Int(n)
		}
	}
	if !opts.SkipSerial {
		if n, ok := ExtractInteger(text.Serial); ok {
			out.Serial = Int(n)
		}
	}
	return out
}

// Int returns a pointer to n.
func Int(n int64) *int64 { return &n }
