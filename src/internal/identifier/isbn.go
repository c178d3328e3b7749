package identifier

import "strings"

// ISBNPair holds both forms of one ISBN. ISBN10 is empty when the ISBN-13
// carries a prefix other than 978.
type ISBNPair struct {
	ISBN13 string `yaml:"isbn13" json:"isbn13"`
	ISBN10 string `yaml:"isbn10,omitempty" json:"isbn10,omitempty"`
}

// ValidateISBN checks raw as an ISBN-10 or ISBN-13 depending on its stripped length.
func ValidateISBN(raw string) Identifier {
	s := Strip(raw)
	switch len(s) {
	case 10:
		if !isbn10OK(s) {
			return invalid(ISBN10, raw)
		}
		return valid(ISBN10, raw, s)
	case 13:
		if !isbn13OK(s) {
			return invalid(ISBN13, raw)
		}
		return valid(ISBN13, raw, s)
	default:
		return invalid(ISBN13, raw)
	}
}

func isbn10OK(s string) bool {
	if len(s) != 10 || !allDigits(s[:9]) {
		return false
	}
	last := s[9]
	if last != 'X' && (last < '0' || last > '9') {
		return false
	}
	return ISBN10CheckDigit(s[:9]) == last
}

func isbn13OK(s string) bool {
	if len(s) != 13 || !allDigits(s) {
		return false
	}
	return ISBN13CheckDigit(s[:12]) == s[12]
}

// ISBN10CheckDigit returns the mod-11 check character for nine digits,
// weighted 10 down to 2. A remainder of 10 is written as 'X'.
// It returns 0 when first9 is not nine ASCII digits.
func ISBN10CheckDigit(first9 string) byte {
	if len(first9) != 9 || !allDigits(first9) {
		return 0
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += digit(first9[i]) * (10 - i)
	}
	c := (11 - sum%11) % 11
	if c == 10 {
		return 'X'
	}
	return byte('0' + c)
}

// ISBN13CheckDigit returns the mod-10 check digit for twelve digits weighted 1,3,1,3...
// It returns 0 when first12 is not twelve ASCII digits.
func ISBN13CheckDigit(first12 string) byte {
	if len(first12) != 12 || !allDigits(first12) {
		return 0
	}
	sum := 0
	for i := 0; i < 12; i++ {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += digit(first12[i]) * w
	}
	return byte('0' + (10-sum%10)%10)
}

// CanonicalizeISBN derives both forms from a valid ISBN-10 or ISBN-13.
func CanonicalizeISBN(raw string) (ISBNPair, bool) {
	id := ValidateISBN(raw)
	if !id.Valid {
		return ISBNPair{}, false
	}
	s := id.Canonical
	if id.Kind == ISBN10 {
		body := "978" + s[:9]
		return ISBNPair{ISBN13: body + string(ISBN13CheckDigit(body)), ISBN10: s}, true
	}
	pair := ISBNPair{ISBN13: s}
	if strings.HasPrefix(s, "978") {
		body := s[3:12]
		pair.ISBN10 = body + string(ISBN10CheckDigit(body))
	}
	return pair, true
}

// ISBNLookupKeys returns every stored form under which a record for raw may
// have been saved: the ISBN-13 first, then the ISBN-10 when one exists.
// An invalid raw value has no keys.
func ISBNLookupKeys(raw string) []string {
	pair, ok := CanonicalizeISBN(raw)
	if !ok {
		return nil
	}
	keys := []string{pair.ISBN13}
	if pair.ISBN10 != "" {
		keys = append(keys, pair.ISBN10)
	}
	return keys
}

// Hyphenate renders a valid ISBN as prefix-group-rest-check. The registrant
// and publication blocks are left joined because splitting them needs the
// full range table from the International ISBN Agency.
func Hyphenate(raw string) string {
	pair, ok := CanonicalizeISBN(raw)
	if !ok {
		return ""
	}
	s := pair.ISBN13
	prefix, rest := s[:3], s[3:12]
	n := groupLength(prefix, rest)
	return strings.Join([]string{prefix, rest[:n], rest[n:], s[12:]}, "-")
}

func groupLength(prefix, rest string) int {
	if prefix == "979" {
		if rest[0] == '8' {
			return 1
		}
		return 2
	}
	switch c := rest[0]; {
	case c <= '5' || c == '7':
		return 1
	case c == '6':
		return 3
	case c == '8':
		return 2
	}
	// 9xx: 90-94 two digits, 950-989 three, 9900-9989 four, 99900+ five.
	switch {
	case rest[1] <= '4':
		return 2
	case rest[1] < '9':
		return 3
	case rest[2] < '9':
		return 4
	default:
		return 5
	}
}
