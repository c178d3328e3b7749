package identifier

// ParseISSN validates raw as an ISSN: seven digits followed by a mod-11
// check character (weights 8..2, 'X' for 10). The canonical form is NNNN-NNNC.
func ParseISSN(raw string) Identifier {
	s := Strip(raw)
	if len(s) != 8 || !allDigits(s[:7]) {
		return invalid(ISSN, raw)
	}
	if issnCheckDigit(s[:7]) != s[7] {
		return invalid(ISSN, raw)
	}
	return valid(ISSN, raw, s[:4]+"-"+s[4:])
}

// ValidateISSN reports whether raw is a well-formed ISSN.
func ValidateISSN(raw string) bool { return ParseISSN(raw).Valid }

func issnCheckDigit(first7 string) byte {
	sum := 0
	for i := 0; i < 7; i++ {
		sum += digit(first7[i]) * (8 - i)
	}
	c := (11 - sum%11) % 11
	if c == 10 {
		return 'X'
	}
	return byte('0' + c)
}
