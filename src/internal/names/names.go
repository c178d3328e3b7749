// Package names normalizes the agent headings used as relationship members.
package names

import (
	"strings"
)

// Clean collapses runs of whitespace so that headings typed with stray
// spaces name the same agent. An all-space heading becomes "".
func Clean(heading string) string {
	return strings.Join(strings.Fields(heading), " ")
}

// Split splits a heading into (family, given). It accepts either
// "Family, Given Names" or "Given Names Family". A single word is a family
// name.
func Split(heading string) (family, given string) {
	heading = Clean(heading)
	if heading == "" {
		return "", ""
	}
	if i := strings.Index(heading, ","); i >= 0 {
		return strings.TrimSpace(heading[:i]), strings.TrimSpace(heading[i+1:])
	}
	parts := strings.Fields(heading)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " ")
}

// Inverted renders a heading as "Family, Given", the order used by
// bibliographic export. Single-word headings are returned as is.
func Inverted(heading string) string {
	family, given := Split(heading)
	if given == "" {
		return family
	}
	return family + ", " + given
}
