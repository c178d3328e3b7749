package sanitize

import (
	"net/url"
	"strings"

	"catalog/src/internal/schema"
)

// CleanString trims and removes ASCII control characters except tab/newline/carriage
// return up to max runes (if max <= 0, no truncation).
func CleanString(s string, max int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	// remove controls except \n, \t, \r
	var b strings.Builder
	n := 0
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || (r >= 0x20 && r != 0x7f) {
			b.WriteRune(r)
			n++
			if max > 0 && n >= max {
				break
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// CleanURL returns a validated http/https URL or empty string.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	// String escapes embedded whitespace in the path
	return u.String()
}

// CleanIdentifier drops every blank inside a standard number; the codecs
// handle hyphens themselves.
func CleanIdentifier(s string) string {
	return strings.Join(strings.Fields(CleanString(s, 64)), "")
}

// CleanManifestation applies conservative sanitization to the typed fields
// of a manifestation. Derived fields are left to the save pipeline.
func CleanManifestation(m *schema.Manifestation) {
	if m == nil {
		return
	}
	m.ID = CleanString(m.ID, 64)
	m.OriginalTitle = CleanString(m.OriginalTitle, 4096)
	m.TitleTranscription = CleanString(m.TitleTranscription, 4096)
	m.TitleAlternative = CleanString(m.TitleAlternative, 4096)
	if m.AccessAddress != "" {
		m.AccessAddress = CleanURL(m.AccessAddress)
	}
	m.ISBN = CleanIdentifier(m.ISBN)
	m.ISSN = CleanIdentifier(m.ISSN)
	m.LCCN = CleanString(m.LCCN, 64)
	m.PubDate = CleanString(m.PubDate, 32)
	m.DisDate = CleanString(m.DisDate, 32)
	m.VolumeNumberString = CleanString(m.VolumeNumberString, 255)
	m.IssueNumberString = CleanString(m.IssueNumberString, 255)
	m.SerialNumberString = CleanString(m.SerialNumberString, 255)
	m.StartPage = CleanString(m.StartPage, 32)
	m.EndPage = CleanString(m.EndPage, 32)
}

// CleanItem applies conservative sanitization to an item.
func CleanItem(it *schema.Item) {
	if it == nil {
		return
	}
	it.ID = CleanString(it.ID, 64)
	it.ItemIdentifier = CleanString(it.ItemIdentifier, 255)
	it.Identifier = CleanString(it.Identifier, 255)
	it.CallNumber = CleanString(it.CallNumber, 255)
	if it.URL != "" {
		it.URL = CleanURL(it.URL)
	}
	it.AcquiredAtString = CleanString(it.AcquiredAtString, 32)
}
