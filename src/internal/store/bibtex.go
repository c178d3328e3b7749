package store

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"catalog/src/internal/dates"
	"catalog/src/internal/names"
	"catalog/src/internal/schema"
)

// CreatorsFunc returns the ordered creator headings of a manifestation.
type CreatorsFunc func(manifestationID string) []string

// ExportBibTeX writes one BibTeX record per manifestation. creators may be
// nil; when set, the author field follows the stored creator order.
func ExportBibTeX(w io.Writer, entries []schema.Manifestation, creators CreatorsFunc) error {
	for _, m := range entries {
		var authors []string
		if creators != nil {
			authors = creators(m.ID)
		}
		if _, err := io.WriteString(w, manifestationToBibTeX(m, authors)); err != nil {
			return err
		}
	}
	return nil
}

func manifestationToBibTeX(m schema.Manifestation, authors []string) string {
	field := func(k, v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		return fmt.Sprintf("  %s = {%s},\n", k, escapeBib(v))
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "@%s{%s,\n", bibTypeFor(m), bibKeyFor(m))
	b.WriteString(field("author", formatAuthors(authors)))
	b.WriteString(field("title", m.OriginalTitle))
	b.WriteString(field("volume", m.VolumeNumberString))
	b.WriteString(field("number", m.IssueNumberString))
	b.WriteString(field("isbn", m.ISBN))
	b.WriteString(field("issn", m.ISSN))
	b.WriteString(field("lccn", m.LCCN))
	if n, ok := m.NumberOfPages(); ok && n > 0 {
		b.WriteString(field("pages", m.StartPage+"--"+m.EndPage))
	}
	if m.DateOfPublication != nil {
		b.WriteString(field("year", strconv.Itoa(m.DateOfPublication.Year())))
	} else if y := dates.YearFromDate(m.PubDate); y > 0 {
		b.WriteString(field("year", strconv.Itoa(y)))
	}
	b.WriteString(field("date", m.PubDate))
	b.WriteString(field("url", m.AccessAddress))
	b.WriteString(field("_id", m.ID))

	out := strings.TrimRight(b.String(), ",\n")
	return out + "\n}\n\n"
}

func bibTypeFor(m schema.Manifestation) string {
	switch {
	case m.PeriodicalMaster || m.ISSN != "":
		return "periodical"
	case m.ISBN != "" || m.WrongISBN != "":
		return "book"
	default:
		return "misc"
	}
}

func bibKeyFor(m schema.Manifestation) string {
	k := strings.ReplaceAll(strings.ToLower(m.ID), "-", "")
	if k == "" {
		var year *int
		if m.DateOfPublication != nil {
			y := m.DateOfPublication.Year()
			year = &y
		}
		k = strings.ReplaceAll(schema.Slugify(m.OriginalTitle, year), "-", "")
	}
	if k == "" {
		k = "entry"
	}
	return k
}

func escapeBib(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "{", "\\{")
	s = strings.ReplaceAll(s, "}", "\\}")
	return strings.TrimSpace(s)
}

// formatAuthors joins creator headings with " and ", each in inverted
// "Family, Given" order.
func formatAuthors(headings []string) string {
	parts := make([]string, 0, len(headings))
	for _, h := range headings {
		if h = names.Inverted(h); h != "" {
			parts = append(parts, h)
		}
	}
	return strings.Join(parts, " and ")
}
