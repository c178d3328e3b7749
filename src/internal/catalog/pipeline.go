package catalog

import (
	"fmt"
	"time"

	"catalog/src/internal/dates"
	"catalog/src/internal/identifier"
	"catalog/src/internal/numbering"
	"catalog/src/internal/sanitize"
	"catalog/src/internal/schema"
	"catalog/src/internal/sequence"
)

// report records the recoverable outcomes of one pipeline run.
type report struct {
	invalid      []identifier.Kind
	rejectedISBN bool
	unsetDates   []string
}

// PrepareManifestation derives the canonical fields of m. Invalid
// identifiers and an unparseable publication date are returned as
// schema.FieldErrors; every other problem leaves the derived field unset.
// The returned record is usable for display even when err is not nil.
func PrepareManifestation(m schema.Manifestation, flags Flags) (schema.Manifestation, error) {
	out, _, err := prepareManifestation(m, flags)
	return out, err
}

func prepareManifestation(m schema.Manifestation, flags Flags) (schema.Manifestation, report, error) {
	var (
		rep  report
		errs schema.FieldErrors
	)
	sanitize.CleanManifestation(&m)

	applyISBN(&m, flags, &rep, &errs)
	if m.ISSN != "" {
		if id := identifier.ParseISSN(m.ISSN); id.Valid {
			m.ISSN = id.Canonical
		} else {
			rep.invalid = append(rep.invalid, identifier.ISSN)
			errs.Add("issn", identifier.ErrInvalidIdentifier)
		}
	}
	if m.LCCN != "" {
		if id := identifier.ParseLCCN(m.LCCN); id.Valid {
			m.LCCN = id.Canonical
		} else {
			rep.invalid = append(rep.invalid, identifier.LCCN)
			errs.Add("lccn", identifier.ErrInvalidIdentifier)
		}
	}

	parser := dates.Parser{Location: flags.Location}
	m.DateOfPublication = nil
	if pub, err := parser.ParsePublication(m.PubDate); err != nil {
		rep.unsetDates = append(rep.unsetDates, "pub_date")
		errs.Add("pub_date", err)
	} else if pub.OK {
		m.DateOfPublication = timePtr(pub)
	}
	m.DateOfDiscontinuance = nil
	if dis := parser.ParseClosing(m.DisDate); dis.OK {
		m.DateOfDiscontinuance = timePtr(dis)
	} else if m.DisDate != "" {
		rep.unsetDates = append(rep.unsetDates, "dis_date")
	}

	applyNumbering(&m)

	if err := m.Validate(); err != nil {
		if fe, ok := schema.AsFieldErrors(err); ok {
			errs = append(errs, fe...)
		} else {
			errs.Add("record", err)
		}
	}
	return m, rep, errs.Err()
}

func applyISBN(m *schema.Manifestation, flags Flags, rep *report, errs *schema.FieldErrors) {
	if m.ISBN == "" {
		m.ISBN10 = ""
		return
	}
	pair, ok := identifier.CanonicalizeISBN(m.ISBN)
	if ok {
		m.ISBN, m.ISBN10 = pair.ISBN13, pair.ISBN10
		return
	}
	rep.invalid = append(rep.invalid, identifier.ValidateISBN(m.ISBN).Kind)
	if flags.DuringImport {
		rep.rejectedISBN = true
		m.WrongISBN = m.ISBN
		m.ISBN, m.ISBN10 = "", ""
		return
	}
	errs.Add("isbn", fmt.Errorf("%w: %q", identifier.ErrInvalidIdentifier, m.ISBN))
}

func applyNumbering(m *schema.Manifestation) {
	n := numbering.Normalize(serialText(*m), numbering.Options{SkipSerial: m.NotSetSerialNumber})
	m.VolumeNumber = n.Volume
	m.IssueNumber = n.Issue
	if !m.NotSetSerialNumber {
		m.SerialNumber = n.Serial
	}
}

// PrepareItem checks and derives the item fields. An acquisition date that
// cannot be read, including one naming a day missing from its month, keeps
// its text and leaves AcquiredAt unset.
func PrepareItem(it schema.Item, flags Flags) (schema.Item, error) {
	out, _, err := prepareItem(it, flags)
	return out, err
}

func prepareItem(it schema.Item, flags Flags) (schema.Item, report, error) {
	var (
		rep  report
		errs schema.FieldErrors
	)
	sanitize.CleanItem(&it)

	// An unreadable acquisition date never blocks the save: the raw text is
	// kept and the derived timestamp stays unset.
	parser := dates.Parser{Location: flags.Location}
	acquired := it.AcquiredAtString != ""
	if acquired {
		canonical, err := parser.CheckAcquired(it.AcquiredAtString)
		if err != nil {
			rep.unsetDates = append(rep.unsetDates, "acquired_at_string")
			acquired = false
		} else {
			it.AcquiredAtString = canonical
		}
	}
	if !flags.ItemAcquiredAtManaged && it.AcquiredAtString != "" {
		it.AcquiredAt = nil
		if acquired {
			if d := parser.ParseClosing(it.AcquiredAtString); d.OK {
				it.AcquiredAt = timePtr(d)
			}
		}
	}
	if !flags.ItemUseDifferentIdentifier {
		it.Identifier = it.ItemIdentifier
	}

	if err := it.Validate(); err != nil {
		if fe, ok := schema.AsFieldErrors(err); ok {
			errs = append(errs, fe...)
		} else {
			errs.Add("record", err)
		}
	}
	return it, rep, errs.Err()
}

// NextIssue returns a draft of the issue following m. The draft has a new
// id and the predicted labels; its integers are derived again when it is
// prepared. pattern may be nil.
func NextIssue(m schema.Manifestation, pattern sequence.Pattern) schema.Manifestation {
	current := numbering.SerialNumbering{Serial: m.SerialNumber, Volume: m.VolumeNumber, Issue: m.IssueNumber}
	if current.Volume == nil && current.Issue == nil {
		current = numbering.Normalize(serialText(m), numbering.Options{})
	}
	next := sequence.Predict(pattern, current, serialText(m))

	draft := m
	draft.ID = schema.NewID()
	draft.ISBN, draft.ISBN10, draft.WrongISBN = "", "", ""
	draft.PubDate, draft.DateOfPublication = "", nil
	draft.VolumeNumberString = next.Volume
	draft.IssueNumberString = next.Issue
	draft.SerialNumberString = next.Serial
	applyNumbering(&draft)
	return draft
}

func serialText(m schema.Manifestation) numbering.SerialText {
	return numbering.SerialText{
		Serial: m.SerialNumberString,
		Volume: m.VolumeNumberString,
		Issue:  m.IssueNumberString,
	}
}

func timePtr(d dates.FuzzyDate) *time.Time {
	t := d.Resolved
	return &t
}
