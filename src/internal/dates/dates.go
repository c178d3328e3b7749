package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDate marks a publication or acquisition date string that
// cannot be resolved to a real calendar day.
var ErrUnparseableDate = errors.New("unparseable date")

// Mode picks which end of a partial date is used for the resolved value.
type Mode int

const (
	// Opening resolves a bare year to January 1 (publication).
	Opening Mode = iota
	// Closing resolves a bare year to December 31 (acquisition, discontinuance).
	Closing
)

// FuzzyDate is a possibly partial date. Month and Day are zero when absent.
// Resolved is only meaningful when OK is true.
type FuzzyDate struct {
	Year     int
	Month    int
	Day      int
	Resolved time.Time
	OK       bool
}

// Partial reports whether the month or day was left out.
func (d FuzzyDate) Partial() bool { return d.Month == 0 || d.Day == 0 }

// Parser resolves dates in a fixed location. The zero value uses UTC.
type Parser struct {
	Location *time.Location
}

var (
	separators = strings.NewReplacer(".", "-", ",", "-", "/", "-")
	pubDateRe  = regexp.MustCompile(`^\d+(-\d{1,2}){0,2}$`)
	compactRe  = regexp.MustCompile(`^\d+$`)
)

func (p Parser) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// NormalizeSeparators turns '.', ',' and '/' into '-' and drops all whitespace.
func NormalizeSeparators(s string) string {
	s = strings.Join(strings.Fields(s), "")
	return separators.Replace(s)
}

// Split breaks a normalized date string into year, month and day. Compact
// digit runs of length 4, 6 and 8 are read as YYYY, YYYYMM and YYYYMMDD.
// Missing parts are returned as zero.
func Split(s string) (year, month, day int, ok bool) {
	nums, ok := splitParts(s)
	if !ok {
		return 0, 0, 0, false
	}
	out := make([]int, 3)
	copy(out, nums)
	return out[0], out[1], out[2], true
}

func splitParts(s string) ([]int, bool) {
	if !pubDateRe.MatchString(s) {
		return nil, false
	}
	var parts []string
	if compactRe.MatchString(s) {
		switch len(s) {
		case 4:
			parts = []string{s}
		case 6:
			parts = []string{s[:4], s[4:]}
		case 8:
			parts = []string{s[:4], s[4:6], s[6:]}
		default:
			return nil, false
		}
	} else {
		parts = strings.Split(s, "-")
	}
	nums := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, false
		}
		nums = append(nums, n)
	}
	return nums, true
}

// EndOfMonth returns the last day of the given month in loc.
func EndOfMonth(year, month int, loc *time.Location) time.Time {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc)
}

// ParsePublication validates a publication date and resolves it with the
// Opening rule: a bare year gives January 1, a year and month give the end
// of that month. A date whose day does not exist in the stated month is
// rejected instead of rolling into the next month. An empty string yields a
// zero FuzzyDate and no error.
func (p Parser) ParsePublication(raw string) (FuzzyDate, error) {
	s := NormalizeSeparators(raw)
	if s == "" {
		return FuzzyDate{}, nil
	}
	parts, ok := splitParts(s)
	if !ok || parts[0] <= 0 || parts[0] > 9999 {
		return FuzzyDate{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}
	for _, n := range parts[1:] {
		if n == 0 {
			return FuzzyDate{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
		}
	}
	full := make([]int, 3)
	copy(full, parts)
	y, m, d := full[0], full[1], full[2]
	fd := FuzzyDate{Year: y, Month: m, Day: d}
	checkMonth, checkDay := m, d
	if checkMonth == 0 {
		checkMonth = 1
	}
	if checkDay == 0 {
		checkDay = 1
	}
	t := time.Date(y, time.Month(checkMonth), checkDay, 0, 0, 0, 0, p.loc())
	if t.Year() != y || int(t.Month()) != checkMonth || t.Day() != checkDay {
		return FuzzyDate{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}
	fd.Resolved = t
	if m != 0 && d == 0 {
		fd.Resolved = EndOfMonth(y, m, p.loc())
	}
	fd.OK = true
	return fd, nil
}

// ParseClosing resolves acquisition and discontinuance dates. It tries the
// full date, then the first of the month moved to the month end, then
// December 1 moved to the year end. When nothing matches the result has
// OK false; this is not an error.
func (p Parser) ParseClosing(raw string) FuzzyDate {
	s := expandCompact(NormalizeSeparators(raw))
	if s == "" {
		return FuzzyDate{}
	}
	if t, err := time.ParseInLocation("2006-1-2", s, p.loc()); err == nil {
		return FuzzyDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Resolved: t, OK: true}
	}
	if t, err := time.ParseInLocation("2006-1-2", s+"-01", p.loc()); err == nil {
		return FuzzyDate{Year: t.Year(), Month: int(t.Month()), Resolved: EndOfMonth(t.Year(), int(t.Month()), p.loc()), OK: true}
	}
	if t, err := time.ParseInLocation("2006-1-2", s+"-12-01", p.loc()); err == nil {
		return FuzzyDate{Year: t.Year(), Resolved: EndOfMonth(t.Year(), 12, p.loc()), OK: true}
	}
	return FuzzyDate{}
}

// Parse dispatches on mode. Closing never fails; Opening reports
// ErrUnparseableDate.
func (p Parser) Parse(raw string, mode Mode) (FuzzyDate, error) {
	if mode == Closing {
		return p.ParseClosing(raw), nil
	}
	return p.ParsePublication(raw)
}

func expandCompact(s string) string {
	if !compactRe.MatchString(s) {
		return s
	}
	switch len(s) {
	case 6:
		return s[:4] + "-" + s[4:]
	case 8:
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	return s
}

var (
	acquiredDayRe = regexp.MustCompile(`^\d{4}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])$|^\d{4}-(0?[1-9]|1[0-2])-(0?[1-9]|[12]\d|3[01])$`)
	acquiredMonRe = regexp.MustCompile(`^\d{4}-(0?[1-9]|1[0-2])$`)
	acquiredYrRe  = regexp.MustCompile(`^\d{4}$`)
)

// CheckAcquired validates an item's acquisition date text and returns it in
// zero-padded YYYY-MM-DD, YYYY-MM or YYYY form. Days that do not exist in the
// given month are rejected.
func (p Parser) CheckAcquired(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return "", nil
	case acquiredDayRe.MatchString(s):
		var parts []string
		if len(s) == 8 && compactRe.MatchString(s) {
			parts = []string{s[:4], s[4:6], s[6:]}
		} else {
			parts = strings.Split(s, "-")
		}
		y, _ := strconv.Atoi(parts[0])
		m, _ := strconv.Atoi(parts[1])
		d, _ := strconv.Atoi(parts[2])
		t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, p.loc())
		if int(t.Month()) != m || t.Day() != d {
			return "", fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
		}
		return t.Format("2006-01-02"), nil
	case acquiredMonRe.MatchString(s):
		parts := strings.Split(s, "-")
		m, _ := strconv.Atoi(parts[1])
		return fmt.Sprintf("%s-%02d", parts[0], m), nil
	case acquiredYrRe.MatchString(s):
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
}

var std Parser

// ParsePublication uses a UTC Parser.
func ParsePublication(raw string) (FuzzyDate, error) { return std.ParsePublication(raw) }

// ParseClosing uses a UTC Parser.
func ParseClosing(raw string) FuzzyDate { return std.ParseClosing(raw) }

// CheckAcquired uses a UTC Parser.
func CheckAcquired(raw string) (string, error) { return std.CheckAcquired(raw) }

// YearFromDate parses the first 4 characters of a YYYY or YYYY-MM-DD string.
func YearFromDate(date string) int {
	date = strings.TrimSpace(date)
	if len(date) >= 4 {
		var y int
		if _, err := fmt.Sscanf(date[:4], "%d", &y); err == nil {
			return y
		}
	}
	return 0
}
