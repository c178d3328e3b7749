package dates

import (
	"errors"
	"testing"
	"time"
)

func day(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

func TestYearFromDate(t *testing.T) {
	if got := YearFromDate("2020-05-01"); got != 2020 {
		t.Fatalf("YearFromDate: want 2020, got %d", got)
	}
	if got := YearFromDate("1999"); got != 1999 {
		t.Fatalf("YearFromDate short: want 1999, got %d", got)
	}
	if got := YearFromDate(""); got != 0 {
		t.Fatalf("YearFromDate empty: want 0, got %d", got)
	}
}

func TestNormalizeSeparators(t *testing.T) {
	cases := map[string]string{
		"2020.02.15":   "2020-02-15",
		"2020/2/5":     "2020-2-5",
		"2020,12":      "2020-12",
		" 2020 - 01 ": "2020-01",
	}
	for in, want := range cases {
		if got := NormalizeSeparators(in); got != want {
			t.Fatalf("NormalizeSeparators(%q)=%q want %q", in, got, want)
		}
	}
}

func TestSplit(t *testing.T) {
	cases := []struct {
		in      string
		y, m, d int
		ok      bool
	}{
		{"2020", 2020, 0, 0, true},
		{"202002", 2020, 2, 0, true},
		{"20200215", 2020, 2, 15, true},
		{"2020-2", 2020, 2, 0, true},
		{"2020-02-15", 2020, 2, 15, true},
		{"20201", 0, 0, 0, false},
		{"2020-123", 0, 0, 0, false},
		{"2020-1-2-3", 0, 0, 0, false},
		{"spring 2020", 0, 0, 0, false},
	}
	for _, c := range cases {
		y, m, d, ok := Split(c.in)
		if ok != c.ok || y != c.y || m != c.m || d != c.d {
			t.Fatalf("Split(%q)=(%d,%d,%d,%v) want (%d,%d,%d,%v)", c.in, y, m, d, ok, c.y, c.m, c.d, c.ok)
		}
	}
}

func TestParsePublication(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2020", day(2020, 1, 1)},
		{"2020-02", day(2020, 2, 29)},
		{"2019.2", day(2019, 2, 28)},
		{"202011", day(2020, 11, 30)},
		{"20200215", day(2020, 2, 15)},
		{"2020/2/5", day(2020, 2, 5)},
	}
	for _, c := range cases {
		got, err := ParsePublication(c.in)
		if err != nil {
			t.Fatalf("ParsePublication(%q): %v", c.in, err)
		}
		if !got.OK || !got.Resolved.Equal(c.want) {
			t.Fatalf("ParsePublication(%q)=%v want %v", c.in, got.Resolved, c.want)
		}
	}
}

func TestParsePublicationRejectsRolledOverDates(t *testing.T) {
	for _, in := range []string{"20200230", "2021-02-29", "2020-13", "2020-00", "2020-04-31", "20201", "around 2020", "0000"} {
		got, err := ParsePublication(in)
		if !errors.Is(err, ErrUnparseableDate) {
			t.Fatalf("ParsePublication(%q): want ErrUnparseableDate, got %v", in, err)
		}
		if got.OK {
			t.Fatalf("ParsePublication(%q): result should be unset", in)
		}
	}
}

func TestParsePublicationEmpty(t *testing.T) {
	got, err := ParsePublication("  ")
	if err != nil || got.OK {
		t.Fatalf("empty publication date: got %+v, %v", got, err)
	}
}

func TestParseClosing(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2020", day(2020, 12, 31)},
		{"2020-02", day(2020, 2, 29)},
		{"2021.2", day(2021, 2, 28)},
		{"2020-02-15", day(2020, 2, 15)},
		{"20200215", day(2020, 2, 15)},
		{"202004", day(2020, 4, 30)},
	}
	for _, c := range cases {
		got := ParseClosing(c.in)
		if !got.OK || !got.Resolved.Equal(c.want) {
			t.Fatalf("ParseClosing(%q)=%v want %v", c.in, got.Resolved, c.want)
		}
	}
	for _, in := range []string{"20200230", "2020-13", "unknown", ""} {
		if got := ParseClosing(in); got.OK {
			t.Fatalf("ParseClosing(%q) should be unset, got %v", in, got.Resolved)
		}
	}
}

func TestParseModes(t *testing.T) {
	open, err := Parser{}.Parse("2020", Opening)
	if err != nil || !open.Resolved.Equal(day(2020, 1, 1)) {
		t.Fatalf("opening: %v %v", open.Resolved, err)
	}
	closing, err := Parser{}.Parse("2020", Closing)
	if err != nil || !closing.Resolved.Equal(day(2020, 12, 31)) {
		t.Fatalf("closing: %v %v", closing.Resolved, err)
	}
	if !closing.Partial() {
		t.Fatalf("year-only date should be partial")
	}
}

func TestParserLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	p := Parser{Location: tokyo}
	got := p.ParseClosing("2020-02")
	if got.Resolved.Location() != tokyo {
		t.Fatalf("location not applied: %v", got.Resolved.Location())
	}
	if got.Resolved.Day() != 29 {
		t.Fatalf("want day 29, got %d", got.Resolved.Day())
	}
}

func TestEndOfMonth(t *testing.T) {
	if got := EndOfMonth(2019, 12, time.UTC); !got.Equal(day(2019, 12, 31)) {
		t.Fatalf("EndOfMonth december: %v", got)
	}
	if got := EndOfMonth(2000, 2, time.UTC); !got.Equal(day(2000, 2, 29)) {
		t.Fatalf("EndOfMonth leap: %v", got)
	}
}

func TestCheckAcquired(t *testing.T) {
	ok := map[string]string{
		"20200105":   "2020-01-05",
		"2020-1-5":   "2020-01-05",
		"2020-12-31": "2020-12-31",
		"2020-3":     "2020-03",
		"2020":       "2020",
		"":           "",
	}
	for in, want := range ok {
		got, err := CheckAcquired(in)
		if err != nil || got != want {
			t.Fatalf("CheckAcquired(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"2020-2-30", "20200431", "2020-13", "20/01/05", "2020-1-5x"} {
		if _, err := CheckAcquired(in); !errors.Is(err, ErrUnparseableDate) {
			t.Fatalf("CheckAcquired(%q): want ErrUnparseableDate, got %v", in, err)
		}
	}
}
