package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"catalog/src/internal/schema"
)

func TestWriteReadAndIndex(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir(), nil)

	m1 := schema.Manifestation{ID: "a", OriginalTitle: "Go Programming", ISBN: "9780306406157", ISBN10: "0306406152"}
	m2 := schema.Manifestation{ID: "b", OriginalTitle: "吾輩は猫である", TitleAlternative: "I Am a Cat", ISBN: "9791034304479"}

	for _, m := range []schema.Manifestation{m2, m1} {
		if err := s.WriteManifestation(ctx, m); err != nil {
			t.Fatalf("write %s: %v", m.ID, err)
		}
		if _, err := os.Stat(s.ManifestationPath(m.ID)); err != nil {
			t.Fatalf("stat %s: %v", m.ID, err)
		}
	}

	list, err := s.ReadAll()
	if err != nil {
		t.Fatalf("readall: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("expected [a b] got %+v", list)
	}

	out, err := s.BuildISBNIndex(ctx, list)
	if err != nil {
		t.Fatalf("isbn index: %v", err)
	}
	if out != filepath.Join(s.Dir, ISBNJSON) {
		t.Fatalf("unexpected path: %s", out)
	}
	var index map[string][]string
	b, _ := os.ReadFile(out)
	if err := json.Unmarshal(b, &index); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if got := index["0306406152"]; len(got) != 1 || got[0] != "manifestations/a.yaml" {
		t.Fatalf("isbn10 key missing: %v", index)
	}
	if _, ok := index["9791034304479"]; !ok {
		t.Fatalf("isbn13 key missing: %v", index)
	}

	if _, err := s.BuildTitleIndex(ctx, list); err != nil {
		t.Fatalf("title index: %v", err)
	}
	b, _ = os.ReadFile(filepath.Join(s.Dir, TitlesJSON))
	if !strings.Contains(string(b), `"cat"`) || !strings.Contains(string(b), `"programming"`) {
		t.Fatalf("title words missing: %s", b)
	}

	matches := FilterByTitleAND(list, []string{"go", "programming"})
	if len(matches) != 1 || matches[0].ID != "a" {
		t.Fatalf("filter AND mismatch: %+v", matches)
	}
}

func TestWriteRejectsInvalidRecord(t *testing.T) {
	s := New(t.TempDir(), nil)
	if err := s.WriteManifestation(context.Background(), schema.Manifestation{ID: "x"}); err == nil {
		t.Fatalf("expected missing title error")
	}
	if err := s.WriteItem(context.Background(), schema.Item{}); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestReadManifestationRoundTrip(t *testing.T) {
	s := New(t.TempDir(), nil)
	pub := time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC)
	vol := int64(3)
	in := schema.Manifestation{ID: "m", OriginalTitle: "t", PubDate: "2020-02", DateOfPublication: &pub, VolumeNumber: &vol}
	if err := s.WriteManifestation(context.Background(), in); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := s.ReadManifestation("m")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.DateOfPublication == nil || !got.DateOfPublication.Equal(pub) || got.VolumeNumber == nil || *got.VolumeNumber != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, err := s.ReadManifestation("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestItemsAndLookup(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir(), nil)
	if err := s.WriteItem(ctx, schema.Item{ID: "i1", ManifestationID: "a", ItemIdentifier: "B1"}); err != nil {
		t.Fatalf("write item: %v", err)
	}
	items, err := s.ReadItems()
	if err != nil || len(items) != 1 || items[0].ItemIdentifier != "B1" {
		t.Fatalf("read items: %v %+v", err, items)
	}

	if err := s.WriteManifestation(ctx, schema.Manifestation{ID: "a", OriginalTitle: "t", ISBN: "9780306406157", ISBN10: "0306406152"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	found, err := s.ManifestationsByISBN(ctx, []string{"0306406152"})
	if err != nil || len(found) != 1 {
		t.Fatalf("lookup by isbn10: %v %+v", err, found)
	}

	all, _ := s.ReadAll()
	if got := FindByISBN(all, "0-306-40615-2"); len(got) != 1 {
		t.Fatalf("FindByISBN isbn10 input: %+v", got)
	}
	if got := FindByISBN(all, "978-0-306-40615-7"); len(got) != 1 {
		t.Fatalf("FindByISBN isbn13 input: %+v", got)
	}
	if got := FindByISBN(all, "0306406153"); got != nil {
		t.Fatalf("invalid isbn should match nothing: %+v", got)
	}
}

func TestWriteManifestationIfChecksUnderLock(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New(dir, nil)
	m := schema.Manifestation{ID: "a", OriginalTitle: "t"}

	held := false
	err := s.WriteManifestationIf(ctx, m, func(context.Context) error {
		other := flock.New(filepath.Join(dir, lockName))
		locked, err := other.TryLock()
		if err != nil {
			return err
		}
		if locked {
			_ = other.Unlock()
		}
		held = !locked
		return nil
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !held {
		t.Fatalf("check ran without the store lock")
	}

	refused := errors.New("taken")
	m.ID = "b"
	if err := s.WriteManifestationIf(ctx, m, func(context.Context) error { return refused }); !errors.Is(err, refused) {
		t.Fatalf("expected check error, got %v", err)
	}
	if _, err := os.Stat(s.ManifestationPath("b")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("rejected record was written: %v", err)
	}
}

func TestReadAllMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"), nil)
	list, err := s.ReadAll()
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
}

func TestExportBibTeX(t *testing.T) {
	pub := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	entries := []schema.Manifestation{
		{ID: "ab-cd", OriginalTitle: "Alpha {Beta}", ISBN: "9780306406157", DateOfPublication: &pub, StartPage: "1", EndPage: "10"},
		{ID: "p1", OriginalTitle: "Monthly", ISSN: "0317-8471", VolumeNumberString: "3", IssueNumberString: "12", PubDate: "1998.4"},
	}
	creators := func(id string) []string {
		if id == "ab-cd" {
			return []string{"Natsume Soseki", "Tolkien, J. R. R."}
		}
		return nil
	}
	var buf bytes.Buffer
	if err := ExportBibTeX(&buf, entries, creators); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"@book{abcd,",
		"author = {Soseki, Natsume and Tolkien, J. R. R.}",
		"title = {Alpha \\{Beta\\}}",
		"pages = {1--10}",
		"year = {2021}",
		"@periodical{p1,",
		"number = {12}",
		"year = {1998}",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "},\n}") {
		t.Fatalf("trailing comma left in:\n%s", out)
	}
}
