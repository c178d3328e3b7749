package sanitize

import (
	"net/url"
	"testing"
	"unicode/utf8"

	"catalog/src/internal/schema"
)

func TestCleanString(t *testing.T) {
	in := "  \tHello\x00World\n  "
	out := CleanString(in, 100)
	if out != "HelloWorld" {
		t.Fatalf("CleanString unexpected: %q", out)
	}
	if s := CleanString("abcdef", 3); s != "abc" {
		t.Fatalf("CleanString truncation: want 'abc', got %q", s)
	}
	if s := CleanString("第３巻特集号", 3); s != "第３巻" {
		t.Fatalf("CleanString truncation counts runes: got %q", s)
	}
	if !utf8.ValidString(out) {
		t.Fatalf("CleanString produced invalid utf8")
	}
}

func TestCleanURL(t *testing.T) {
	if CleanURL("") != "" {
		t.Fatalf("CleanURL empty should be empty")
	}
	if CleanURL("not a url") != "" {
		t.Fatalf("CleanURL invalid should be empty")
	}
	u := CleanURL("https://example.com/a b")
	if _, err := url.Parse(u); err != nil {
		t.Fatalf("CleanURL not parseable: %v", err)
	}
	if CleanURL("ftp://x") != "" {
		t.Fatalf("only http/https allowed")
	}
}

func TestCleanIdentifier(t *testing.T) {
	if got := CleanIdentifier(" 978 4 06 123456 7\x00"); got != "9784061234567" {
		t.Fatalf("CleanIdentifier: %q", got)
	}
}

func TestCleanManifestationAndItem(t *testing.T) {
	m := schema.Manifestation{ID: " id ", OriginalTitle: "  Title\x07 ", ISBN: " 4-06-123456-0 ", AccessAddress: "gopher://x", PubDate: " 2020.1 "}
	CleanManifestation(&m)
	if m.ID != "id" || m.OriginalTitle != "Title" {
		t.Fatalf("CleanManifestation did not trim: %+v", m)
	}
	if m.ISBN != "4-06-123456-0" {
		t.Fatalf("CleanManifestation isbn: %q", m.ISBN)
	}
	if m.AccessAddress != "" {
		t.Fatalf("non-http access address should be dropped: %q", m.AccessAddress)
	}
	if m.PubDate != "2020.1" {
		t.Fatalf("pub date: %q", m.PubDate)
	}
	CleanManifestation(nil)

	it := schema.Item{ID: " i ", ItemIdentifier: " 0001 ", URL: "https://lib.example/item 1"}
	CleanItem(&it)
	if it.ID != "i" || it.ItemIdentifier != "0001" || it.URL != "https://lib.example/item%201" {
		t.Fatalf("CleanItem: %+v", it)
	}
	CleanItem(nil)
}
