package exportcmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/ordering"
	"catalog/src/internal/schema"
)

func TestExportUsesCreatorOrder(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "catalog.toml")
	body := "[paths]\ndata_dir = \"" + filepath.ToSlash(filepath.Join(dir, "data")) + "\"\n[logging]\nlevel = \"error\"\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	setup := cmdctx.New(&cfg, nil)
	svc, err := setup.Service(ctx)
	if err != nil {
		t.Fatal(err)
	}
	m, err := svc.SaveManifestation(ctx, schema.Manifestation{ID: "m1", OriginalTitle: "Clean Code", ISBN: "0306406152", PubDate: "2008"})
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range []string{"Robert C. Martin", "Doe, Jane"} {
		if _, err := svc.Relate(ctx, ordering.Creator, m.ID, a); err != nil {
			t.Fatal(err)
		}
	}
	if err := setup.Close(); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out", "library.bib")
	cc := cmdctx.New(&cfg, nil)
	defer cc.Close()
	cmd := New(cc)
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--output", out})
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	bib := string(raw)
	for _, want := range []string{"@book{m1,", "author = {Martin, Robert C. and Doe, Jane}", "isbn = {9780306406157}", "year = {2008}"} {
		if !strings.Contains(bib, want) {
			t.Fatalf("missing %q in:\n%s", want, bib)
		}
	}
	if !strings.Contains(stderr.String(), "1 entries") {
		t.Fatalf("unexpected summary %q", stderr.String())
	}
}
