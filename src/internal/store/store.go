package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"catalog/src/internal/identifier"
	"catalog/src/internal/logging"
	"catalog/src/internal/schema"
)

// Layout below the data directory.
const (
	ManifestationsDir = "manifestations"
	ItemsDir          = "items"
	MetadataDir       = "metadata"
	ISBNJSON          = "metadata/isbn.json"
	TitlesJSON        = "metadata/titles.json"
	lockName          = ".lock"
)

const lockRetry = 50 * time.Millisecond

var ErrNotFound = errors.New("record not found")

// Store keeps one YAML file per record under Dir. Writers in different
// processes are serialized by a lock file in Dir.
type Store struct {
	Dir string
	log *slog.Logger
}

// New returns a Store rooted at dir. logger may be nil.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{Dir: dir, log: logger}
}

func (s *Store) path(rel ...string) string {
	return filepath.Join(append([]string{s.Dir}, rel...)...)
}

// ManifestationPath returns the file that holds manifestation id.
func (s *Store) ManifestationPath(id string) string {
	return s.path(ManifestationsDir, id+".yaml")
}

// ItemPath returns the file that holds item id.
func (s *Store) ItemPath(id string) string {
	return s.path(ItemsDir, id+".yaml")
}

// relPath is the index form of a record path: relative to Dir, slash separated.
func (s *Store) relPath(id string) string {
	return filepath.ToSlash(filepath.Join(ManifestationsDir, id+".yaml"))
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	lk := flock.New(s.path(lockName))
	locked, err := lk.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.Dir, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", s.Dir)
	}
	defer func() { _ = lk.Unlock() }()
	return fn()
}

// WriteManifestation validates m and writes it to its YAML file.
func (s *Store) WriteManifestation(ctx context.Context, m schema.Manifestation) error {
	return s.WriteManifestationIf(ctx, m, nil)
}

// WriteManifestationIf is WriteManifestation guarded by check, which runs
// while the lock is held. A check error is returned as is and nothing is
// written.
func (s *Store) WriteManifestationIf(ctx context.Context, m schema.Manifestation, check func(context.Context) error) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		if check != nil {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return writeYAML(s.ManifestationPath(m.ID), m)
	})
}

// WriteItem validates it and writes it to its YAML file.
func (s *Store) WriteItem(ctx context.Context, it schema.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		return writeYAML(s.ItemPath(it.ID), it)
	})
}

func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	buf, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadManifestation loads one manifestation by id.
func (s *Store) ReadManifestation(id string) (schema.Manifestation, error) {
	var m schema.Manifestation
	data, err := os.ReadFile(s.ManifestationPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return m, fmt.Errorf("%w: manifestation %s", ErrNotFound, id)
	}
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("invalid YAML in %s: %w", s.ManifestationPath(id), err)
	}
	return m, nil
}

// ReadAll loads, validates, and returns all manifestations, sorted by id.
func (s *Store) ReadAll() ([]schema.Manifestation, error) {
	return readDir[schema.Manifestation](s.path(ManifestationsDir), func(m *schema.Manifestation) (string, error) {
		return m.ID, m.Validate()
	})
}

// ReadItems loads, validates, and returns all items, sorted by id.
func (s *Store) ReadItems() ([]schema.Item, error) {
	return readDir[schema.Item](s.path(ItemsDir), func(it *schema.Item) (string, error) {
		return it.ID, it.Validate()
	})
}

func readDir[T any](dir string, check func(*T) (string, error)) ([]T, error) {
	var (
		out  []T
		keys []string
	)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var v T
		if err := yaml.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
		key, err := check(&v)
		if err != nil {
			return fmt.Errorf("invalid record in %s: %w", path, err)
		}
		out = append(out, v)
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	sorted := make([]T, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted, nil
}

// ManifestationsByISBN returns every stored manifestation whose ISBN-13 or
// ISBN-10 equals one of keys.
func (s *Store) ManifestationsByISBN(_ context.Context, keys []string) ([]schema.Manifestation, error) {
	all, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []schema.Manifestation
	for _, m := range all {
		if matchesISBN(m, keys) {
			out = append(out, m)
		}
	}
	return out, nil
}

// FindByISBN returns the entries stored under any form of raw. An invalid
// raw value matches nothing.
func FindByISBN(entries []schema.Manifestation, raw string) []schema.Manifestation {
	keys := identifier.ISBNLookupKeys(raw)
	if len(keys) == 0 {
		return nil
	}
	var out []schema.Manifestation
	for _, m := range entries {
		if matchesISBN(m, keys) {
			out = append(out, m)
		}
	}
	return out
}

func matchesISBN(m schema.Manifestation, keys []string) bool {
	return m.ISBN != "" && slices.Contains(keys, m.ISBN) || m.ISBN10 != "" && slices.Contains(keys, m.ISBN10)
}

// BuildISBNIndex writes metadata/isbn.json mapping each ISBN form to the
// record paths stored under it. Both the ISBN-13 and the ISBN-10 are keys.
func (s *Store) BuildISBNIndex(ctx context.Context, entries []schema.Manifestation) (string, error) {
	index := map[string][]string{}
	for _, m := range entries {
		for _, k := range []string{m.ISBN, m.ISBN10} {
			if k != "" {
				index[k] = append(index[k], s.relPath(m.ID))
			}
		}
	}
	return s.writeIndex(ctx, ISBNJSON, index)
}

// BuildTitleIndex writes metadata/titles.json mapping each title word to the
// record paths whose titles contain it.
func (s *Store) BuildTitleIndex(ctx context.Context, entries []schema.Manifestation) (string, error) {
	index := map[string][]string{}
	for _, m := range entries {
		seen := map[string]bool{}
		for _, title := range m.Titles() {
			for _, w := range tokenizeWords(title) {
				if seen[w] {
					continue
				}
				seen[w] = true
				index[w] = append(index[w], s.relPath(m.ID))
			}
		}
	}
	return s.writeIndex(ctx, TitlesJSON, index)
}

func (s *Store) writeIndex(ctx context.Context, rel string, index map[string][]string) (string, error) {
	for k := range index {
		sort.Strings(index[k])
	}
	target := s.path(rel)
	err := s.withLock(ctx, func() error {
		if err := os.MkdirAll(s.path(MetadataDir), 0o755); err != nil {
			return err
		}
		b, err := json.MarshalIndent(index, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(target, b, 0o644)
	})
	if err != nil {
		return "", err
	}
	s.log.Debug("index written", "path", target, "keys", len(index))
	return target, nil
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// tokenizeWords splits a phrase into lowercased word tokens, dropping
// single-character tokens.
func tokenizeWords(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := nonWord.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(p)
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

// FilterByTitleAND keeps the entries whose titles contain every word.
func FilterByTitleAND(entries []schema.Manifestation, words []string) []schema.Manifestation {
	var want []string
	for _, w := range words {
		want = append(want, tokenizeWords(w)...)
	}
	if len(want) == 0 {
		return entries
	}
	var out []schema.Manifestation
	for _, m := range entries {
		set := map[string]bool{}
		for _, title := range m.Titles() {
			for _, w := range tokenizeWords(title) {
				set[w] = true
			}
		}
		hit := true
		for _, w := range want {
			if !set[w] {
				hit = false
				break
			}
		}
		if hit {
			out = append(out, m)
		}
	}
	return out
}
