// Package sqlite persists ordered relationship memberships. Each commit
// replaces the rows of one scope inside a single write transaction, so a
// failed renumbering leaves the stored order untouched and two processes
// sharing the database cannot overwrite each other's changes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"catalog/src/internal/logging"
	"catalog/src/internal/ordering"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store holds the memberships table.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open creates or opens the database at path. logger may be nil.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		path = "catalog.db"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	// busy_timeout is a per-connection setting, so it rides on the DSN.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS memberships (
		role TEXT NOT NULL,
		scope TEXT NOT NULL,
		member TEXT NOT NULL,
		position INTEGER NOT NULL CHECK (position >= 1),
		PRIMARY KEY (role, scope, member),
		UNIQUE (role, scope, position)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create memberships table: %w", err)
	}
	return &Store{db: db, path: path, log: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Committer returns the committer that stores role's scopes. It also
// implements ordering.Reader, so a relation holding a stale copy of a scope
// reloads it and applies its mutation again.
func (s *Store) Committer(role ordering.Role) ordering.Committer[string, string] {
	return scopeCommitter{s: s, role: role}
}

type scopeCommitter struct {
	s    *Store
	role ordering.Role
}

func (c scopeCommitter) Commit(ctx context.Context, scope string, prev, next []string) error {
	return retryOnBusy(ctx, func() error { return c.s.replaceScope(ctx, c.role, scope, prev, next) })
}

func (c scopeCommitter) Current(ctx context.Context, scope string) ([]string, error) {
	rows, err := c.s.Members(ctx, c.role, scope)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Member
	}
	return out, nil
}

// replaceScope rewrites one scope inside a write transaction. The stored
// rows are compared with prev first; ordering.ErrConflict is returned when
// another handle changed the scope since this one read it.
func (s *Store) replaceScope(ctx context.Context, role ordering.Role, scope string, prev, next []string) (retErr error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("conn: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		}
	}()

	stored, err := scopeMembers(ctx, conn, role, scope)
	if err != nil {
		return err
	}
	if !slices.Equal(stored, prev) {
		return fmt.Errorf("%w: %s %s holds %v", ordering.ErrConflict, role, scope, stored)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM memberships WHERE role = ? AND scope = ?`, string(role), scope); err != nil {
		return fmt.Errorf("clear %s %s: %w", role, scope, err)
	}
	for i, m := range next {
		if _, err := conn.ExecContext(ctx, `INSERT INTO memberships(role, scope, member, position) VALUES(?,?,?,?)`, string(role), scope, m, i+1); err != nil {
			return fmt.Errorf("insert %s %s %s: %w", role, scope, m, err)
		}
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("scope committed", "role", string(role), "scope", scope, "members", len(next))
	return nil
}

func scopeMembers(ctx context.Context, conn *sql.Conn, role ordering.Role, scope string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, `SELECT member FROM memberships WHERE role = ? AND scope = ? ORDER BY position`, string(role), scope)
	if err != nil {
		return nil, fmt.Errorf("select %s %s: %w", role, scope, err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Members returns the stored rows of one scope in position order.
func (s *Store) Members(ctx context.Context, role ordering.Role, scope string) ([]ordering.Membership[string, string], error) {
	rows, err := s.db.QueryContext(ctx, `SELECT member, position FROM memberships WHERE role = ? AND scope = ? ORDER BY position`, string(role), scope)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []ordering.Membership[string, string]
	for rows.Next() {
		ms := ordering.Membership[string, string]{Scope: scope}
		if err := rows.Scan(&ms.Member, &ms.Position); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, ms)
	}
	return out, rows.Err()
}

// Load hydrates rel with every stored scope of role.
func (s *Store) Load(ctx context.Context, role ordering.Role, rel *ordering.Relation[string, string]) error {
	rows, err := s.db.QueryContext(ctx, `SELECT scope, member FROM memberships WHERE role = ? ORDER BY scope, position`, string(role))
	if err != nil {
		return fmt.Errorf("select %s: %w", role, err)
	}
	defer func() { _ = rows.Close() }()
	var (
		scopes []string
		byKey  = map[string][]string{}
	)
	for rows.Next() {
		var scope, member string
		if err := rows.Scan(&scope, &member); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if _, ok := byKey[scope]; !ok {
			scopes = append(scopes, scope)
		}
		byKey[scope] = append(byKey[scope], member)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, scope := range scopes {
		if err := rel.Load(scope, byKey[scope]); err != nil {
			return fmt.Errorf("load %s %s: %w", role, scope, err)
		}
	}
	return nil
}

// NewCatalog builds an ordering.Catalog whose relations commit to s and
// are hydrated from it.
func (s *Store) NewCatalog(ctx context.Context, hasOneItem bool) (*ordering.Catalog, error) {
	c := ordering.NewCatalog(ordering.CatalogOptions{HasOneItem: hasOneItem, Committer: s.Committer})
	for _, role := range ordering.Roles {
		if err := s.Load(ctx, role, c.Relation(role)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
