package ordering

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrDuplicateMember = errors.New("member already present in scope")
	ErrNotMember       = errors.New("member not present in scope")
	ErrCardinality     = errors.New("relationship cardinality exceeded")
	ErrRenumbering     = errors.New("renumbering not committed")
	// ErrConflict is returned by a Committer whose stored order no longer
	// matches the order the Relation last saw.
	ErrConflict = errors.New("scope changed concurrently")
)

// maxConflictRetries bounds how often a mutation is re-applied after the
// committer reports ErrConflict.
const maxConflictRetries = 3

var errUnchanged = errors.New("order unchanged")

// Membership is one row of a join: Member at Position (1-based) under Scope.
type Membership[S, M comparable] struct {
	Scope    S   `json:"scope" yaml:"scope"`
	Member   M   `json:"member" yaml:"member"`
	Position int `json:"position" yaml:"position"`
}

// Committer persists the complete new order of one scope. It is called with
// the scope lock held, before the in-memory order changes. prev is the order
// the Relation holds for scope; a committer shared with other writers returns
// ErrConflict when its stored order differs from prev.
type Committer[S, M comparable] interface {
	Commit(ctx context.Context, scope S, prev, next []M) error
}

// Reader is implemented by committers that can read back a stored scope.
// After ErrConflict the Relation reloads the scope through it and applies
// the mutation again.
type Reader[S, M comparable] interface {
	Current(ctx context.Context, scope S) ([]M, error)
}

// CommitFunc adapts a function to Committer.
type CommitFunc[S, M comparable] func(ctx context.Context, scope S, prev, next []M) error

// Commit calls f.
func (f CommitFunc[S, M]) Commit(ctx context.Context, scope S, prev, next []M) error {
	return f(ctx, scope, prev, next)
}

// Options restricts membership beyond per-scope uniqueness.
type Options struct {
	// MaxPerScope caps the number of members in a scope; zero means no cap.
	MaxPerScope int
	// Exclusive allows a member to belong to a single scope at a time.
	Exclusive bool
}

// Relation is an ordered many-to-many relationship keyed by scope S and
// member M. It is safe for concurrent use; operations on different scopes
// do not block each other.
type Relation[S, M comparable] struct {
	opts      Options
	committer Committer[S, M]

	mu     sync.Mutex
	locks  map[S]*scopeLock
	scopes map[S][]M
	owners map[M]S
}

// scopeLock is shared by every caller holding or waiting on one scope and
// is dropped from the map when the last of them leaves.
type scopeLock struct {
	mu   sync.Mutex
	refs int
}

// New returns an empty Relation. committer may be nil.
func New[S, M comparable](committer Committer[S, M], opts Options) *Relation[S, M] {
	return &Relation[S, M]{
		opts:      opts,
		committer: committer,
		locks:     make(map[S]*scopeLock),
		scopes:    make(map[S][]M),
		owners:    make(map[M]S),
	}
}

// lock serializes work on scope and returns the matching unlock.
func (r *Relation[S, M]) lock(scope S) (unlock func()) {
	r.mu.Lock()
	l, ok := r.locks[scope]
	if !ok {
		l = &scopeLock{}
		r.locks[scope] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		defer r.mu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(r.locks, scope)
		}
	}
}

func (r *Relation[S, M]) current(scope S) []M {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.scopes[scope])
}

func (r *Relation[S, M]) commit(ctx context.Context, scope S, prev, next []M) error {
	if r.committer == nil {
		return nil
	}
	if err := r.committer.Commit(ctx, scope, slices.Clone(prev), slices.Clone(next)); err != nil {
		return fmt.Errorf("%w: %w", ErrRenumbering, err)
	}
	return nil
}

// apply computes the next order of scope with op, commits it and swaps it
// in. The caller holds the scope lock. When the committer reports a
// conflict and can read the stored order, the scope is refreshed from
// storage and op runs again on the fresh order.
func (r *Relation[S, M]) apply(ctx context.Context, scope S, op func(cur []M) ([]M, error)) error {
	for attempt := 0; ; attempt++ {
		prev := r.current(scope)
		next, err := op(slices.Clone(prev))
		if err != nil {
			return err
		}
		err = r.commit(ctx, scope, prev, next)
		if err == nil {
			r.swap(scope, next)
			return nil
		}
		reader, ok := r.committer.(Reader[S, M])
		if !ok || !errors.Is(err, ErrConflict) || attempt >= maxConflictRetries {
			return err
		}
		stored, rerr := reader.Current(ctx, scope)
		if rerr != nil {
			return fmt.Errorf("%w: reload %v: %w", ErrRenumbering, scope, rerr)
		}
		r.refresh(scope, stored)
	}
}

func (r *Relation[S, M]) swap(scope S, next []M) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(next) == 0 {
		delete(r.scopes, scope)
		return
	}
	r.scopes[scope] = next
}

// refresh replaces scope with the order read back from storage. Storage
// wins over the owner index.
func (r *Relation[S, M]) refresh(scope S, stored []M) {
	if r.opts.Exclusive {
		r.mu.Lock()
		for _, m := range r.scopes[scope] {
			if owner, ok := r.owners[m]; ok && owner == scope {
				delete(r.owners, m)
			}
		}
		for _, m := range stored {
			r.owners[m] = scope
		}
		r.mu.Unlock()
	}
	r.swap(scope, slices.Clone(stored))
}

// reserve claims member for scope in the owner index of an exclusive relation.
func (r *Relation[S, M]) reserve(scope S, member M) error {
	if !r.opts.Exclusive {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.owners[member]; ok && owner != scope {
		return fmt.Errorf("%w: member %v already belongs to %v", ErrCardinality, member, owner)
	}
	r.owners[member] = scope
	return nil
}

func (r *Relation[S, M]) release(scope S, members ...M) {
	if !r.opts.Exclusive {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range members {
		if owner, ok := r.owners[m]; ok && owner == scope {
			delete(r.owners, m)
		}
	}
}

// Append adds member at the end of scope.
func (r *Relation[S, M]) Append(ctx context.Context, scope S, member M) (Membership[S, M], error) {
	unlock := r.lock(scope)
	defer unlock()

	var position int
	err := r.apply(ctx, scope, func(cur []M) ([]M, error) {
		if slices.Contains(cur, member) {
			return nil, fmt.Errorf("%w: %v in %v", ErrDuplicateMember, member, scope)
		}
		if r.opts.MaxPerScope > 0 && len(cur) >= r.opts.MaxPerScope {
			return nil, fmt.Errorf("%w: %v already has %d", ErrCardinality, scope, len(cur))
		}
		if err := r.reserve(scope, member); err != nil {
			return nil, err
		}
		position = len(cur) + 1
		return append(cur, member), nil
	})
	if err != nil {
		if !slices.Contains(r.current(scope), member) {
			r.release(scope, member)
		}
		return Membership[S, M]{}, err
	}
	return Membership[S, M]{Scope: scope, Member: member, Position: position}, nil
}

// Remove deletes member from scope; later members move up one place.
func (r *Relation[S, M]) Remove(ctx context.Context, scope S, member M) error {
	unlock := r.lock(scope)
	defer unlock()

	err := r.apply(ctx, scope, func(cur []M) ([]M, error) {
		idx := slices.Index(cur, member)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %v in %v", ErrNotMember, member, scope)
		}
		return slices.Delete(cur, idx, idx+1), nil
	})
	if err != nil {
		return err
	}
	r.release(scope, member)
	return nil
}

// Reorder moves member to position, clamped to [1, n]. Members in between
// shift by one to make room.
func (r *Relation[S, M]) Reorder(ctx context.Context, scope S, member M, position int) (Membership[S, M], error) {
	unlock := r.lock(scope)
	defer unlock()

	var target int
	err := r.apply(ctx, scope, func(cur []M) ([]M, error) {
		idx := slices.Index(cur, member)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %v in %v", ErrNotMember, member, scope)
		}
		target = max(1, min(position, len(cur)))
		if target == idx+1 {
			return nil, errUnchanged
		}
		return slices.Insert(slices.Delete(cur, idx, idx+1), target-1, member), nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return Membership[S, M]{}, err
	}
	return Membership[S, M]{Scope: scope, Member: member, Position: target}, nil
}

// DropScope removes every membership of scope, as when the scope's record
// is destroyed.
func (r *Relation[S, M]) DropScope(ctx context.Context, scope S) error {
	unlock := r.lock(scope)
	defer unlock()

	var dropped []M
	err := r.apply(ctx, scope, func(cur []M) ([]M, error) {
		if len(cur) == 0 {
			return nil, errUnchanged
		}
		dropped = cur
		return nil, nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	r.release(scope, dropped...)
	return nil
}

// DropMember removes member from every scope it belongs to, as when the
// member's record is destroyed. Each scope is renumbered atomically; scopes
// already processed stay changed if a later one fails.
func (r *Relation[S, M]) DropMember(ctx context.Context, member M) error {
	for _, scope := range r.ScopesOf(member) {
		if err := r.Remove(ctx, scope, member); err != nil && !errors.Is(err, ErrNotMember) {
			return err
		}
	}
	return nil
}

// Load replaces the order of scope without calling the committer; it is
// used to hydrate a Relation from storage.
func (r *Relation[S, M]) Load(scope S, members []M) error {
	seen := make(map[M]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m]; dup {
			return fmt.Errorf("%w: %v in %v", ErrDuplicateMember, m, scope)
		}
		seen[m] = struct{}{}
	}
	unlock := r.lock(scope)
	defer unlock()
	if r.opts.Exclusive {
		r.mu.Lock()
		for _, m := range members {
			if owner, ok := r.owners[m]; ok && owner != scope {
				r.mu.Unlock()
				return fmt.Errorf("%w: member %v already belongs to %v", ErrCardinality, m, owner)
			}
		}
		r.mu.Unlock()
	}
	r.refresh(scope, members)
	return nil
}

// Members returns the memberships of scope in position order.
func (r *Relation[S, M]) Members(scope S) []Membership[S, M] {
	cur := r.current(scope)
	out := make([]Membership[S, M], len(cur))
	for i, m := range cur {
		out[i] = Membership[S, M]{Scope: scope, Member: m, Position: i + 1}
	}
	return out
}

// Position returns the 1-based position of member in scope.
func (r *Relation[S, M]) Position(scope S, member M) (int, bool) {
	idx := slices.Index(r.current(scope), member)
	return idx + 1, idx >= 0
}

// Len returns the number of members in scope.
func (r *Relation[S, M]) Len(scope S) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes[scope])
}

// Scopes returns every non-empty scope, in no particular order.
func (r *Relation[S, M]) Scopes() []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]S, 0, len(r.scopes))
	for s := range r.scopes {
		out = append(out, s)
	}
	return out
}

// ScopesOf returns the scopes member currently belongs to.
func (r *Relation[S, M]) ScopesOf(member M) []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []S
	for s, ms := range r.scopes {
		if slices.Contains(ms, member) {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports whether scope holds positions exactly 1..n with unique members.
func (r *Relation[S, M]) Validate(scope S) bool {
	return Contiguous(r.Members(scope))
}

// Contiguous reports whether rows, in any order, carry positions exactly
// 1..len(rows) and no member twice.
func Contiguous[S, M comparable](rows []Membership[S, M]) bool {
	seenPos := make([]bool, len(rows)+1)
	seenMember := make(map[M]struct{}, len(rows))
	for _, row := range rows {
		if row.Position < 1 || row.Position > len(rows) || seenPos[row.Position] {
			return false
		}
		seenPos[row.Position] = true
		if _, dup := seenMember[row.Member]; dup {
			return false
		}
		seenMember[row.Member] = struct{}{}
	}
	return true
}
