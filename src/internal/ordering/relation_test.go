package ordering

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(r *Relation[string, string], scope string) []string {
	var out []string
	for _, m := range r.Members(scope) {
		out = append(out, m.Member)
	}
	return out
}

func TestAppendAssignsNextPosition(t *testing.T) {
	ctx := context.Background()
	r := New[string, string](nil, Options{})
	m, err := r.Append(ctx, "w1", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position)
	m, err = r.Append(ctx, "w1", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Position)
	m, err = r.Append(ctx, "w2", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position, "scopes are independent")
	assert.True(t, r.Validate("w1"))
	assert.Equal(t, 2, r.Len("w1"))
}

func TestAppendDuplicateLeavesOrder(t *testing.T) {
	ctx := context.Background()
	r := New[string, string](nil, Options{})
	_, err := r.Append(ctx, "w1", "a")
	require.NoError(t, err)
	_, err = r.Append(ctx, "w1", "b")
	require.NoError(t, err)
	_, err = r.Append(ctx, "w1", "a")
	require.ErrorIs(t, err, ErrDuplicateMember)
	assert.Equal(t, []string{"a", "b"}, order(r, "w1"))
}

func TestRemoveClosesGap(t *testing.T) {
	ctx := context.Background()
	r := New[string, string](nil, Options{})
	for _, m := range []string{"a", "b", "c", "d"} {
		_, err := r.Append(ctx, "w", m)
		require.NoError(t, err)
	}
	require.NoError(t, r.Remove(ctx, "w", "b"))
	assert.Equal(t, []string{"a", "c", "d"}, order(r, "w"))
	pos, ok := r.Position("w", "d")
	require.True(t, ok)
	assert.Equal(t, 3, pos)
	assert.ErrorIs(t, r.Remove(ctx, "w", "b"), ErrNotMember)
	assert.True(t, r.Validate("w"))
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	r := New[string, string](nil, Options{})
	for _, m := range []string{"a", "b", "c", "d"} {
		_, err := r.Append(ctx, "w", m)
		require.NoError(t, err)
	}
	m, err := r.Reorder(ctx, "w", "d", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Position)
	assert.Equal(t, []string{"a", "d", "b", "c"}, order(r, "w"))

	m, err = r.Reorder(ctx, "w", "a", 99)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Position, "clamped to the end")
	assert.Equal(t, []string{"d", "b", "c", "a"}, order(r, "w"))

	m, err = r.Reorder(ctx, "w", "c", -3)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position, "clamped to the front")
	assert.Equal(t, []string{"c", "d", "b", "a"}, order(r, "w"))

	_, err = r.Reorder(ctx, "w", "zz", 1)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestCommitFailureKeepsPreviousOrder(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	fail := false
	var committed [][]string
	r := New[string, string](CommitFunc[string, string](func(_ context.Context, _ string, _, ms []string) error {
		if fail {
			return boom
		}
		committed = append(committed, ms)
		return nil
	}), Options{})
	for _, m := range []string{"a", "b", "c"} {
		_, err := r.Append(ctx, "w", m)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c"}, committed[len(committed)-1])

	fail = true
	_, err := r.Reorder(ctx, "w", "c", 1)
	require.ErrorIs(t, err, ErrRenumbering)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b", "c"}, order(r, "w"))

	assert.ErrorIs(t, r.Remove(ctx, "w", "a"), ErrRenumbering)
	assert.Equal(t, []string{"a", "b", "c"}, order(r, "w"))

	_, err = r.Append(ctx, "w", "d")
	assert.ErrorIs(t, err, ErrRenumbering)
	assert.Equal(t, 3, r.Len("w"))

	assert.ErrorIs(t, r.DropScope(ctx, "w"), ErrRenumbering)
	assert.Equal(t, 3, r.Len("w"))
}

func TestRandomOperationsKeepPositionsContiguous(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	r := New[string, string](nil, Options{})
	scopes := []string{"w1", "w2", "w3"}
	for i := 0; i < 2000; i++ {
		scope := scopes[rng.Intn(len(scopes))]
		member := fmt.Sprintf("agent-%d", rng.Intn(12))
		switch rng.Intn(3) {
		case 0:
			_, err := r.Append(ctx, scope, member)
			if err != nil {
				require.ErrorIs(t, err, ErrDuplicateMember)
			}
		case 1:
			err := r.Remove(ctx, scope, member)
			if err != nil {
				require.ErrorIs(t, err, ErrNotMember)
			}
		case 2:
			_, err := r.Reorder(ctx, scope, member, rng.Intn(16)-2)
			if err != nil {
				require.ErrorIs(t, err, ErrNotMember)
			}
		}
		require.True(t, r.Validate(scope), "step %d scope %s: %v", i, scope, r.Members(scope))
	}
}

func TestConcurrentAppendsToOneScope(t *testing.T) {
	ctx := context.Background()
	r := New[string, string](nil, Options{})
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = r.Append(ctx, "w", fmt.Sprintf("a%d", i%32))
			_, _ = r.Append(ctx, fmt.Sprintf("other-%d", i%4), "x")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 32, r.Len("w"))
	assert.True(t, r.Validate("w"))
	assert.Empty(t, r.locks, "scope locks are dropped once released")
	for i := 0; i < 4; i++ {
		assert.Equal(t, 1, r.Len(fmt.Sprintf("other-%d", i)))
	}
}

func TestExclusiveAndMaxPerScope(t *testing.T) {
	ctx := context.Background()
	r := New[string, string](nil, Options{MaxPerScope: 1, Exclusive: true})
	_, err := r.Append(ctx, "m1", "item1")
	require.NoError(t, err)
	_, err = r.Append(ctx, "m1", "item2")
	assert.ErrorIs(t, err, ErrCardinality)
	_, err = r.Append(ctx, "m2", "item1")
	assert.ErrorIs(t, err, ErrCardinality)

	require.NoError(t, r.Remove(ctx, "m1", "item1"))
	_, err = r.Append(ctx, "m2", "item1")
	assert.NoError(t, err, "released after removal")
}

func TestExclusiveReleasedOnFailedCommit(t *testing.T) {
	ctx := context.Background()
	fail := true
	r := New[string, string](CommitFunc[string, string](func(context.Context, string, []string, []string) error {
		if fail {
			return errors.New("nope")
		}
		return nil
	}), Options{Exclusive: true})
	_, err := r.Append(ctx, "m1", "item1")
	require.ErrorIs(t, err, ErrRenumbering)
	fail = false
	_, err = r.Append(ctx, "m2", "item1")
	assert.NoError(t, err)
}

func TestLoadAndDrop(t *testing.T) {
	ctx := context.Background()
	r := New[string, string](nil, Options{})
	require.NoError(t, r.Load("w1", []string{"a", "b", "c"}))
	require.NoError(t, r.Load("w2", []string{"c", "a"}))
	assert.ErrorIs(t, r.Load("w3", []string{"a", "a"}), ErrDuplicateMember)

	assert.ElementsMatch(t, []string{"w1", "w2"}, r.ScopesOf("a"))
	require.NoError(t, r.DropMember(ctx, "a"))
	assert.Equal(t, []string{"b", "c"}, order(r, "w1"))
	assert.Equal(t, []string{"c"}, order(r, "w2"))

	require.NoError(t, r.DropScope(ctx, "w1"))
	assert.Equal(t, 0, r.Len("w1"))
	assert.ElementsMatch(t, []string{"w2"}, r.Scopes())
	require.NoError(t, r.DropScope(ctx, "missing"))
}

func TestContiguous(t *testing.T) {
	rows := []Membership[int, int]{{1, 10, 2}, {1, 11, 1}, {1, 12, 3}}
	assert.True(t, Contiguous(rows))
	assert.False(t, Contiguous([]Membership[int, int]{{1, 10, 1}, {1, 11, 3}}), "gap")
	assert.False(t, Contiguous([]Membership[int, int]{{1, 10, 1}, {1, 11, 1}}), "duplicate position")
	assert.False(t, Contiguous([]Membership[int, int]{{1, 10, 1}, {1, 10, 2}}), "duplicate member")
	assert.True(t, Contiguous[int, int](nil))
}

// sharedStore stands in for storage written by several relations.
type sharedStore struct {
	mu     sync.Mutex
	scopes map[string][]string
}

func (s *sharedStore) Commit(_ context.Context, scope string, prev, next []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Equal(s.scopes[scope], prev) {
		return fmt.Errorf("%w: %s", ErrConflict, scope)
	}
	s.scopes[scope] = next
	return nil
}

func (s *sharedStore) Current(_ context.Context, scope string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.scopes[scope]), nil
}

func TestStaleRelationReappliesAfterConflict(t *testing.T) {
	ctx := context.Background()
	store := &sharedStore{scopes: map[string][]string{}}
	a := New[string, string](store, Options{})
	b := New[string, string](store, Options{})

	_, err := a.Append(ctx, "w1", "alice")
	require.NoError(t, err)
	m, err := b.Append(ctx, "w1", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Position)
	assert.Equal(t, []string{"alice", "bob"}, store.scopes["w1"])
	assert.Equal(t, []string{"alice", "bob"}, order(b, "w1"))

	_, err = a.Append(ctx, "w1", "bob")
	require.ErrorIs(t, err, ErrDuplicateMember, "a sees bob after reloading")
	assert.Equal(t, []string{"alice", "bob"}, order(a, "w1"))

	require.NoError(t, b.Remove(ctx, "w1", "alice"))
	m, err = a.Reorder(ctx, "w1", "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position)
	assert.Equal(t, []string{"bob"}, store.scopes["w1"])
	assert.Empty(t, a.locks)
}

func TestConflictWithoutReaderIsReported(t *testing.T) {
	ctx := context.Background()
	r := New[string, string](CommitFunc[string, string](func(context.Context, string, []string, []string) error {
		return ErrConflict
	}), Options{Exclusive: true})
	_, err := r.Append(ctx, "m1", "i1")
	require.ErrorIs(t, err, ErrRenumbering)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 0, r.Len("m1"))
	assert.Empty(t, r.owners)
}

func TestExclusiveOwnerFollowsStorageOnRefresh(t *testing.T) {
	ctx := context.Background()
	store := &sharedStore{scopes: map[string][]string{}}
	a := New[string, string](store, Options{Exclusive: true})
	b := New[string, string](store, Options{Exclusive: true})

	_, err := a.Append(ctx, "m1", "i1")
	require.NoError(t, err)
	_, err = b.Append(ctx, "m1", "i2")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "i2"}, order(b, "m1"))
	_, err = b.Append(ctx, "m2", "i1")
	assert.ErrorIs(t, err, ErrCardinality, "i1 is owned by m1 after the refresh")
}
