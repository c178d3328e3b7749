package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/src/internal/ordering"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "catalog.db")
	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func members(rows []ordering.Membership[string, string]) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Member
	}
	return out
}

func TestCommitAndReload(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)
	c, err := s.NewCatalog(ctx, false)
	require.NoError(t, err)

	rel := c.Relation(ordering.Creator)
	for _, a := range []string{"a1", "a2", "a3"} {
		_, err := rel.Append(ctx, "w1", a)
		require.NoError(t, err)
	}
	_, err = rel.Reorder(ctx, "w1", "a3", 1)
	require.NoError(t, err)
	require.NoError(t, rel.Remove(ctx, "w1", "a1"))
	_, err = c.Relation(ordering.Exemplifier).Append(ctx, "m1", "i1")
	require.NoError(t, err)

	stored, err := s.Members(ctx, ordering.Creator, "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2"}, members(stored))
	assert.True(t, ordering.Contiguous(stored))
	require.NoError(t, s.Close())

	s2, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()
	c2, err := s2.NewCatalog(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2"}, members(c2.Relation(ordering.Creator).Members("w1")))
	assert.Equal(t, []string{"i1"}, members(c2.Relation(ordering.Exemplifier).Members("m1")))
	assert.Equal(t, 0, c2.Relation(ordering.Producer).Len("m1"))
}

func TestFailedCommitKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	c, err := s.NewCatalog(ctx, false)
	require.NoError(t, err)
	rel := c.Relation(ordering.Producer)
	for _, a := range []string{"p1", "p2"} {
		_, err := rel.Append(ctx, "m1", a)
		require.NoError(t, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = rel.Reorder(cancelled, "m1", "p2", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ordering.ErrRenumbering))

	assert.Equal(t, []string{"p1", "p2"}, members(rel.Members("m1")))
	stored, err := s.Members(ctx, ordering.Producer, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, members(stored))
}

func TestRolesAreSeparate(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	create := s.Committer(ordering.Creator)
	produce := s.Committer(ordering.Producer)
	require.NoError(t, create.Commit(ctx, "x", nil, []string{"a", "b"}))
	require.NoError(t, produce.Commit(ctx, "x", nil, []string{"c"}))
	require.NoError(t, create.Commit(ctx, "x", []string{"a", "b"}, []string{"b"}))

	got, err := s.Members(ctx, ordering.Creator, "x")
	require.NoError(t, err)
	assert.Equal(t, []ordering.Membership[string, string]{{Scope: "x", Member: "b", Position: 1}}, got)
	got, err = s.Members(ctx, ordering.Producer, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, members(got))
}

func TestDuplicateRowsRejectedByTable(t *testing.T) {
	s, _ := openTemp(t)
	err := s.Committer(ordering.Creator).Commit(context.Background(), "x", nil, []string{"a", "a"})
	require.Error(t, err)
	got, err := s.Members(context.Background(), ordering.Creator, "x")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCommitRejectsStalePriorOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	create := s.Committer(ordering.Creator)
	require.NoError(t, create.Commit(ctx, "w1", nil, []string{"alice"}))

	err := create.Commit(ctx, "w1", nil, []string{"bob"})
	require.ErrorIs(t, err, ordering.ErrConflict)
	got, err := s.Members(ctx, ordering.Creator, "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, members(got))
}

func TestTwoHandlesKeepBothAppends(t *testing.T) {
	ctx := context.Background()
	a, path := openTemp(t)
	b, err := Open(ctx, path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	ca, err := a.NewCatalog(ctx, false)
	require.NoError(t, err)
	cb, err := b.NewCatalog(ctx, false)
	require.NoError(t, err)

	_, err = ca.Relation(ordering.Creator).Append(ctx, "w1", "alice")
	require.NoError(t, err)
	m, err := cb.Relation(ordering.Creator).Append(ctx, "w1", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Position)

	stored, err := a.Members(ctx, ordering.Creator, "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, members(stored))
	assert.True(t, ordering.Contiguous(stored))

	require.NoError(t, cb.Relation(ordering.Creator).Remove(ctx, "w1", "alice"))
	m, err = ca.Relation(ordering.Creator).Append(ctx, "w1", "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Position)
	stored, err = b.Members(ctx, ordering.Creator, "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, members(stored))
}

func TestIsSQLiteBusy(t *testing.T) {
	assert.False(t, isSQLiteBusy(nil))
	assert.True(t, isSQLiteBusy(errors.New("database is locked")))
	assert.False(t, isSQLiteBusy(errors.New("constraint failed")))
}
