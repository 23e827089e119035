package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegria/depotscan/internal/scm"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/test.db"

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestPassLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginPass(ctx, "pass-1", "main-line"))
	require.NoError(t, s.RecordObservation(ctx, "pass-1", 0, scm.NewHead("main", "//depot/main"), 150))
	require.NoError(t, s.RecordObservation(ctx, "pass-1", 1, scm.NewTagHead("rel1", "//depot/main", "100"), 100))
	require.NoError(t, s.FinishPass(ctx, "pass-1"))

	passes, err := s.LatestPasses(ctx, "main-line", 10)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, "pass-1", passes[0].ID)
	assert.True(t, passes[0].Finished)

	heads, err := s.Observations(ctx, "pass-1")
	require.NoError(t, err)
	require.Len(t, heads, 2)
	assert.Equal(t, "main", heads[0].Head.Name)
	assert.Equal(t, int64(150), heads[0].Change)
	assert.Equal(t, "rel1", heads[1].Head.Name)
	assert.Equal(t, "100", heads[1].Head.FixedRevision)
}

func TestBeginPass_DuplicateRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginPass(ctx, "pass-1", "src"))
	assert.Error(t, s.BeginPass(ctx, "pass-1", "src"))
}

func TestFinishPass_UnknownPass(t *testing.T) {
	s := setupTestStore(t)
	err := s.FinishPass(context.Background(), "nope")
	assert.ErrorContains(t, err, "unknown pass")
}

func TestLatestPasses_UnfinishedExcluded(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginPass(ctx, "pass-1", "src"))
	require.NoError(t, s.FinishPass(ctx, "pass-1"))
	require.NoError(t, s.BeginPass(ctx, "pass-2", "src"))

	passes, err := s.LatestPasses(ctx, "src", 10)
	require.NoError(t, err)
	require.Len(t, passes, 1, "a crashed scan never masquerades as a head set")
	assert.Equal(t, "pass-1", passes[0].ID)
}

func TestLatestPasses_NewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// UUIDv7-style tokens sort by creation time; plain strings keep the
	// same property in the test.
	for _, id := range []string{"pass-1", "pass-2", "pass-3"} {
		require.NoError(t, s.BeginPass(ctx, id, "src"))
		require.NoError(t, s.FinishPass(ctx, id))
	}

	passes, err := s.LatestPasses(ctx, "src", 2)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.Equal(t, "pass-3", passes[0].ID)
	assert.Equal(t, "pass-2", passes[1].ID)
}

func TestObservations_CannotOutlivePass(t *testing.T) {
	s := setupTestStore(t)
	err := s.RecordObservation(context.Background(), "ghost", 0, scm.NewHead("x", "//depot/x"), 1)
	assert.Error(t, err, "foreign key enforcement")
}

func obs(name, path string, change int64, seq int) ObservedHead {
	return ObservedHead{Head: scm.NewHead(name, path), Change: change, Seq: seq}
}

func TestDiff(t *testing.T) {
	older := []ObservedHead{
		obs("main", "//depot/main", 100, 0),
		obs("dev", "//depot/dev", 90, 1),
		obs("gone", "//depot/gone", 50, 2),
	}
	newer := []ObservedHead{
		obs("main", "//depot/main", 150, 0),
		obs("dev", "//depot/dev", 90, 1),
		obs("fresh", "//depot/fresh", 10, 2),
	}

	d := Diff(older, newer)

	require.Len(t, d.Added, 1)
	assert.Equal(t, "fresh", d.Added[0].Head.Name)

	require.Len(t, d.Updated, 1)
	assert.Equal(t, "main", d.Updated[0].Current.Head.Name)
	assert.Equal(t, int64(100), d.Updated[0].PrevChange)
	assert.Equal(t, int64(150), d.Updated[0].Current.Change)

	require.Len(t, d.Removed, 1)
	assert.Equal(t, "gone", d.Removed[0].Head.Name)

	assert.False(t, d.Empty())
}

func TestDiff_NoChanges(t *testing.T) {
	set := []ObservedHead{obs("main", "//depot/main", 100, 0)}
	assert.True(t, Diff(set, set).Empty())
}

func TestDiff_EmptySides(t *testing.T) {
	set := []ObservedHead{obs("main", "//depot/main", 100, 0)}

	d := Diff(nil, set)
	assert.Len(t, d.Added, 1)

	d = Diff(set, nil)
	assert.Len(t, d.Removed, 1)
}
