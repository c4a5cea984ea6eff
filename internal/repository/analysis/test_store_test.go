package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
)

func record(project, run string) Record {
	return Record{
		ProjectID:  project,
		RunID:      run,
		AnalyzedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Result: artifact.AnalysisResult{
			Project:     project,
			Files:       []string{"Code.gs"},
			LinesOfCode: 12,
			Complexity:  artifact.ComplexityLow,
			Invocation:  artifact.InvocationManual,
			Functions:   []artifact.FunctionRecord{{Name: "run", File: "Code.gs", Parameters: []string{}, IsPublic: true}},
		},
	}
}

// exerciseStore runs the shared contract against any backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, record("b", "run-1")))
	require.NoError(t, s.Put(ctx, record("a", "run-1")))
	require.NoError(t, s.Put(ctx, record("b", "run-2")))

	got, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, 12, got.Result.LinesOfCode)
	assert.Equal(t, "run", got.Result.Functions[0].Name)
	assert.True(t, got.AnalyzedAt.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ProjectID)
	assert.Equal(t, "b", list[1].ProjectID)

	assert.Error(t, s.Put(ctx, Record{RunID: "x"}))
	assert.Error(t, s.Put(ctx, Record{ProjectID: "x"}))
	_, err = s.Get(ctx, " ")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	st, err := OpenSQL(DialectSQLite, filepath.Join(t.TempDir(), "analyses.db"))
	require.NoError(t, err)
	defer st.Close()
	exerciseStore(t, st)
}

func TestSQLiteSchemaIgnoresFirstCallerCancel(t *testing.T) {
	st, err := OpenSQL(DialectSQLite, filepath.Join(t.TempDir(), "analyses.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, st.Put(ctx, record("a", "run-1")))

	require.NoError(t, st.Put(context.Background(), record("a", "run-1")))
	got, err := st.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
}

func TestPlaceholderRewrite(t *testing.T) {
	lite := &SQLStore{dialect: DialectSQLite}
	assert.Equal(t, "a=? AND b=? AND c='$x'", lite.q("a=$1 AND b=$12 AND c='$x'"))
	pg := &SQLStore{dialect: DialectPostgres}
	assert.Equal(t, "a=$1", pg.q("a=$1"))
}

func TestCachedStore(t *testing.T) {
	origin := NewMemoryStore()
	c := NewCachedStore(origin, CacheConfig{})
	exerciseStore(t, c)

	ctx := context.Background()
	before := c.Metrics()
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	after := c.Metrics()
	assert.Equal(t, before.Hits+1, after.Hits)
	assert.Equal(t, before.Misses+1, after.Misses)

	// a write invalidates the cached copy
	require.NoError(t, c.Put(ctx, record("a", "run-9")))
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "run-9", got.RunID)

	_, err = c.List(ctx)
	require.NoError(t, err)
	_, err = c.List(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c.Metrics().ListHits, uint64(1))
}

func TestCachedStoreHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	c := NewCachedStore(NewMemoryStore(), DefaultCacheConfig())
	require.NoError(t, c.Put(ctx, record("a", "run-1")))

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	hit, err := c.Get(ctx, "a")
	require.NoError(t, err)
	hit.Result.Functions[0].Name = "mutated"
	hit.Result.Files[0] = "Other.gs"

	again, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "run", again.Result.Functions[0].Name)
	assert.Equal(t, "Code.gs", again.Result.Files[0])
	assert.Equal(t, uint64(2), c.Metrics().Hits)

	_, err = c.List(ctx)
	require.NoError(t, err)
	list, err := c.List(ctx)
	require.NoError(t, err)
	list[0].Result.Functions[0].Name = "mutated"
	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run", list[0].Result.Functions[0].Name)
}

type failingStore struct{ *MemoryStore }

func (f *failingStore) Put(context.Context, Record) error { return errors.New("disk full") }

func TestCachedStoreCountsWriteErrors(t *testing.T) {
	c := NewCachedStore(&failingStore{NewMemoryStore()}, DefaultCacheConfig())
	err := c.Put(context.Background(), record("a", "r"))
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, uint64(1), c.Metrics().OriginWriteErr)
}

func TestOpenChoosesBackend(t *testing.T) {
	st, closer, err := Open(&config.Config{}, nil)
	require.NoError(t, err)
	defer closer.Close()
	_, ok := st.(*CachedStore)
	assert.True(t, ok)
	_, isMem := st.(*CachedStore).origin.(*MemoryStore)
	assert.True(t, isMem)

	st, closer, err = Open(&config.Config{Store: config.StoreConfig{SQLitePath: filepath.Join(t.TempDir(), "x.db")}}, nil)
	require.NoError(t, err)
	defer closer.Close()
	_, isSQL := st.(*CachedStore).origin.(*SQLStore)
	assert.True(t, isSQL)

	_, _, err = Open(nil, nil)
	assert.Error(t, err)
}
