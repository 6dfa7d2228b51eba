package flat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.idx")
	idx, err := New(path)
	require.NoError(t, err)
	return idx, path
}

func entriesFixture() []driven.VectorEntry {
	return []driven.VectorEntry{
		{ChunkID: "c1", DocumentHash: "doc-a", Vector: []float32{1, 0, 0}},
		{ChunkID: "c2", DocumentHash: "doc-a", Vector: []float32{0, 1, 0}},
		{ChunkID: "c3", DocumentHash: "doc-b", Vector: []float32{0.9, 0.1, 0}},
	}
}

func TestIndex_InsertAndSearch(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, entriesFixture()))
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 3, idx.Dimension())

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "c3", hits[1].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestIndex_SearchTiesKeepInsertionOrder(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "first", DocumentHash: "d", Vector: []float32{1, 0}},
		{ChunkID: "second", DocumentHash: "d", Vector: []float32{2, 0}}, // same direction
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].ChunkID)
	assert.Equal(t, "second", hits[1].ChunkID)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, entriesFixture()))

	err := idx.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "c4", DocumentHash: "doc-c", Vector: []float32{1, 2}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = idx.Search(ctx, []float32{1, 2}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_DeleteByDocument(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, entriesFixture()))

	removed, err := idx.DeleteByDocument(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c3", hits[0].ChunkID)

	removed, err = idx.DeleteByDocument(ctx, "doc-a")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestIndex_Reconcile(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, entriesFixture()))

	removed, err := idx.Reconcile(ctx, map[string]struct{}{"doc-b": {}})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	idx, path := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, entriesFixture()))
	require.NoError(t, idx.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Len())
	assert.Equal(t, 3, reopened.Dimension())

	hits, err := reopened.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChunkID)
}

func TestIndex_CorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.idx")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0o644))

	_, err := New(path)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestIndex_FailedSaveRollsBackReplacements(t *testing.T) {
	idx, path := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, entriesFixture()))

	// Squat on the temp file path so the next snapshot write fails.
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	err := idx.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "c1", DocumentHash: "doc-a", Vector: []float32{0, 0, 1}}, // replaces
		{ChunkID: "c4", DocumentHash: "doc-c", Vector: []float32{0, 1, 1}}, // appends
	})
	require.Error(t, err)

	// Memory matches the snapshot on disk: the append is gone and the
	// replaced entry holds its original vector.
	assert.Equal(t, 3, idx.Len())
	hits, searchErr := idx.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, searchErr)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)

	// Once the path clears, inserts work again.
	require.NoError(t, os.Remove(path+".tmp"))
	require.NoError(t, idx.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "c4", DocumentHash: "doc-c", Vector: []float32{0, 1, 1}},
	}))
	assert.Equal(t, 4, idx.Len())
}

func TestIndex_ReplaceExistingChunk(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, entriesFixture()))
	require.NoError(t, idx.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "c1", DocumentHash: "doc-a", Vector: []float32{0, 0, 1}},
	}))

	assert.Equal(t, 3, idx.Len())
	hits, err := idx.Search(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "c1", hits[0].ChunkID)
}
