package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/vector/flat"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

func TestBuildApp_DropsOrphanedVectorsOnStartup(t *testing.T) {
	dir := t.TempDir()

	// Leave an orphan behind, as a crash between a document delete and
	// its vector delete would.
	idx, err := flat.New(filepath.Join(dir, "vectors.idx"))
	require.NoError(t, err)
	require.NoError(t, idx.Insert(context.Background(), []driven.VectorEntry{
		{ChunkID: "orphan-chunk-0", DocumentHash: "deadbeef", Vector: []float32{1, 0}},
	}))
	require.NoError(t, idx.Close())

	oldConfigDir := configDir
	configDir = dir
	t.Cleanup(func() {
		closeApp()
		configDir = oldConfigDir
	})

	require.NoError(t, buildApp())

	// Startup already dropped the orphan, so there is nothing left for
	// an explicit reconcile to remove.
	removed, err := maintenanceSvc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	stats, err := documentService.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Vectors)
}
