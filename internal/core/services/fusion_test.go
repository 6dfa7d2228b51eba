package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/storage/memory"
	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// seedDocument stores a document with one chunk per given text and
// returns the chunk IDs.
func seedDocument(t *testing.T, store *memory.MetadataStore, hash, name string, texts ...string) []string {
	t.Helper()

	chunks := make([]domain.Chunk, len(texts))
	ids := make([]string, len(texts))
	for i, text := range texts {
		id := fmt.Sprintf("%s-chunk-%d", hash, i)
		chunks[i] = domain.Chunk{
			ID:           id,
			DocumentHash: hash,
			Position:     i,
			Content:      text,
			Embedding:    []float32{0.1, 0.2, 0.3},
		}
		ids[i] = id
	}

	err := store.SaveDocument(context.Background(), &domain.Document{
		Hash:        hash,
		DisplayName: name,
	}, chunks)
	require.NoError(t, err)
	return ids
}

func TestBuildContext_MergesBothSources(t *testing.T) {
	store := memory.NewMetadataStore()
	ids := seedDocument(t, store, "aaaa1111", "manual.pdf",
		"Track tension must be checked weekly.")

	vectors := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: ids[0], DocumentHash: "aaaa1111", Similarity: 0.9},
	}}
	source := &mockRecordSource{machines: []domain.MachineRecord{
		{MachineID: 7, Serial: "ABC1234", Model: "PC210", Location: "North Mine"},
	}}

	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, vectors, store,
		NewStructuredRetriever(source), FusionConfig{},
	)

	block, err := engine.BuildContext(context.Background(), "track tension for machine ABC1234")
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.True(t, block.Grounded)
	require.Len(t, block.Items, 2)

	// Exact serial match (1.0) outranks the 0.9 similarity chunk.
	assert.Equal(t, domain.SourceTable, block.Items[0].Source.Type)
	assert.Equal(t, domain.SourceDocument, block.Items[1].Source.Type)

	// Both provenance tags appear in the rendered block.
	assert.Contains(t, block.Rendered, `[machine_tracking 7]`)
	assert.Contains(t, block.Rendered, `[doc "manual.pdf" chunk 0]`)
	assert.Contains(t, block.Rendered, "Track tension must be checked weekly.")
}

func TestBuildContext_BudgetSkipsOversizedItems(t *testing.T) {
	store := memory.NewMetadataStore()
	big := strings.Repeat("x", 500)
	small := "short chunk"
	ids := seedDocument(t, store, "bbbb2222", "doc.pdf", big, small)

	vectors := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: ids[0], DocumentHash: "bbbb2222", Similarity: 0.9},
		{ChunkID: ids[1], DocumentHash: "bbbb2222", Similarity: 0.8},
	}}

	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, vectors, store, nil,
		FusionConfig{Budget: 100},
	)

	block, err := engine.BuildContext(context.Background(), "anything")
	require.NoError(t, err)

	// The big chunk does not fit; packing continues with the small one.
	require.Len(t, block.Items, 1)
	assert.Equal(t, small, block.Items[0].Text)
	assert.LessOrEqual(t, len(block.Rendered), 100)
}

func TestBuildContext_DegradesWhenVectorsFail(t *testing.T) {
	vectors := &mockVectorIndex{searchErr: errors.New("index corrupt")}
	source := &mockRecordSource{machines: []domain.MachineRecord{
		{MachineID: 1, Serial: "ABC1234"},
	}}

	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, vectors, memory.NewMetadataStore(),
		NewStructuredRetriever(source), FusionConfig{},
	)

	block, err := engine.BuildContext(context.Background(), "machine ABC1234")
	require.NoError(t, err)
	assert.True(t, block.Grounded)
	require.Len(t, block.Items, 1)
	assert.Equal(t, domain.SourceTable, block.Items[0].Source.Type)
}

func TestBuildContext_DegradesWhenRecordsFail(t *testing.T) {
	store := memory.NewMetadataStore()
	ids := seedDocument(t, store, "cccc3333", "doc.pdf", "relevant text")

	vectors := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: ids[0], DocumentHash: "cccc3333", Similarity: 0.9},
	}}
	source := &mockRecordSource{queryErr: errors.New("database locked")}

	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, vectors, store,
		NewStructuredRetriever(source), FusionConfig{},
	)

	block, err := engine.BuildContext(context.Background(), "machine ABC1234 details")
	require.NoError(t, err)
	assert.True(t, block.Grounded)
	require.Len(t, block.Items, 1)
	assert.Equal(t, domain.SourceDocument, block.Items[0].Source.Type)
}

func TestBuildContext_BothSourcesFail(t *testing.T) {
	vectors := &mockVectorIndex{searchErr: errors.New("index corrupt")}
	source := &mockRecordSource{queryErr: errors.New("database locked")}

	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, vectors, memory.NewMetadataStore(),
		NewStructuredRetriever(source), FusionConfig{},
	)

	_, err := engine.BuildContext(context.Background(), "machine ABC1234")
	require.Error(t, err)
}

func TestBuildContext_SkipsStaleHits(t *testing.T) {
	store := memory.NewMetadataStore()
	ids := seedDocument(t, store, "dddd4444", "doc.pdf", "live chunk")

	// The second hit references a chunk that no longer exists.
	vectors := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: ids[0], DocumentHash: "dddd4444", Similarity: 0.9},
		{ChunkID: "deleted-chunk", DocumentHash: "gone", Similarity: 0.95},
	}}

	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, vectors, store, nil, FusionConfig{},
	)

	block, err := engine.BuildContext(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, block.Items, 1)
	assert.Equal(t, "live chunk", block.Items[0].Text)
}

func TestBuildContext_MinSimilarityFilter(t *testing.T) {
	store := memory.NewMetadataStore()
	ids := seedDocument(t, store, "eeee5555", "doc.pdf", "strong match", "weak match")

	vectors := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: ids[0], DocumentHash: "eeee5555", Similarity: 0.8},
		{ChunkID: ids[1], DocumentHash: "eeee5555", Similarity: 0.2},
	}}

	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, vectors, store, nil,
		FusionConfig{MinSimilarity: 0.5},
	)

	block, err := engine.BuildContext(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, block.Items, 1)
	assert.Equal(t, "strong match", block.Items[0].Text)
}

func TestBuildContext_NothingFound(t *testing.T) {
	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, &mockVectorIndex{}, memory.NewMetadataStore(),
		nil, FusionConfig{},
	)

	block, err := engine.BuildContext(context.Background(), "no matches anywhere")
	require.NoError(t, err)
	assert.False(t, block.Grounded)
	assert.Empty(t, block.Items)
	assert.Empty(t, block.Rendered)
}

func TestBuildContext_StructuredWeight(t *testing.T) {
	store := memory.NewMetadataStore()
	ids := seedDocument(t, store, "ffff6666", "doc.pdf", "doc text")

	vectors := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: ids[0], DocumentHash: "ffff6666", Similarity: 0.9},
	}}
	source := &mockRecordSource{machines: []domain.MachineRecord{
		{MachineID: 1, Serial: "ABC1234"},
	}}

	// Downweighted table evidence falls below the 0.9 chunk.
	engine := NewContextFusionEngine(
		&mockEmbeddingService{}, vectors, store,
		NewStructuredRetriever(source),
		FusionConfig{StructuredWeight: 0.5},
	)

	block, err := engine.BuildContext(context.Background(), "machine ABC1234")
	require.NoError(t, err)
	require.Len(t, block.Items, 2)
	assert.Equal(t, domain.SourceDocument, block.Items[0].Source.Type)
	assert.InDelta(t, 0.5, block.Items[1].Score, 1e-9)
}
