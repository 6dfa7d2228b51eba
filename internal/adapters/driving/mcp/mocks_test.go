package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/storage/memory"
	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/core/services"
)

// --- Mock implementations ---

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, m.err
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, m.err
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embedder" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

type mockVectorIndex struct {
	hits []driven.VectorHit
	err  error
}

func (m *mockVectorIndex) Insert(_ context.Context, _ []driven.VectorEntry) error { return nil }

func (m *mockVectorIndex) DeleteByDocument(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.hits) > k {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockVectorIndex) Reconcile(_ context.Context, _ map[string]struct{}) (int, error) {
	return 0, nil
}

func (m *mockVectorIndex) Len() int     { return len(m.hits) }
func (m *mockVectorIndex) Close() error { return nil }

type mockRecordSource struct {
	machines []domain.MachineRecord
	err      error
}

func (m *mockRecordSource) QueryMachines(_ context.Context, _ domain.RecordFilter) ([]domain.MachineRecord, error) {
	return m.machines, m.err
}

func (m *mockRecordSource) QueryLifetimes(_ context.Context, _ domain.RecordFilter) ([]domain.LifetimeRecord, error) {
	return nil, m.err
}

func (m *mockRecordSource) QueryInspections(_ context.Context, _ domain.RecordFilter) ([]domain.InspectionRecord, error) {
	return nil, m.err
}

func (m *mockRecordSource) Close() error { return nil }

// seedStore inserts one document with a single chunk and returns the
// metadata store and the chunk ID.
func seedStore(t *testing.T) (driven.MetadataStore, string) {
	t.Helper()

	store := memory.NewMetadataStore()
	doc := &domain.Document{
		Hash:        "aaaa111122223333aaaa111122223333aaaa111122223333aaaa111122223333",
		DisplayName: "manual.pdf",
		SizeBytes:   1024,
		PageCount:   1,
		IngestedAt:  time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}
	chunks := []domain.Chunk{{
		ID:           "chunk-0",
		DocumentHash: doc.Hash,
		Position:     0,
		Content:      "Track shoe wear limit is 25 millimetres.",
		Embedding:    []float32{0.1, 0.2, 0.3},
	}}
	require.NoError(t, store.SaveDocument(context.Background(), doc, chunks))
	return store, chunks[0].ID
}

// fusionWithoutEvidence builds a fusion engine whose sources never
// produce anything.
func fusionWithoutEvidence(t *testing.T) *services.ContextFusionEngine {
	t.Helper()

	return services.NewContextFusionEngine(
		&mockEmbedder{}, &mockVectorIndex{}, memory.NewMetadataStore(), nil,
		services.FusionConfig{},
	)
}

// newTestPorts builds a full Ports over in-memory fixtures.
func newTestPorts(t *testing.T) *Ports {
	t.Helper()

	store, chunkID := seedStore(t)
	vectors := &mockVectorIndex{hits: []driven.VectorHit{{
		ChunkID:      chunkID,
		DocumentHash: "aaaa111122223333aaaa111122223333aaaa111122223333aaaa111122223333",
		Similarity:   0.9,
	}}}

	retriever := services.NewStructuredRetriever(&mockRecordSource{
		machines: []domain.MachineRecord{{
			MachineID: 7, Serial: "ABC1234", Model: "PC210",
			Type: "excavator", Location: "Mining Site North", SMRHours: 4200,
		}},
	})

	fusion := services.NewContextFusionEngine(
		&mockEmbedder{}, vectors, store, retriever, services.FusionConfig{},
	)

	return &Ports{
		Fusion:   fusion,
		Records:  retriever,
		Document: services.NewDocumentService(store, vectors, nil, &mockEmbedder{}),
		Store:    store,
	}
}
