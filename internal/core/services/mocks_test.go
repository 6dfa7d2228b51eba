package services

import (
	"context"
	"fmt"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding  []float32
	embedErr   error
	dims       int
	batchCalls int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.vector()
	}
	return result, nil
}

func (m *mockEmbeddingService) vector() []float32 {
	if m.embedding != nil {
		return m.embedding
	}
	return []float32{0.1, 0.2, 0.3}
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 3
}

func (m *mockEmbeddingService) ModelName() string { return "mock-embedder" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	entries   []driven.VectorEntry
	hits      []driven.VectorHit
	insertErr error
	searchErr error
	deleteErr error
}

func (m *mockVectorIndex) Insert(_ context.Context, entries []driven.VectorEntry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockVectorIndex) DeleteByDocument(_ context.Context, documentHash string) (int, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if e.DocumentHash == documentHash {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Reconcile(_ context.Context, valid map[string]struct{}) (int, error) {
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if _, ok := valid[e.DocumentHash]; !ok {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

func (m *mockVectorIndex) Len() int { return len(m.entries) }

func (m *mockVectorIndex) Close() error { return nil }

// mockBlobStore implements driven.BlobStore for testing.
type mockBlobStore struct {
	blobs     map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(_ context.Context, hash string, content []byte) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	m.blobs[hash] = content
	return "mock://" + hash, nil
}

func (m *mockBlobStore) Get(_ context.Context, hash string) ([]byte, error) {
	content, ok := m.blobs[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return content, nil
}

func (m *mockBlobStore) Delete(_ context.Context, hash string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, hash)
	delete(m.blobs, hash)
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	reply    string
	chatErr  error
	messages []driven.ChatMessage
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.messages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// mockRecordSource implements driven.RecordSource for testing.
type mockRecordSource struct {
	machines    []domain.MachineRecord
	lifetimes   []domain.LifetimeRecord
	inspections []domain.InspectionRecord
	queryErr    error
}

func (m *mockRecordSource) QueryMachines(_ context.Context, _ domain.RecordFilter) ([]domain.MachineRecord, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.machines, nil
}

func (m *mockRecordSource) QueryLifetimes(_ context.Context, _ domain.RecordFilter) ([]domain.LifetimeRecord, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.lifetimes, nil
}

func (m *mockRecordSource) QueryInspections(_ context.Context, _ domain.RecordFilter) ([]domain.InspectionRecord, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.inspections, nil
}

func (m *mockRecordSource) Close() error { return nil }

// mockRegistry implements driven.ExtractorRegistry for testing.
type mockRegistry struct {
	segments   []domain.Segment
	extractErr error
}

func (m *mockRegistry) Extract(_ context.Context, _ string, _ []byte) ([]domain.Segment, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.segments, nil
}

func (m *mockRegistry) Register(_ driven.Extractor) {}

func (m *mockRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

// stubChunker produces one chunk per segment with predictable IDs.
type stubChunker struct{}

func (stubChunker) Split(docHash string, segments []domain.Segment) []domain.Chunk {
	chunks := make([]domain.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = domain.Chunk{
			ID:           fmt.Sprintf("%s-chunk-%d", docHash[:8], i),
			DocumentHash: docHash,
			Position:     i,
			Segment:      seg.Index,
			EndOffset:    len([]rune(seg.Text)),
			Content:      seg.Text,
		}
	}
	return chunks
}
