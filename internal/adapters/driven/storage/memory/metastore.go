// Package memory provides in-memory store implementations, used by
// tests and available as a throwaway backend.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk // keyed by document hash
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores a document with its chunks atomically.
func (s *MetadataStore) SaveDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[doc.Hash]; exists {
		return domain.ErrDuplicateContent
	}

	s.documents[doc.Hash] = *doc

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Position < stored[j].Position
	})
	s.chunks[doc.Hash] = stored
	return nil
}

// GetDocument retrieves a document by content hash.
func (s *MetadataStore) GetDocument(_ context.Context, hash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a chunk by ID.
func (s *MetadataStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// GetChunks retrieves a document's chunks ordered by position.
func (s *MetadataStore) GetChunks(_ context.Context, hash string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.documents[hash]; !ok {
		return nil, domain.ErrNotFound
	}
	chunks := make([]domain.Chunk, len(s.chunks[hash]))
	copy(chunks, s.chunks[hash])
	return chunks, nil
}

// DeleteDocument removes a document and its chunks.
func (s *MetadataStore) DeleteDocument(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[hash]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, hash)
	delete(s.chunks, hash)
	return nil
}

// ListDocuments returns documents matching the filter in sorted order.
func (s *MetadataStore) ListDocuments(
	_ context.Context, filter domain.DocumentFilter, order domain.DocumentSort,
) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if !matches(doc, filter) {
			continue
		}
		result = append(result, doc)
	}

	sortDocuments(result, order)
	return result, nil
}

// ListDocumentHashes returns the set of stored document hashes.
func (s *MetadataStore) ListDocumentHashes(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hashes := make(map[string]struct{}, len(s.documents))
	for hash := range s.documents {
		hashes[hash] = struct{}{}
	}
	return hashes, nil
}

// Stats returns document and chunk counts.
func (s *MetadataStore) Stats(_ context.Context) (driven.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := driven.StoreStats{Documents: len(s.documents)}
	for _, chunks := range s.chunks {
		stats.Chunks += len(chunks)
	}
	return stats, nil
}

func matches(doc domain.Document, filter domain.DocumentFilter) bool {
	if filter.NameContains != "" &&
		!strings.Contains(strings.ToLower(doc.DisplayName), strings.ToLower(filter.NameContains)) {
		return false
	}
	if !filter.IngestedAfter.IsZero() && doc.IngestedAt.Before(filter.IngestedAfter) {
		return false
	}
	if !filter.IngestedBefore.IsZero() && doc.IngestedAt.After(filter.IngestedBefore) {
		return false
	}
	return true
}

func sortDocuments(docs []domain.Document, order domain.DocumentSort) {
	less := func(a, b domain.Document) bool {
		switch order.Field {
		case domain.SortBySize:
			return a.SizeBytes < b.SizeBytes
		case domain.SortByIngestedAt:
			return a.IngestedAt.Before(b.IngestedAt)
		default:
			return a.DisplayName < b.DisplayName
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if order.Descending {
			return less(docs[j], docs[i])
		}
		return less(docs[i], docs[j])
	})
}
