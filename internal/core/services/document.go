package services

import (
	"context"
	"fmt"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driving"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested documents.
type DocumentService struct {
	store    driven.MetadataStore
	vectors  driven.VectorIndex
	blobs    driven.BlobStore
	embedder driven.EmbeddingService
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	store driven.MetadataStore,
	vectors driven.VectorIndex,
	blobs driven.BlobStore,
	embedder driven.EmbeddingService,
) *DocumentService {
	return &DocumentService{
		store:    store,
		vectors:  vectors,
		blobs:    blobs,
		embedder: embedder,
	}
}

// List returns documents matching the filter in the requested order.
func (s *DocumentService) List(
	ctx context.Context, filter domain.DocumentFilter, sort domain.DocumentSort,
) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx, filter, sort)
}

// Get retrieves a document by content hash.
func (s *DocumentService) Get(ctx context.Context, hash string) (*domain.Document, error) {
	if hash == "" {
		return nil, fmt.Errorf("empty hash: %w", domain.ErrInvalidInput)
	}
	return s.store.GetDocument(ctx, hash)
}

// Delete removes a document everywhere it lives. Metadata goes first in
// one transaction; the vector entries and the blob follow. A vector hit
// that outlives its chunk is skipped at hydration, so the ordering
// cannot surface stale results.
func (s *DocumentService) Delete(ctx context.Context, hash string) error {
	if hash == "" {
		return fmt.Errorf("empty hash: %w", domain.ErrInvalidInput)
	}

	if err := s.store.DeleteDocument(ctx, hash); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	removed, err := s.vectors.DeleteByDocument(ctx, hash)
	if err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	logger.Debug("Removed %d vectors for %s", removed, hash)

	if err := s.blobs.Delete(ctx, hash); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	logger.Info("Deleted document %s", hash)
	return nil
}

// Stats reports knowledge base counters.
func (s *DocumentService) Stats(ctx context.Context) (*driving.KnowledgeStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}

	dims := 0
	if s.embedder != nil {
		dims = s.embedder.Dimensions()
	}

	return &driving.KnowledgeStats{
		Documents:  stats.Documents,
		Chunks:     stats.Chunks,
		Vectors:    s.vectors.Len(),
		Dimensions: dims,
	}, nil
}
