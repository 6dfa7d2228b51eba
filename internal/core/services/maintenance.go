package services

import (
	"context"
	"fmt"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// MaintenanceService repairs the vector index against the metadata
// store, which is the source of truth for what exists.
type MaintenanceService struct {
	store   driven.MetadataStore
	vectors driven.VectorIndex
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(store driven.MetadataStore, vectors driven.VectorIndex) *MaintenanceService {
	return &MaintenanceService{store: store, vectors: vectors}
}

// Reconcile drops vector entries whose document no longer exists in the
// metadata store and returns how many were removed.
func (s *MaintenanceService) Reconcile(ctx context.Context) (int, error) {
	valid, err := s.store.ListDocumentHashes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list document hashes: %w", err)
	}

	removed, err := s.vectors.Reconcile(ctx, valid)
	if err != nil {
		return 0, fmt.Errorf("reconcile index: %w", err)
	}

	if removed > 0 {
		logger.Info("Reconcile: dropped %d orphaned vectors", removed)
	}
	return removed, nil
}

// Rebuild repopulates the vector index from the embeddings persisted
// alongside the chunks. It is the recovery path for a corrupt or lost
// index file.
func (s *MaintenanceService) Rebuild(ctx context.Context) (int, error) {
	docs, err := s.store.ListDocuments(ctx, domain.DocumentFilter{}, domain.DocumentSort{})
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	total := 0
	for _, doc := range docs {
		chunks, err := s.store.GetChunks(ctx, doc.Hash)
		if err != nil {
			return total, fmt.Errorf("get chunks for %s: %w", doc.Hash, err)
		}

		entries := make([]driven.VectorEntry, 0, len(chunks))
		for _, ch := range chunks {
			if len(ch.Embedding) == 0 {
				continue
			}
			entries = append(entries, driven.VectorEntry{
				ChunkID:      ch.ID,
				DocumentHash: ch.DocumentHash,
				Vector:       ch.Embedding,
			})
		}
		if len(entries) == 0 {
			continue
		}

		if err := s.vectors.Insert(ctx, entries); err != nil {
			return total, fmt.Errorf("insert vectors for %s: %w", doc.Hash, err)
		}
		total += len(entries)
	}

	logger.Info("Rebuild: indexed %d vectors from %d documents", total, len(docs))
	return total, nil
}
