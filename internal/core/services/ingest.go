package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driving"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// embedBatchSize is the number of chunks sent per embedding request.
const embedBatchSize = 32

// embedConcurrency is the number of embedding requests in flight.
const embedConcurrency = 4

// Chunker splits extracted segments into chunks.
type Chunker interface {
	Split(docHash string, segments []domain.Segment) []domain.Chunk
}

// IngestionService runs the document ingestion pipeline: hash, dedup,
// extract, chunk, embed, persist, index.
type IngestionService struct {
	registry driven.ExtractorRegistry
	chunker  Chunker
	embedder driven.EmbeddingService
	store    driven.MetadataStore
	vectors  driven.VectorIndex
	blobs    driven.BlobStore

	// inFlight guards against concurrent uploads of identical content
	// racing past the store-level dedup check.
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	registry driven.ExtractorRegistry,
	chunker Chunker,
	embedder driven.EmbeddingService,
	store driven.MetadataStore,
	vectors driven.VectorIndex,
	blobs driven.BlobStore,
) *IngestionService {
	return &IngestionService{
		registry: registry,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		vectors:  vectors,
		blobs:    blobs,
		inFlight: make(map[string]struct{}),
	}
}

// Ingest processes raw document bytes end to end. Byte-identical content
// is detected by SHA-256 and rejected with domain.ErrDuplicateContent,
// returning the already-stored document. Failure at any stage leaves the
// knowledge base unchanged.
func (s *IngestionService) Ingest(
	ctx context.Context, content []byte, displayName, mimeType string,
) (*domain.Document, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty content: %w", domain.ErrInvalidInput)
	}
	if displayName == "" {
		return nil, fmt.Errorf("empty display name: %w", domain.ErrInvalidInput)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	logger.Section("Ingestion")
	logger.Debug("Document %q: %d bytes, hash %s", displayName, len(content), hash)

	if !s.claim(hash) {
		// Identical content is being ingested right now. The first
		// upload wins; report this one as a duplicate.
		existing, _ := s.store.GetDocument(ctx, hash)
		return existing, fmt.Errorf("ingest %q: %w", displayName, domain.ErrDuplicateContent)
	}
	defer s.release(hash)

	// Fast path dedup before any expensive work.
	existing, err := s.store.GetDocument(ctx, hash)
	if err == nil {
		logger.Info("Duplicate content: already stored as %q", existing.DisplayName)
		return existing, fmt.Errorf("ingest %q: %w", displayName, domain.ErrDuplicateContent)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("dedup check: %w", err)
	}

	segments, err := s.registry.Extract(ctx, mimeType, content)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", displayName, err)
	}
	logger.Debug("Extracted %d segments", len(segments))

	chunks := s.chunker.Split(hash, segments)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks from %q: %w", displayName, domain.ErrCorruptInput)
	}
	logger.Debug("Split into %d chunks", len(chunks))

	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("embed %q: %w", displayName, err)
	}

	locator, err := s.blobs.Put(ctx, hash, content)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	doc := &domain.Document{
		Hash:        hash,
		DisplayName: displayName,
		Location:    locator,
		SizeBytes:   int64(len(content)),
		PageCount:   len(segments),
		IngestedAt:  time.Now(),
	}

	if err := s.store.SaveDocument(ctx, doc, chunks); err != nil {
		if errors.Is(err, domain.ErrDuplicateContent) {
			// A concurrent process slipped past the in-flight guard.
			// The stored copy is byte-identical, so the blob stands.
			existing, _ := s.store.GetDocument(ctx, hash)
			return existing, fmt.Errorf("ingest %q: %w", displayName, domain.ErrDuplicateContent)
		}
		if delErr := s.blobs.Delete(ctx, hash); delErr != nil {
			logger.Warn("Blob cleanup failed for %s: %v", hash, delErr)
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	entries := make([]driven.VectorEntry, len(chunks))
	for i, ch := range chunks {
		entries[i] = driven.VectorEntry{
			ChunkID:      ch.ID,
			DocumentHash: ch.DocumentHash,
			Vector:       ch.Embedding,
		}
	}
	if err := s.vectors.Insert(ctx, entries); err != nil {
		// Roll back the metadata so a failed ingest leaves nothing
		// behind; the blob goes with it.
		if delErr := s.store.DeleteDocument(ctx, hash); delErr != nil {
			logger.Warn("Rollback failed for %s: %v", hash, delErr)
		}
		if delErr := s.blobs.Delete(ctx, hash); delErr != nil {
			logger.Warn("Blob cleanup failed for %s: %v", hash, delErr)
		}
		return nil, fmt.Errorf("index vectors: %w", err)
	}

	logger.Info("Ingested %q: %d chunks, %d pages", displayName, len(chunks), doc.PageCount)
	return doc, nil
}

// embedChunks fills in chunk embeddings in place. Batches run
// concurrently; any failure aborts the whole document.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, ch := range batch {
				texts[i] = ch.Content
			}

			vectors, err := s.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return err
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embedding count mismatch: got %d, want %d: %w",
					len(vectors), len(batch), domain.ErrEmbeddingUnavailable)
			}

			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			return nil
		})
	}

	return g.Wait()
}

// claim marks a hash as being ingested. It returns false when another
// ingest of the same content is already running.
func (s *IngestionService) claim(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[hash]; busy {
		return false
	}
	s.inFlight[hash] = struct{}{}
	return true
}

func (s *IngestionService) release(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, hash)
}
