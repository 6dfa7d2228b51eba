package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// Fusion defaults.
const (
	DefaultTopK             = 5
	DefaultMaxRecords       = 5
	DefaultContextBudget    = 6000
	DefaultStructuredWeight = 1.0
)

// FusionConfig tunes how document and table evidence is merged.
type FusionConfig struct {
	// TopK is the number of vector hits requested per query.
	TopK int

	// MaxRecords caps structured rows considered per query.
	MaxRecords int

	// Budget is the maximum rendered context size in characters.
	Budget int

	// StructuredWeight scales table scores against chunk similarities.
	StructuredWeight float64

	// MinSimilarity drops vector hits below this cosine similarity.
	MinSimilarity float64
}

// withDefaults fills in zero-valued fields.
func (c FusionConfig) withDefaults() FusionConfig {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = DefaultMaxRecords
	}
	if c.Budget <= 0 {
		c.Budget = DefaultContextBudget
	}
	if c.StructuredWeight <= 0 {
		c.StructuredWeight = DefaultStructuredWeight
	}
	return c
}

// ContextFusionEngine assembles a bounded, provenance-tagged context
// block from the vector index and the operational tables.
type ContextFusionEngine struct {
	embedder  driven.EmbeddingService
	vectors   driven.VectorIndex
	store     driven.MetadataStore
	retriever *StructuredRetriever
	cfg       FusionConfig
}

// NewContextFusionEngine creates a new fusion engine. The retriever is
// optional; without it only document evidence is used.
func NewContextFusionEngine(
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	store driven.MetadataStore,
	retriever *StructuredRetriever,
	cfg FusionConfig,
) *ContextFusionEngine {
	return &ContextFusionEngine{
		embedder:  embedder,
		vectors:   vectors,
		store:     store,
		retriever: retriever,
		cfg:       cfg.withDefaults(),
	}
}

// BuildContext retrieves from both sources in parallel, merges by score
// and packs whole items into the budget. When one source fails the
// other still serves; only a total loss is an error. An empty block
// with Grounded false means the engine found nothing relevant.
func (e *ContextFusionEngine) BuildContext(
	ctx context.Context, query string,
) (*domain.ContextBlock, error) {
	logger.Section("Context Fusion")
	logger.Debug("Query: %q", query)

	var (
		wg             sync.WaitGroup
		docItems       []domain.ContextItem
		recordItems    []domain.ContextItem
		docErr, recErr error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		docItems, docErr = e.retrieveChunks(ctx, query)
	}()

	go func() {
		defer wg.Done()
		recordItems, recErr = e.retrieveRecords(ctx, query)
	}()

	wg.Wait()

	if docErr != nil && recErr != nil {
		return nil, fmt.Errorf("context retrieval: documents=%w, records=%w", docErr, recErr)
	}
	if docErr != nil {
		logger.Warn("Document retrieval failed, serving table evidence only: %v", docErr)
	}
	if recErr != nil {
		logger.Warn("Table retrieval failed, serving document evidence only: %v", recErr)
	}

	items := make([]domain.ContextItem, 0, len(docItems)+len(recordItems))
	items = append(items, docItems...)
	items = append(items, recordItems...)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	block := e.pack(items)
	logger.Info("Context: %d items, %d chars, grounded=%t",
		len(block.Items), len(block.Rendered), block.Grounded)
	return block, nil
}

// retrieveChunks embeds the query, searches the vector index and
// hydrates the hits. Hits whose chunk or document vanished between
// indexing and now are skipped.
func (e *ContextFusionEngine) retrieveChunks(
	ctx context.Context, query string,
) ([]domain.ContextItem, error) {
	if e.embedder == nil || e.vectors == nil {
		return nil, nil
	}

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := e.vectors.Search(ctx, embedding, e.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	items := make([]domain.ContextItem, 0, len(hits))
	for _, hit := range hits {
		if hit.Similarity < e.cfg.MinSimilarity {
			continue
		}

		chunk, err := e.store.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		doc, err := e.store.GetDocument(ctx, chunk.DocumentHash)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentHash, err)
		}

		items = append(items, domain.ContextItem{
			Source: domain.SourceRef{
				Type:          domain.SourceDocument,
				DocumentHash:  doc.Hash,
				DocumentName:  doc.DisplayName,
				ChunkPosition: chunk.Position,
			},
			Text:  chunk.Content,
			Score: hit.Similarity,
		})
	}

	return items, nil
}

// retrieveRecords runs the structured retriever with a filter derived
// from the query text.
func (e *ContextFusionEngine) retrieveRecords(
	ctx context.Context, query string,
) ([]domain.ContextItem, error) {
	if e.retriever == nil {
		return nil, nil
	}

	filter := e.retriever.DeriveFilter(query)
	if filter.Empty() {
		logger.Debug("No structured signal in query")
		return nil, nil
	}
	filter.Limit = e.cfg.MaxRecords

	rows, err := e.retriever.Retrieve(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) > e.cfg.MaxRecords {
		rows = rows[:e.cfg.MaxRecords]
	}

	items := make([]domain.ContextItem, len(rows))
	for i, row := range rows {
		items[i] = domain.ContextItem{
			Source: domain.SourceRef{
				Type:      domain.SourceTable,
				Table:     row.Record.Table(),
				RecordKey: row.Record.Key(),
			},
			Text:  row.Record.Sentence(),
			Score: row.Score * e.cfg.StructuredWeight,
		}
	}

	return items, nil
}

// pack greedily fills the character budget with whole items in score
// order. Items are never truncated; one that does not fit is skipped
// and packing continues with the next.
func (e *ContextFusionEngine) pack(items []domain.ContextItem) *domain.ContextBlock {
	var (
		sb   strings.Builder
		kept []domain.ContextItem
	)

	for _, item := range items {
		snippet := renderItem(item)
		if sb.Len()+len(snippet) > e.cfg.Budget {
			continue
		}
		sb.WriteString(snippet)
		kept = append(kept, item)
	}

	return &domain.ContextBlock{
		Items:    kept,
		Rendered: sb.String(),
		Grounded: len(kept) > 0,
	}
}

// renderItem formats one evidence item with its provenance tag.
func renderItem(item domain.ContextItem) string {
	return "[" + item.Source.Identifier() + "]\n" + item.Text + "\n\n"
}
