// Package driving provides interfaces for application entry points
// (primary/inbound ports) exposed to the CLI and other callers.
package driving

import (
	"context"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

// IngestionService ingests raw document bytes into the knowledge base.
type IngestionService interface {
	// Ingest hashes, extracts, chunks, embeds and indexes the upload.
	// Byte-identical re-uploads fail with domain.ErrDuplicateContent and
	// return the existing document; nothing is persisted twice.
	Ingest(ctx context.Context, content []byte, displayName, mimeType string) (*domain.Document, error)
}

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns documents matching the filter in the requested order.
	List(ctx context.Context, filter domain.DocumentFilter, sort domain.DocumentSort) ([]domain.Document, error)

	// Get retrieves a document by content hash.
	Get(ctx context.Context, hash string) (*domain.Document, error)

	// Delete removes a document, its chunks, its vector entries and its
	// stored bytes.
	Delete(ctx context.Context, hash string) error

	// Stats reports knowledge base counters.
	Stats(ctx context.Context) (*KnowledgeStats, error)
}

// KnowledgeStats summarises the knowledge base for status display.
type KnowledgeStats struct {
	Documents  int
	Chunks     int
	Vectors    int
	Dimensions int
}

// AnswerService answers natural-language questions with provenance.
type AnswerService interface {
	// Answer builds a grounded context for the query within the session's
	// conversation and returns the model reply with its sources.
	Answer(ctx context.Context, query, sessionID string) (*domain.Answer, error)
}
