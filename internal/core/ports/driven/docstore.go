package driven

import (
	"context"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

// MetadataStore persists documents and their chunk mapping.
// Backed by SQLite.
type MetadataStore interface {
	// SaveDocument stores a document and all its chunks in one
	// transaction. Returns domain.ErrDuplicateContent if a document with
	// the same content hash already exists; nothing is written in that
	// case.
	SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by content hash.
	GetDocument(ctx context.Context, hash string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, hash string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks atomically.
	// Returns domain.ErrNotFound if no such document exists.
	DeleteDocument(ctx context.Context, hash string) error

	// ListDocuments returns documents matching the filter in the
	// requested order.
	ListDocuments(ctx context.Context, filter domain.DocumentFilter, sort domain.DocumentSort) ([]domain.Document, error)

	// ListDocumentHashes returns the hashes of every stored document.
	// Used to reconcile the vector index on startup.
	ListDocumentHashes(ctx context.Context) (map[string]struct{}, error)

	// Stats reports document and chunk counts.
	Stats(ctx context.Context) (StoreStats, error)
}

// StoreStats summarises the metadata store contents.
type StoreStats struct {
	Documents int
	Chunks    int
}

// ConversationStore persists per-session message logs.
type ConversationStore interface {
	// AppendMessage appends a message, assigning the next position in
	// the session.
	AppendMessage(ctx context.Context, sessionID string, role domain.MessageRole, content string) (*domain.Message, error)

	// Messages returns the retained messages for a session, oldest
	// first.
	Messages(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Trim drops the oldest messages so at most keep remain.
	Trim(ctx context.Context, sessionID string, keep int) error
}
