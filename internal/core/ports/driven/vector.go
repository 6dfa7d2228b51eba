package driven

import "context"

// VectorIndex provides persistent nearest-neighbour search over chunk
// embeddings. Implementations must be safe for concurrent use: searches see
// either the full pre-delete or full post-delete state of a document, never
// a partial one.
type VectorIndex interface {
	// Insert adds entries for chunks. All entries become visible
	// atomically, and inserting an existing chunk ID again is a no-op
	// overwrite (idempotent per chunk).
	Insert(ctx context.Context, entries []VectorEntry) error

	// DeleteByDocument removes every entry owned by the document and
	// returns how many were removed.
	DeleteByDocument(ctx context.Context, documentHash string) (int, error)

	// Search returns up to k entries ranked by descending cosine
	// similarity. Ties break by insertion order, so results are
	// deterministic for identical index state.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Reconcile removes entries whose document is not in valid and
	// returns how many were dropped. Called after load so the index
	// never references a missing document.
	Reconcile(ctx context.Context, valid map[string]struct{}) (int, error)

	// Len returns the number of entries currently indexed.
	Len() int

	// Close persists the index and releases resources.
	Close() error
}

// VectorEntry is the indexed form of a chunk.
type VectorEntry struct {
	ChunkID      string
	DocumentHash string
	Vector       []float32
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentHash is the owning document.
	DocumentHash string

	// Similarity is the cosine similarity score in [-1, 1]; higher is
	// more similar.
	Similarity float64
}
