package driven

import "context"

// BlobStore persists the original bytes of ingested documents, keyed by the
// same content hash used for document identity. The engine only needs the
// locator back; serving the bytes is a collaborator concern.
type BlobStore interface {
	// Put stores content under the hash and returns a locator for it.
	// Storing the same hash twice is a no-op (content-addressed).
	Put(ctx context.Context, hash string, content []byte) (string, error)

	// Get returns the stored bytes for a hash.
	Get(ctx context.Context, hash string) ([]byte, error)

	// Delete removes the stored bytes. Returns domain.ErrNotFound if
	// absent.
	Delete(ctx context.Context, hash string) error
}
