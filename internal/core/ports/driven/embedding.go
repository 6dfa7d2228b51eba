package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations wrap an external provider (OpenAI-compatible APIs,
// Ollama). Transient provider failures are retried internally with bounded
// backoff; after exhaustion the call fails with
// domain.ErrEmbeddingUnavailable.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector per
	// input in the same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This must match the VectorIndex configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
