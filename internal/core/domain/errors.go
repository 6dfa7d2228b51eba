package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateContent indicates a document with identical bytes has
	// already been ingested. Callers should surface the existing document
	// rather than retry.
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates the declared document type has no
	// registered extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptInput indicates extraction failed partway through the
	// document. Nothing is persisted for the upload.
	ErrCorruptInput = errors.New("corrupt input")

	// ErrIndexCorrupt indicates the persisted vector index could not be
	// loaded and must be rebuilt from stored chunk embeddings.
	ErrIndexCorrupt = errors.New("vector index corrupt")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
