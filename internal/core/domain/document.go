package domain

import "time"

// Document represents one ingested file. Identity is the hex SHA-256 digest
// of the raw bytes, so byte-identical uploads always resolve to the same
// Document.
type Document struct {
	// Hash is the hex-encoded SHA-256 digest of the raw bytes.
	Hash string

	// DisplayName is the name the file was uploaded under.
	DisplayName string

	// Location is the blob store locator for the original bytes.
	Location string

	// SizeBytes is the raw upload size.
	SizeBytes int64

	// PageCount is the number of text segments extracted (one per page
	// for PDFs).
	PageCount int

	// IngestedAt is when the document was first ingested.
	IngestedAt time.Time
}

// Segment is one ordered unit of extracted text, typically a page.
type Segment struct {
	// Index is the 0-based position within the document.
	Index int

	// Text is the extracted plain text.
	Text string
}

// Chunk is a bounded passage of text derived from one document. It is the
// unit of embedding and retrieval. Chunks within a document are contiguous
// and never span two segments.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentHash links to the owning Document.
	DocumentHash string

	// Position is the 0-based ordinal within the document.
	Position int

	// Segment is the index of the source segment.
	Segment int

	// StartOffset and EndOffset are rune offsets into the segment text.
	StartOffset int
	EndOffset   int

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation. Populated during ingestion.
	Embedding []float32
}

// SortField selects the document list ordering.
type SortField string

// Supported sort fields for ListDocuments.
const (
	SortByName       SortField = "name"
	SortBySize       SortField = "size"
	SortByIngestedAt SortField = "ingested_at"
)

// DocumentFilter narrows a document listing.
type DocumentFilter struct {
	// NameContains keeps documents whose display name contains the
	// substring (case-insensitive). Empty matches all.
	NameContains string

	// IngestedAfter and IngestedBefore bound the ingestion time when
	// non-zero.
	IngestedAfter  time.Time
	IngestedBefore time.Time
}

// DocumentSort orders a document listing.
type DocumentSort struct {
	Field      SortField
	Descending bool
}
