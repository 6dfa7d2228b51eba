package domain

import "fmt"

// SourceType distinguishes where a context item came from.
type SourceType string

// Context item sources.
const (
	SourceDocument SourceType = "document"
	SourceTable    SourceType = "table"
)

// SourceRef identifies the origin of a context item precisely enough to
// reconstruct provenance for citation.
type SourceRef struct {
	// Type is document or table.
	Type SourceType

	// DocumentHash and ChunkPosition locate a document hit.
	DocumentHash  string
	DocumentName  string
	ChunkPosition int

	// Table and RecordKey locate a structured hit.
	Table     TableName
	RecordKey string
}

// Identifier renders the reference as a compact citation tag.
func (r SourceRef) Identifier() string {
	if r.Type == SourceTable {
		return fmt.Sprintf("%s %s", r.Table, r.RecordKey)
	}
	return fmt.Sprintf("doc %q chunk %d", r.DocumentName, r.ChunkPosition)
}

// ContextItem is one retrieved piece of evidence with its fused relevance
// score. Higher score means more relevant.
type ContextItem struct {
	Source SourceRef
	Text   string
	Score  float64
}

// ContextBlock is the ephemeral, query-scoped result of context fusion: the
// ranked items that survived the budget, plus their single rendered form.
type ContextBlock struct {
	// Items are ordered by descending score.
	Items []ContextItem

	// Rendered is the prompt-ready context document. Its length never
	// exceeds the configured budget.
	Rendered string

	// Grounded is false when no retrieval source produced any item; the
	// caller decides whether to answer without grounding.
	Grounded bool
}

// Answer is the final response to a user query with provenance.
type Answer struct {
	// Text is the model's reply.
	Text string

	// Sources identify every context item the reply was grounded on.
	Sources []SourceRef

	// Grounded is false when the reply was produced without any
	// retrieval context.
	Grounded bool
}
