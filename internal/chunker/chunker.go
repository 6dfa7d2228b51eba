// Package chunker provides fixed-size text chunking with overlap.
package chunker

import (
	"github.com/google/uuid"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits extracted segments into fixed-size chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room to advance
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks each segment independently; chunks never span segment
// boundaries. Offsets are in runes relative to the segment start, so
// multi-byte text slices cleanly. Empty or whitespace-only behaviour
// follows the input: a segment with no runes produces no chunks.
func (c *Chunker) Split(docHash string, segments []domain.Segment) []domain.Chunk {
	var chunks []domain.Chunk
	position := 0

	for _, seg := range segments {
		runes := []rune(seg.Text)
		segLen := len(runes)
		if segLen == 0 {
			continue
		}

		step := c.chunkSize - c.overlap
		start := 0

		for start < segLen {
			end := start + c.chunkSize
			if end > segLen {
				end = segLen
			}

			chunks = append(chunks, domain.Chunk{
				ID:           uuid.New().String(),
				DocumentHash: docHash,
				Position:     position,
				Segment:      seg.Index,
				StartOffset:  start,
				EndOffset:    end,
				Content:      string(runes[start:end]),
			})
			position++

			if end == segLen {
				break
			}
			start += step
		}
	}

	return chunks
}
