// Package plaintext extracts text from plain text documents.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/csv",
	}
}

// Extract returns the whole document as a single segment.
func (e *Extractor) Extract(_ context.Context, content []byte) ([]domain.Segment, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("invalid utf-8: %w", domain.ErrCorruptInput)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, fmt.Errorf("no extractable text: %w", domain.ErrCorruptInput)
	}

	return []domain.Segment{{Index: 0, Text: text}}, nil
}
