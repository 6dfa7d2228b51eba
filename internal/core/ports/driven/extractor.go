package driven

import (
	"context"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

// Extractor converts raw document bytes of a declared type into ordered
// plain-text segments, one per page or section.
//
// Extraction is all-or-nothing: a failure returns domain.ErrCorruptInput
// (or domain.ErrUnsupportedFormat from the registry) and no partial output.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract parses the content and returns its text segments in order.
	Extract(ctx context.Context, content []byte) ([]domain.Segment, error)
}

// ExtractorRegistry dispatches extraction by declared MIME type.
type ExtractorRegistry interface {
	// Extract runs the extractor registered for the MIME type. An
	// unregistered type returns domain.ErrUnsupportedFormat.
	Extract(ctx context.Context, mimeType string, content []byte) ([]domain.Segment, error)

	// Register adds an extractor for all of its supported MIME types.
	Register(extractor Extractor)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string
}
