package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps MIME types to their extractors. Later registrations for
// the same MIME type replace earlier ones.
type Registry struct {
	byMIME map[string]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME: make(map[string]driven.Extractor),
	}
}

// Register adds an extractor under each of its supported MIME types.
func (r *Registry) Register(extractor driven.Extractor) {
	for _, mime := range extractor.SupportedMIMETypes() {
		r.byMIME[normaliseMIME(mime)] = extractor
	}
}

// Extract dispatches to the extractor registered for the MIME type.
func (r *Registry) Extract(ctx context.Context, mimeType string, content []byte) ([]domain.Segment, error) {
	extractor, ok := r.byMIME[normaliseMIME(mimeType)]
	if !ok {
		return nil, fmt.Errorf("mime type %q: %w", mimeType, domain.ErrUnsupportedFormat)
	}
	return extractor.Extract(ctx, content)
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

// MIMETypeForPath maps a file extension to the MIME types the registry
// knows about. Unknown extensions are treated as plain text.
func MIMETypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	default:
		return "text/plain"
	}
}

// normaliseMIME lowercases and strips parameters like "; charset=utf-8".
func normaliseMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
