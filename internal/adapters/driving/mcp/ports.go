package mcp

import (
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driving"
	"github.com/fleetmind-ai/fleetmind/internal/core/services"
)

// Ports aggregates everything the MCP server exposes. This provides a
// single injection point for dependency injection.
type Ports struct {
	// Fusion builds bounded, provenance-tagged context blocks.
	Fusion *services.ContextFusionEngine

	// Records queries the operational tables. Optional; without it the
	// query_records tool is not registered.
	Records *services.StructuredRetriever

	// Document lists and inspects ingested documents. Optional.
	Document driving.DocumentService

	// Store resolves document chunks for the content resource. Optional.
	Store driven.MetadataStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Fusion == nil {
		return ErrMissingFusionEngine
	}
	// Records, Document and Store are optional.
	return nil
}
