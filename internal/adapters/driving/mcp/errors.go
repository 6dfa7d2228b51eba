// Package mcp provides an MCP (Model Context Protocol) server adapter for
// FleetMind. It lets AI assistants retrieve grounded context from the
// knowledge base and query the operational tables directly.
package mcp

import "errors"

// ErrMissingFusionEngine is returned when the fusion engine is not provided.
var ErrMissingFusionEngine = errors.New("mcp: fusion engine is required")
