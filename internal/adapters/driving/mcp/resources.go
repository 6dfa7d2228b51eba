package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for FleetMind resources.
	uriScheme = "fleetmind://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing documents.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "List of all ingested documents",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for document content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{hash}",
		Name:        "document-content",
		Description: "Extracted text of a specific document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

// handleDocumentsResource returns a list of all ingested documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	docs, err := s.ports.Document.List(ctx, domain.DocumentFilter{}, domain.DocumentSort{})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	// Build simplified document list.
	type docInfo struct {
		Hash       string `json:"hash"`
		Name       string `json:"name"`
		SizeBytes  int64  `json:"size_bytes"`
		PageCount  int    `json:"page_count"`
		IngestedAt string `json:"ingested_at"`
	}

	infos := make([]docInfo, len(docs))
	for i, doc := range docs {
		infos[i] = docInfo{
			Hash:       doc.Hash,
			Name:       doc.DisplayName,
			SizeBytes:  doc.SizeBytes,
			PageCount:  doc.PageCount,
			IngestedAt: doc.IngestedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentContentResource returns the extracted text of one
// document, rebuilt from its stored chunks.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Store == nil {
		return nil, fmt.Errorf("document content is not available")
	}

	hash := strings.TrimPrefix(req.Params.URI, uriScheme+"documents/")
	if hash == "" || strings.Contains(hash, "/") {
		return nil, fmt.Errorf("invalid document URI %q", req.Params.URI)
	}

	chunks, err := s.ports.Store.GetChunks(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", hash, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s: %w", hash, domain.ErrNotFound)
	}

	// Chunks overlap at the boundaries, so the rebuilt text repeats a
	// little at each seam.
	var sb strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(chunk.Content)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     sb.String(),
		}},
	}, nil
}
