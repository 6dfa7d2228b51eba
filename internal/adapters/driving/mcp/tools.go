package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the question to retrieve supporting context for"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Items    []ContextItemOutput `json:"items"`
	Rendered string              `json:"rendered"`
	Grounded bool                `json:"grounded"`
}

// ContextItemOutput represents a single retrieved context item.
type ContextItemOutput struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// RecordsInput is the input schema for the query_records tool.
type RecordsInput struct {
	Serial string   `json:"serial,omitempty" jsonschema:"exact machine serial number"`
	Model  string   `json:"model,omitempty" jsonschema:"machine or component model code"`
	Site   string   `json:"site,omitempty" jsonschema:"job site or location substring"`
	From   string   `json:"from,omitempty" jsonschema:"earliest inspection date, YYYY-MM-DD"`
	To     string   `json:"to,omitempty" jsonschema:"latest inspection date, YYYY-MM-DD"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum rows per table (default 20)"`
	Tables []string `json:"tables,omitempty" jsonschema:"restrict to these tables: machine_tracking, uc_life_time, inspection_data"`
}

// RecordsOutput is the output schema for the query_records tool.
type RecordsOutput struct {
	Rows  []RecordRowOutput `json:"rows"`
	Count int               `json:"count"`
}

// RecordRowOutput represents a single matching record.
type RecordRowOutput struct {
	Table    string  `json:"table"`
	Key      string  `json:"key"`
	Sentence string  `json:"sentence"`
	Score    float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve grounded context from ingested documents and operational records",
	}, s.handleRetrieve)

	if s.ports.Records != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "query_records",
			Description: "Query machine tracking, undercarriage lifetime and inspection tables",
		}, s.handleQueryRecords)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	block, err := s.ports.Fusion.BuildContext(ctx, input.Query)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Items:    make([]ContextItemOutput, len(block.Items)),
		Rendered: block.Rendered,
		Grounded: block.Grounded,
	}

	for i := range block.Items {
		output.Items[i] = ContextItemOutput{
			Source: block.Items[i].Source.Identifier(),
			Text:   block.Items[i].Text,
			Score:  block.Items[i].Score,
		}
	}

	return nil, output, nil
}

// handleQueryRecords handles the query_records tool invocation.
func (s *Server) handleQueryRecords(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecordsInput,
) (*mcp.CallToolResult, RecordsOutput, error) {
	filter, err := filterFromInput(input)
	if err != nil {
		return nil, RecordsOutput{}, err
	}

	rows, err := s.ports.Records.Retrieve(ctx, filter)
	if err != nil {
		return nil, RecordsOutput{}, err
	}

	output := RecordsOutput{
		Rows:  make([]RecordRowOutput, len(rows)),
		Count: len(rows),
	}

	for i := range rows {
		output.Rows[i] = RecordRowOutput{
			Table:    string(rows[i].Record.Table()),
			Key:      rows[i].Record.Key(),
			Sentence: rows[i].Record.Sentence(),
			Score:    rows[i].Score,
		}
	}

	return nil, output, nil
}

func filterFromInput(input RecordsInput) (domain.RecordFilter, error) {
	filter := domain.RecordFilter{
		Serial: input.Serial,
		Model:  input.Model,
		Site:   input.Site,
		Limit:  input.Limit,
	}

	if input.From != "" {
		t, err := time.Parse("2006-01-02", input.From)
		if err != nil {
			return filter, fmt.Errorf("from %q: %w", input.From, domain.ErrInvalidInput)
		}
		filter.DateFrom = t
	}
	if input.To != "" {
		t, err := time.Parse("2006-01-02", input.To)
		if err != nil {
			return filter, fmt.Errorf("to %q: %w", input.To, domain.ErrInvalidInput)
		}
		filter.DateTo = t
	}
	for _, table := range input.Tables {
		filter.Tables = append(filter.Tables, domain.TableName(table))
	}

	return filter, nil
}
