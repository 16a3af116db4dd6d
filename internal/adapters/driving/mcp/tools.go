package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultLimit is the number of matches returned when the caller sets none.
const DefaultLimit = 10

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query     string `json:"query" jsonschema:"the text to rank records against"`
	Partition string `json:"partition,omitempty" jsonschema:"partition to search (default: the store's default partition)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of matches to return (default 10)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Partition string             `json:"partition"`
	Matches   []QueryMatchOutput `json:"matches"`
	Count     int                `json:"count"`
}

// QueryMatchOutput represents a single ranked record.
type QueryMatchOutput struct {
	ID       string         `json:"id"`
	Address  string         `json:"address,omitempty"`
	Distance float64        `json:"distance"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ReadResourceInput is the input schema for the read_resource tool.
type ReadResourceInput struct {
	Address string `json:"address" jsonschema:"the resource address, as found on a query match"`
}

// ReadResourceOutput is the output schema for the read_resource tool.
type ReadResourceOutput struct {
	Address string `json:"address"`
	Content string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Rank the records of a corpus partition against a query",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_resource",
		Description: "Read the full resource a record was built from",
	}, s.handleReadResource)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	resp, err := s.ports.Corpus.Query(ctx, input.Query, input.Partition, limit)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Partition: resp.Partition,
		Matches:   make([]QueryMatchOutput, len(resp.Matches)),
		Count:     len(resp.Matches),
	}
	for i, m := range resp.Matches {
		output.Matches[i] = QueryMatchOutput{
			ID:       m.Record.ID,
			Address:  m.Record.Address.String(),
			Distance: m.Distance,
			Content:  m.Record.Content,
			Metadata: m.Record.Metadata,
		}
	}

	return nil, output, nil
}

// handleReadResource handles the read_resource tool invocation.
func (s *Server) handleReadResource(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadResourceInput,
) (*mcp.CallToolResult, ReadResourceOutput, error) {
	data, err := s.ports.Corpus.ReadResource(ctx, input.Address)
	if err != nil {
		return nil, ReadResourceOutput{}, fmt.Errorf("reading %s: %w", input.Address, err)
	}
	return nil, ReadResourceOutput{Address: input.Address, Content: string(data)}, nil
}
