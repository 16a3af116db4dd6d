package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for corpus resources.
	uriScheme = "corpus://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing partitions.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "partitions",
		Name:        "partitions",
		Description: "Partitions of the corpus",
		MIMEType:    "application/json",
	}, s.handlePartitionsResource)

	// Template for resource content, keyed by escaped address.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "resources/{address}",
		Name:        "resource-content",
		Description: "Content of a resource by its path-escaped address",
		MIMEType:    "text/plain",
	}, s.handleResourceContent)
}

// handlePartitionsResource returns the partition names as a JSON array.
func (s *Server) handlePartitionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	partitions, err := s.ports.Corpus.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}
	if partitions == nil {
		partitions = []string{}
	}

	data, err := json.MarshalIndent(partitions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling partitions: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleResourceContent returns the content of the addressed resource.
func (s *Server) handleResourceContent(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	address := extractAddress(req.Params.URI)
	if address == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := s.ports.Corpus.ReadResource(ctx, address)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     string(data),
		}},
	}, nil
}

// ResourceURI returns the MCP URI of a resource address.
func ResourceURI(address string) string {
	return uriScheme + "resources/" + url.PathEscape(address)
}

// extractAddress extracts the address from a URI like corpus://resources/{address}.
func extractAddress(uri string) string {
	const prefix = uriScheme + "resources/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	address, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return address
}
