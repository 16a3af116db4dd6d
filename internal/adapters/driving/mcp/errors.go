// Package mcp provides an MCP (Model Context Protocol) server adapter for a corpus.
// It lets AI assistants query partitions and read the resources records point at.
package mcp

import "errors"

// ErrMissingCorpusService is returned when the corpus service is not provided.
var ErrMissingCorpusService = errors.New("mcp: corpus service is required")
