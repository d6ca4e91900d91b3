// Package mcp provides an MCP (Model Context Protocol) server adapter for mdr.
// It lets AI assistants read the live document: its outline, text search
// and the rendered state of every block and diagram.
package mcp

import "errors"

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("mcp: document service is required")
