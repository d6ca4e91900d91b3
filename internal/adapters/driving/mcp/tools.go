package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// defaultSearchLimit caps search results when the caller gives no limit.
const defaultSearchLimit = 20

// OutlineInput is the input schema for the outline tool.
type OutlineInput struct{}

// OutlineOutput is the output schema for the outline tool.
type OutlineOutput struct {
	Entries []OutlineEntryOutput `json:"entries"`
	Count   int                  `json:"count"`
}

// OutlineEntryOutput is one heading of the outline.
type OutlineEntryOutput struct {
	Level   int    `json:"level"`
	Text    string `json:"text"`
	Anchor  string `json:"anchor"`
	BlockID string `json:"block_id"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query         string `json:"query" jsonschema:"the text to find in the document"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum number of matches to return (default 20)"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"match letter case exactly"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Matches []SearchMatchOutput `json:"matches"`
	Count   int                 `json:"count"`
}

// SearchMatchOutput represents a single match.
type SearchMatchOutput struct {
	BlockID    string `json:"block_id"`
	BlockIndex int    `json:"block_index"`
	Offset     int    `json:"offset"`
	Snippet    string `json:"snippet"`
}

// SnapshotInput is the input schema for the snapshot tool.
type SnapshotInput struct {
	IncludeText bool `json:"include_text,omitempty" jsonschema:"include the plain text of every block"`
}

// SnapshotOutput is the output schema for the snapshot tool.
type SnapshotOutput struct {
	Path       string          `json:"path"`
	Title      string          `json:"title"`
	Generation uint64          `json:"generation"`
	Revision   uint64          `json:"revision"`
	State      string          `json:"state"`
	Error      string          `json:"error,omitempty"`
	Blocks     []BlockOutput   `json:"blocks"`
	Diagrams   []DiagramOutput `json:"diagrams"`
}

// BlockOutput describes one block.
type BlockOutput struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Line        int      `json:"line"`
	HeadingPath []string `json:"heading_path,omitempty"`
	Text        string   `json:"text,omitempty"`
	Markers     []string `json:"markers,omitempty"`
}

// DiagramOutput describes the render state of one diagram.
type DiagramOutput struct {
	Hash   string `json:"hash"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	URI    string `json:"uri,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "outline",
		Description: "List the headings of the live document",
	}, s.handleOutline)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find text in the live document",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "snapshot",
		Description: "Describe the current document generation, its blocks and diagram render states",
	}, s.handleSnapshot)
}

// handleOutline handles the outline tool invocation.
func (s *Server) handleOutline(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ OutlineInput,
) (*mcp.CallToolResult, OutlineOutput, error) {
	entries, err := s.ports.Document.Outline()
	if err != nil {
		return nil, OutlineOutput{}, err
	}

	output := OutlineOutput{
		Entries: make([]OutlineEntryOutput, len(entries)),
		Count:   len(entries),
	}
	for i, e := range entries {
		output.Entries[i] = OutlineEntryOutput{
			Level:   e.Level,
			Text:    e.Text,
			Anchor:  e.Anchor,
			BlockID: string(e.BlockID),
		}
	}
	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	opts := domain.SearchOptions{Limit: limit, CaseSensitive: input.CaseSensitive}
	matches, err := s.ports.Document.Search(input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Matches: make([]SearchMatchOutput, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		output.Matches[i] = SearchMatchOutput{
			BlockID:    string(m.BlockID),
			BlockIndex: m.BlockIndex,
			Offset:     m.Offset,
			Snippet:    m.Snippet,
		}
	}
	return nil, output, nil
}

// handleSnapshot handles the snapshot tool invocation.
func (s *Server) handleSnapshot(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SnapshotInput,
) (*mcp.CallToolResult, SnapshotOutput, error) {
	snap, err := s.ports.Document.Snapshot()
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	doc := snap.Document

	output := SnapshotOutput{
		Path:       doc.Path,
		Title:      doc.Title,
		Generation: doc.Generation,
		Revision:   snap.Revision,
		State:      snap.State.String(),
		Blocks:     make([]BlockOutput, len(doc.Blocks)),
		Diagrams:   make([]DiagramOutput, 0, len(doc.Diagrams)),
	}
	if snap.Err != nil {
		output.Error = snap.Err.Error()
	}

	for i, b := range doc.Blocks {
		out := BlockOutput{
			ID:          string(b.ID),
			Kind:        b.Kind.String(),
			Line:        b.Line,
			HeadingPath: b.HeadingPath,
		}
		if input.IncludeText {
			out.Text = b.PlainText()
		}
		for _, m := range b.Markers {
			out.Markers = append(out.Markers, m.Code)
		}
		output.Blocks[i] = out
	}

	seen := make(map[string]bool, len(doc.Diagrams))
	for _, spec := range doc.Diagrams {
		if seen[spec.Hash] {
			continue
		}
		seen[spec.Hash] = true
		rd := snap.Diagram(spec)
		out := DiagramOutput{
			Hash:   spec.Hash,
			Kind:   string(spec.Kind),
			Status: rd.Status.String(),
			Error:  rd.Err,
		}
		if rd.Status == domain.DiagramSucceeded {
			out.URI = diagramURI(spec.Hash)
		}
		output.Diagrams = append(output.Diagrams, out)
	}
	return nil, output, nil
}
