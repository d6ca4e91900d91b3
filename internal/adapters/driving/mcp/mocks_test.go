package mcp

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/services"
	"github.com/niraj-khatiwada/mdr/internal/parsers/markdown"
)

const sampleMarkdown = "# Guide\n\nInstall the tool.\n\n## Usage\n\nRun the tool daily.\n\n```mermaid\ngraph TD; A-->B\n```\n\n```mermaid\ngraph TD; C-->D\n```\n"

// newSnapshot parses src into a ready snapshot.
func newSnapshot(t *testing.T, src string) domain.Snapshot {
	t.Helper()
	res := markdown.New().Parse([]byte(src))
	return domain.Snapshot{
		Document: &domain.Document{
			Generation:  3,
			Path:        "/docs/guide.md",
			ContentHash: res.ContentHash,
			Title:       res.Title,
			Blocks:      res.Blocks,
			Diagrams:    res.Diagrams,
		},
		Diagrams: map[string]domain.RenderedDiagram{},
		State:    domain.StateReady,
		Revision: 7,
	}
}

// newTestServer builds a server over a fixed snapshot.
func newTestServer(t *testing.T, snap domain.Snapshot) *Server {
	t.Helper()
	doc := services.NewDocumentService(services.StaticSource{Snapshot: snap})
	server, err := NewServer(&Ports{Document: doc})
	require.NoError(t, err)
	return server
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}
