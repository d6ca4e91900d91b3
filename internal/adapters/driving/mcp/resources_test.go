package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

func TestExtractDiagramHash(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{name: "valid", uri: "mdr://diagrams/abc123", want: "abc123"},
		{name: "wrong scheme", uri: "file://diagrams/abc", want: ""},
		{name: "nested path", uri: "mdr://diagrams/a/b", want: ""},
		{name: "empty hash", uri: "mdr://diagrams/", want: ""},
		{name: "document uri", uri: "mdr://document", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDiagramHash(tt.uri))
		})
	}
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns plain text", func(t *testing.T) {
		server := newTestServer(t, newSnapshot(t, sampleMarkdown))

		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest("mdr://document"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, "# Guide")
		assert.Contains(t, text, "## Usage")
		assert.Contains(t, text, "Run the tool daily.")
		assert.Contains(t, text, "graph TD; A-->B")
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("no document loaded", func(t *testing.T) {
		server := newTestServer(t, domain.Snapshot{})

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("mdr://document"))

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoDocument)
	})
}

func TestServer_handleDiagramResource(t *testing.T) {
	ctx := context.Background()
	snap := newSnapshot(t, sampleMarkdown)
	done := snap.Document.Diagrams[0]
	failed := snap.Document.Diagrams[1]
	snap.Diagrams[done.Hash] = domain.RenderedDiagram{
		Hash: done.Hash, Status: domain.DiagramSucceeded, Payload: []byte("<svg>ok</svg>"),
	}
	snap.Diagrams[failed.Hash] = domain.RenderedDiagram{
		Hash: failed.Hash, Status: domain.DiagramFailed, Err: "bad",
	}
	server := newTestServer(t, snap)

	t.Run("returns svg", func(t *testing.T) {
		result, err := server.handleDiagramResource(ctx, makeReadResourceRequest(diagramURI(done.Hash)))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "<svg>ok</svg>", result.Contents[0].Text)
		assert.Equal(t, "image/svg+xml", result.Contents[0].MIMEType)
	})

	t.Run("failed diagram is not found", func(t *testing.T) {
		_, err := server.handleDiagramResource(ctx, makeReadResourceRequest(diagramURI(failed.Hash)))

		assert.Error(t, err)
	})

	t.Run("unknown hash", func(t *testing.T) {
		_, err := server.handleDiagramResource(ctx, makeReadResourceRequest(diagramURI("nope")))

		assert.Error(t, err)
	})

	t.Run("malformed uri", func(t *testing.T) {
		_, err := server.handleDiagramResource(ctx, makeReadResourceRequest("mdr://other"))

		assert.Error(t, err)
	})
}
