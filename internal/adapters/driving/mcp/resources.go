package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for mdr resources.
	uriScheme = "mdr://"

	documentURI = uriScheme + "document"
	diagramsURI = uriScheme + "diagrams/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the document text.
	s.server.AddResource(&mcp.Resource{
		URI:         documentURI,
		Name:        "document",
		Description: "Plain text of the live document, one block per paragraph",
		MIMEType:    "text/plain",
	}, s.handleDocumentResource)

	// Template for rendered diagrams.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: diagramsURI + "{hash}",
		Name:        "diagram",
		Description: "Rendered SVG of a diagram in the live document",
		MIMEType:    "image/svg+xml",
	}, s.handleDiagramResource)
}

// handleDocumentResource returns the document's blocks as plain text.
func (s *Server) handleDocumentResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	snap, err := s.ports.Document.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     documentText(snap.Document),
		}},
	}, nil
}

// handleDiagramResource returns the SVG of a successfully rendered diagram.
func (s *Server) handleDiagramResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	hash := extractDiagramHash(req.Params.URI)
	if hash == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	snap, err := s.ports.Document.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	rd, ok := snap.Diagrams[hash]
	if !ok || rd.Status != domain.DiagramSucceeded {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "image/svg+xml",
			Text:     string(rd.Payload),
		}},
	}, nil
}

// documentText joins the plain text of every block, headings marked with '#'.
func documentText(doc *domain.Document) string {
	parts := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		text := b.PlainText()
		if b.Kind == domain.BlockHeading {
			text = strings.Repeat("#", max(b.Level, 1)) + " " + text
		}
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

func diagramURI(hash string) string {
	return diagramsURI + hash
}

// extractDiagramHash extracts the hash from a URI like mdr://diagrams/{hash}.
func extractDiagramHash(uri string) string {
	if !strings.HasPrefix(uri, diagramsURI) {
		return ""
	}
	hash := strings.TrimPrefix(uri, diagramsURI)
	if strings.Contains(hash, "/") {
		return ""
	}
	return hash
}
