package mcp

import (
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driving"
)

// Ports is what the MCP tools read from.
type Ports struct {
	// Document answers snapshot, outline and search queries.
	Document driving.DocumentService
}

// Validate reports a missing document service.
func (p *Ports) Validate() error {
	if p == nil || p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
