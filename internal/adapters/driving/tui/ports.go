// Package tui is the terminal backend of mdr. It receives snapshots from the
// dispatcher and reports the block at the top of the viewport.
package tui

import (
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driving"
)

// Ports bundles the services the TUI reads from.
type Ports struct {
	// Pipeline exposes the latest snapshot and pipeline state.
	Pipeline driving.Pipeline

	// Document answers outline queries.
	Document driving.DocumentService

	// Highlighter styles code blocks. Optional.
	Highlighter driven.Highlighter
}

// NewPorts bundles the given services.
func NewPorts(pipeline driving.Pipeline, document driving.DocumentService, highlighter driven.Highlighter) *Ports {
	return &Ports{
		Pipeline:    pipeline,
		Document:    document,
		Highlighter: highlighter,
	}
}

// Validate reports the first missing required service.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
