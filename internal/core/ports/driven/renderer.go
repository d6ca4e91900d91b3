package driven

import (
	"context"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// DiagramRenderer is the external diagram rendering collaborator.
// It may be slow and may fail on malformed input.
type DiagramRenderer interface {
	// Render returns an SVG payload for the diagram source.
	// Failures carry a human-readable message.
	Render(ctx context.Context, kind domain.DiagramKind, source string) ([]byte, error)
}

// Span is one styled run of highlighted code.
type Span struct {
	Text  string
	Class string
}

// Highlighter is the syntax-highlighting collaborator, invoked per code block.
type Highlighter interface {
	Highlight(code, language string) []Span
}
