package mermaid

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// Ensure Renderer implements the interface.
var _ driven.DiagramRenderer = (*Renderer)(nil)

// Engine turns mermaid source into an SVG document.
type Engine interface {
	Name() string
	Render(ctx context.Context, source string) ([]byte, error)
}

// Renderer wraps an Engine with preprocessing, fallback and validation.
type Renderer struct {
	engine Engine
	log    logger.Logger
}

// New creates a Renderer around engine.
func New(engine Engine) *Renderer {
	return &Renderer{
		engine: engine,
		log:    logger.For("mermaid"),
	}
}

// Render implements driven.DiagramRenderer.
func (r *Renderer) Render(ctx context.Context, kind domain.DiagramKind, source string) ([]byte, error) {
	if kind != domain.DiagramMermaid {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedDiagram, kind)
	}

	prepared := Preprocess(source)
	if prepared != source {
		svg, err := r.attempt(ctx, prepared)
		if err == nil {
			return svg, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		r.log.Debug("preprocessed source rejected by %s, retrying original: %v", r.engine.Name(), err)
	}
	return r.attempt(ctx, source)
}

func (r *Renderer) attempt(ctx context.Context, source string) (svg []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			svg = nil
			err = fmt.Errorf("%w: %s engine panicked (unsupported diagram syntax): %v",
				domain.ErrDiagramRender, r.engine.Name(), rec)
		}
	}()

	svg, err = r.engine.Render(ctx, source)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", domain.ErrDiagramTimeout, err)
		}
		if errors.Is(err, domain.ErrDiagramRender) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrDiagramRender, err)
	}
	if err := ValidateSVG(svg); err != nil {
		return nil, err
	}
	return svg, nil
}

// Preprocess rewrites constructs that engines commonly reject:
// HTML line breaks inside labels become spaces, and bidirectional
// or decorated arrows become plain links.
func Preprocess(source string) string {
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")
	for i, line := range lines {
		lines[i] = preprocessReplacer.Replace(line)
	}
	out := strings.Join(lines, "\n")
	if strings.HasSuffix(source, "\n") {
		out += "\n"
	}
	return out
}

var preprocessReplacer = strings.NewReplacer(
	"<br/>", " ",
	"<br />", " ",
	"<br>", " ",
	"<-->", "---",
	"x--x", "---",
	"o--o", "---",
)
