// Package cli renders mermaid diagrams with the mermaid-cli (mmdc) binary.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/renderers/mermaid"
)

// Ensure Engine implements the interface.
var _ mermaid.Engine = (*Engine)(nil)

// waitDelay bounds how long a killed mmdc may hold its output pipes open.
const waitDelay = 2 * time.Second

// Engine runs one mmdc process per diagram.
type Engine struct {
	path string
	args []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithArgs appends extra mmdc arguments, e.g. a theme or puppeteer config.
func WithArgs(args ...string) Option {
	return func(e *Engine) {
		e.args = append(e.args, args...)
	}
}

// New creates an engine that executes the mmdc binary at path.
// An empty path means "mmdc" looked up on PATH.
func New(path string, opts ...Option) *Engine {
	if path == "" {
		path = domain.DefaultMMDCPath
	}
	e := &Engine{path: path}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return "mmdc"
}

// Available reports whether the binary can be found.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.path)
	return err == nil
}

// Render writes source to a temp file, runs mmdc and reads back the SVG.
func (e *Engine) Render(ctx context.Context, source string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "mdr-mmdc-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "diagram.mmd")
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("writing diagram source: %w", err)
	}

	args := append([]string{"--quiet", "--input", in, "--output", out, "--backgroundColor", "transparent"}, e.args...)
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%w: %s not found: %w", domain.ErrDiagramRender, e.path, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrDiagramRender, msg)
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: mmdc produced no output: %w", domain.ErrDiagramRender, err)
	}
	return svg, nil
}
