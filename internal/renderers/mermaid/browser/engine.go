// Package browser renders mermaid diagrams with mermaid.js inside headless
// Chrome driven through Rod.
//
// Chrome is launched on the first render and reused until Close. Each render
// gets its own tab so concurrent renders do not share mermaid state.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/logger"
	"github.com/niraj-khatiwada/mdr/internal/renderers/mermaid"
)

// Ensure Engine implements the interface.
var _ mermaid.Engine = (*Engine)(nil)

// ErrClosed is returned by Render after Close.
var ErrClosed = errors.New("browser engine closed")

// renderScript runs inside the tab. Mermaid needs a unique element id per render.
const renderScript = `async (source, id) => {
	mermaid.initialize({ startOnLoad: false, securityLevel: "strict" });
	const { svg } = await mermaid.render(id, source);
	return svg;
}`

// Engine renders diagrams in a lazily launched headless Chrome.
type Engine struct {
	scriptURL string
	remoteURL string

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool

	renders atomic.Uint64
	log     logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRemoteURL connects to an already running Chrome instead of launching one.
func WithRemoteURL(wsURL string) Option {
	return func(e *Engine) {
		e.remoteURL = wsURL
	}
}

// New creates an engine that loads mermaid.js from scriptURL.
func New(scriptURL string, opts ...Option) *Engine {
	if scriptURL == "" {
		scriptURL = domain.DefaultMermaidScript
	}
	e := &Engine{
		scriptURL: scriptURL,
		log:       logger.For("mermaid-browser"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return "chrome"
}

// Render opens a tab, loads mermaid.js and evaluates mermaid.render.
func (e *Engine) Render(ctx context.Context, source string) ([]byte, error) {
	b, err := e.ensure()
	if err != nil {
		return nil, err
	}

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, e.classify(ctx, fmt.Errorf("opening tab: %w", err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			e.log.Debug("closing tab: %v", err)
		}
	}()

	if err := page.AddScriptTag(e.scriptURL, ""); err != nil {
		return nil, e.classify(ctx, fmt.Errorf("loading %s: %w", e.scriptURL, err))
	}

	id := fmt.Sprintf("mdr-diagram-%d", e.renders.Add(1))
	res, err := page.Eval(renderScript, source, id)
	if err != nil {
		return nil, e.classify(ctx, err)
	}
	return []byte(res.Value.Str()), nil
}

// classify turns rod failures into domain errors.
func (e *Engine) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var evalErr *rod.EvalError
	if errors.As(err, &evalErr) && evalErr.RuntimeExceptionDetails != nil && evalErr.Exception != nil {
		return fmt.Errorf("%w: %s", domain.ErrDiagramRender, evalErr.Exception.Description)
	}
	return fmt.Errorf("%w: %w", domain.ErrDiagramRender, err)
}

// ensure launches or connects to Chrome on first use.
func (e *Engine) ensure() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}
	if e.browser != nil {
		return e.browser, nil
	}

	wsURL := e.remoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: launching chrome: %w", domain.ErrDiagramRender, err)
		}
		wsURL = u
		e.lnch = l
		e.log.Info("launched headless chrome at %s", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		e.cleanupLocked()
		return nil, fmt.Errorf("%w: connecting to chrome: %w", domain.ErrDiagramRender, err)
	}
	e.browser = b
	return b, nil
}

// Close shuts Chrome down. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return e.cleanupLocked()
}

func (e *Engine) cleanupLocked() error {
	var err error
	if e.browser != nil {
		err = e.browser.Close()
		e.browser = nil
	}
	if e.lnch != nil {
		e.lnch.Cleanup()
		e.lnch = nil
	}
	return err
}
