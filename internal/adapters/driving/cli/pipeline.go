package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driven/highlight"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/browser"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/mcp"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/surface"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui"
	"github.com/niraj-khatiwada/mdr/internal/connectors/filesystem"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/core/services"
	"github.com/niraj-khatiwada/mdr/internal/logger"
	"github.com/niraj-khatiwada/mdr/internal/parsers/markdown"
	"github.com/niraj-khatiwada/mdr/internal/renderers"
	"github.com/niraj-khatiwada/mdr/internal/renderers/mermaid"
	headless "github.com/niraj-khatiwada/mdr/internal/renderers/mermaid/browser"
	mmdc "github.com/niraj-khatiwada/mdr/internal/renderers/mermaid/cli"
)

// Mermaid engine names accepted by --engine and diagrams.engine.
const (
	engineCLI     = "cli"
	engineBrowser = "browser"
)

// runner is a backend with its own event loop.
type runner interface {
	driven.Backend
	Run(ctx context.Context) error
}

// pipeline holds every component that serves one watched file.
type pipeline struct {
	path        string
	coordinator *services.Coordinator
	dispatcher  *services.Dispatcher
	diagrams    *services.DiagramService
	watcher     *filesystem.Watcher
	document    *services.DocumentService
	closers     []func()
	log         logger.Logger
}

func newPipeline(path string, cfg domain.Config) *pipeline {
	registry, closeRenderer := newDiagramRenderer(cfg.Diagrams)

	cache := services.NewDiagramCache(cfg.Diagrams.CacheCapacity)
	diagrams := services.NewDiagramService(registry, cache, cfg.Diagrams)
	watcher := filesystem.New(path,
		filesystem.WithDebounce(cfg.Watch.Debounce),
		filesystem.WithRetryInterval(cfg.Watch.RetryInterval),
	)
	parser := markdown.New(markdown.WithDiagramKinds(cfg.Diagrams.Kinds...))
	dispatcher := services.NewDispatcher()
	coordinator := services.NewCoordinator(path, watcher, watcher, parser, diagrams, dispatcher)

	return &pipeline{
		path:        path,
		coordinator: coordinator,
		dispatcher:  dispatcher,
		diagrams:    diagrams,
		watcher:     watcher,
		document:    services.NewDocumentService(coordinator),
		closers:     []func(){closeRenderer},
		log:         logger.For("cli"),
	}
}

// run registers the backends and drives them together with the coordinator.
// The first backend is the primary one. When it returns, everything stops.
func (p *pipeline) run(ctx context.Context, backends ...runner) error {
	if len(backends) == 0 {
		return fmt.Errorf("%w: no backend configured", domain.ErrBackendUnavailable)
	}
	for _, b := range backends {
		p.dispatcher.Register(b)
		p.log.Debug("registered backend %s", b.Name())
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		return p.coordinator.Run(runCtx)
	})
	for i, b := range backends {
		g.Go(func() error {
			if err := b.Run(runCtx); err != nil {
				return fmt.Errorf("%s backend: %w", b.Name(), err)
			}
			if i == 0 {
				cancel()
			}
			return nil
		})
	}
	return g.Wait()
}

// Close stops delivery first, then the renderers and the watcher.
func (p *pipeline) Close() {
	p.dispatcher.Close()
	p.diagrams.Close()
	if err := p.watcher.Close(); err != nil {
		p.log.Warn("closing watcher: %v", err)
	}
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// newDiagramRenderer builds the kind registry around the configured mermaid engine.
func newDiagramRenderer(cfg domain.DiagramConfig) (*renderers.Registry, func()) {
	log := logger.For("cli")
	registry := renderers.NewRegistry()

	var engine mermaid.Engine
	closeFn := func() {}
	switch cfg.Engine {
	case engineBrowser:
		e := headless.New(cfg.MermaidScriptURL)
		engine = e
		closeFn = func() {
			if err := e.Close(); err != nil {
				log.Warn("closing headless browser: %v", err)
			}
		}
	default:
		e := mmdc.New(cfg.MMDCPath)
		if !e.Available() {
			log.Warn("%s not found, diagrams will be shown as failed", cfg.MMDCPath)
		}
		engine = e
	}

	renderer := mermaid.New(engine)
	for _, kind := range cfg.Kinds {
		if kind == domain.DiagramMermaid {
			registry.Register(kind, renderer)
		}
	}
	return registry, closeFn
}

// newBackend builds the configured presentation backend.
func newBackend(cmd *cobra.Command, cfg domain.Config, p *pipeline) (runner, error) {
	switch cfg.Backend {
	case domain.BackendBrowser:
		fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on http://%s\n", p.path, cfg.BrowserAddr)
		return browser.NewBackend(cfg.BrowserAddr), nil

	case domain.BackendSurface:
		b, err := surface.NewBackend(cfg.Surface.Width, cfg.Surface.Height, surface.NewPNGSink(cfg.Surface.Output))
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, b.Close)
		fmt.Fprintf(cmd.ErrOrStderr(), "Writing frames of %s to %s\n", p.path, cfg.Surface.Output)
		return b, nil

	case domain.BackendTUI:
		ports := tui.NewPorts(p.coordinator, p.document, highlight.New())
		return tui.NewBackend(ports)

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, string(cfg.Backend))
	}
}

// mcpHTTP runs the MCP server over streamable HTTP instead of stdio.
type mcpHTTP struct {
	*mcp.Server
	addr string
}

func newMCPHTTP(p *pipeline, addr string) (*mcpHTTP, error) {
	srv, err := mcp.NewServer(&mcp.Ports{Document: p.document})
	if err != nil {
		return nil, err
	}
	return &mcpHTTP{Server: srv, addr: addr}, nil
}

// Run serves HTTP until ctx is cancelled.
func (m *mcpHTTP) Run(ctx context.Context) error {
	return m.Server.RunHTTP(ctx, m.addr)
}
