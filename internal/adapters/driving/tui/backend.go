package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/messages"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// BackendName is the name the terminal backend registers under.
const BackendName = "tui"

// Ensure Backend implements the interface.
var _ driven.Backend = (*Backend)(nil)

// Backend feeds pipeline snapshots into a running Bubbletea program.
type Backend struct {
	app  *App
	opts []tea.ProgramOption
	log  logger.Logger

	mu      sync.Mutex
	program *tea.Program
}

// NewBackend creates a terminal backend. Extra program options are passed
// to Bubbletea, mainly so tests can run without a terminal.
func NewBackend(ports *Ports, opts ...tea.ProgramOption) (*Backend, error) {
	app, err := NewApp(ports)
	if err != nil {
		return nil, err
	}
	return &Backend{
		app:  app,
		opts: opts,
		log:  logger.For("tui"),
	}, nil
}

// Name identifies the backend.
func (b *Backend) Name() string {
	return BackendName
}

// App returns the underlying model.
func (b *Backend) App() *App {
	return b.app
}

// OnSnapshot forwards a snapshot to the program. Snapshots that arrive
// before Run are picked up by the app's initial load instead.
func (b *Backend) OnSnapshot(snap domain.Snapshot, anchor *domain.ScrollAnchor) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return
	}
	p.Send(messages.SnapshotReceived{Snapshot: snap, Anchor: anchor})
}

// ReportAnchor returns the block at the top of the terminal viewport.
func (b *Backend) ReportAnchor() (domain.ScrollAnchor, bool) {
	return b.app.Anchor()
}

// Run starts the program and blocks until the user quits or ctx is cancelled.
func (b *Backend) Run(ctx context.Context) error {
	b.app.WithContext(ctx)
	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, b.opts...)
	p := tea.NewProgram(b.app, opts...)

	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.program = nil
		b.mu.Unlock()
	}()

	b.log.Debug("starting terminal view")
	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil) {
		return nil
	}
	return err
}
