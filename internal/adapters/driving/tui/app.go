package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/components/status"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/components/toc"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/keymap"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/messages"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/styles"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/views/document"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// outlineMaxWidth caps the width of the outline panel.
const outlineMaxWidth = 32

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// documentView renders the live document.
	documentView *document.View

	// outline is the table of contents panel.
	outline *toc.Outline

	// statusBar shows pipeline state and key hints.
	statusBar *status.Bar

	// focus tracks which pane receives key presses.
	focus messages.Focus

	// title is the document title shown in the window title.
	title string

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		documentView: document.NewView(s, km, ports.Highlighter),
		outline:      toc.NewOutline(s, km),
		statusBar:    status.NewBar(s, km),
		focus:        messages.FocusDocument,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
// It shows whatever the pipeline has already published.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("mdr"),
		a.loadCurrent(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case messages.SnapshotReceived:
		return a, a.applySnapshot(msg)

	case messages.OutlineLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		if msg.Generation == a.documentView.Snapshot().Generation() {
			a.outline.Update(msg)
		}
		return a, nil

	case messages.OutlineEntrySelected:
		a.documentView.Update(msg)
		a.setFocus(messages.FocusDocument)
		a.statusBar.SetPercent(a.documentView.Percent())
		return a, nil

	case messages.FocusChanged:
		a.setFocus(msg.Focus)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return tea.Quit
	case keymap.Matches(k, a.keymap.Help):
		if a.focus == messages.FocusHelp {
			a.setFocus(messages.FocusDocument)
		} else {
			a.setFocus(messages.FocusHelp)
		}
		return nil
	case keymap.Matches(k, a.keymap.Back):
		a.setFocus(messages.FocusDocument)
		return nil
	case keymap.Matches(k, a.keymap.Outline):
		if a.focus == messages.FocusOutline {
			a.setFocus(messages.FocusDocument)
		} else {
			a.setFocus(messages.FocusOutline)
		}
		return nil
	}

	switch a.focus {
	case messages.FocusOutline:
		_, cmd := a.outline.Update(msg)
		return cmd
	case messages.FocusDocument:
		a.documentView.Update(msg)
		a.statusBar.SetPercent(a.documentView.Percent())
	}
	return nil
}

// applySnapshot shows a published snapshot and reloads the outline when
// the document generation changed.
func (a *App) applySnapshot(msg messages.SnapshotReceived) tea.Cmd {
	prevGen := a.documentView.Snapshot().Generation()
	a.documentView.Update(msg)
	a.statusBar.SetSnapshot(msg.Snapshot)
	a.statusBar.SetPercent(a.documentView.Percent())

	var cmds []tea.Cmd
	if gen := msg.Snapshot.Generation(); gen != 0 && gen != prevGen {
		cmds = append(cmds, a.loadOutline(gen))
	}
	if doc := msg.Snapshot.Document; doc != nil && doc.Title != a.title {
		a.title = doc.Title
		cmds = append(cmds, tea.SetWindowTitle("mdr - "+doc.Title))
	}
	return tea.Batch(cmds...)
}

func (a *App) loadCurrent() tea.Cmd {
	return func() tea.Msg {
		snap, ok := a.ports.Pipeline.Current()
		if !ok {
			return nil
		}
		return messages.SnapshotReceived{Snapshot: snap}
	}
}

func (a *App) loadOutline(generation uint64) tea.Cmd {
	return func() tea.Msg {
		entries, err := a.ports.Document.Outline()
		return messages.OutlineLoaded{Generation: generation, Entries: entries, Err: err}
	}
}

func (a *App) setFocus(f messages.Focus) {
	a.focus = f
	a.statusBar.SetOutlineFocus(f == messages.FocusOutline)
	a.resize()
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.focus {
	case messages.FocusHelp:
		body = a.viewHelp()
	case messages.FocusOutline:
		panel := lipgloss.NewStyle().
			Width(a.outlineWidth()).
			Height(a.bodyHeight()).
			Render(a.outline.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, panel, " ", a.documentView.View())
	default:
		body = a.documentView.View()
	}

	body = lipgloss.NewStyle().Height(a.bodyHeight()).MaxHeight(a.bodyHeight()).Render(body)
	return body + "\n" + a.statusBar.View()
}

// viewHelp renders the key reference.
func (a *App) viewHelp() string {
	lines := []string{a.styles.Title.Render("Help"), ""}
	for _, group := range a.keymap.FullHelp() {
		for _, b := range group {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("  %-10s %s", h.Key, h.Desc))
		}
		lines = append(lines, "")
	}
	lines = append(lines, a.styles.Muted.Render("[?] back to document"))
	return strings.Join(lines, "\n")
}

func (a *App) bodyHeight() int {
	return max(a.height-1, 1)
}

func (a *App) outlineWidth() int {
	return min(outlineMaxWidth, max(a.width/3, 1))
}

// resize distributes the terminal size between the panes.
func (a *App) resize() {
	if !a.ready {
		return
	}
	docWidth := a.width
	if a.focus == messages.FocusOutline {
		docWidth = max(a.width-a.outlineWidth()-1, 1)
		a.outline.SetDimensions(a.outlineWidth(), a.bodyHeight())
	}
	a.documentView.SetDimensions(docWidth, a.bodyHeight())
	a.statusBar.SetWidth(a.width)
	a.statusBar.SetPercent(a.documentView.Percent())
}

// Anchor returns the visible position. Safe to call from any goroutine.
func (a *App) Anchor() (domain.ScrollAnchor, bool) {
	return a.documentView.Anchor()
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Focus returns the focused pane.
func (a *App) Focus() messages.Focus {
	return a.focus
}

// Title returns the title of the displayed document.
func (a *App) Title() string {
	return a.title
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.resize()
}
