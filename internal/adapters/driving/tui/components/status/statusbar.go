// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/keymap"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/styles"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// Bar displays pipeline status and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    domain.PipelineState
	message  string
	pending  int
	failed   int
	percent  int
	outline  bool
	revision uint64
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  domain.StateIdle,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is mostly passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the pipeline state and diagram progress.
func (s *Bar) renderLeft() string {
	var parts []string
	switch s.state {
	case domain.StateError:
		if s.message != "" {
			parts = append(parts, s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message)))
		} else {
			parts = append(parts, s.styles.Error.Render("Error"))
		}
	case domain.StateReparsing:
		parts = append(parts, s.styles.Warning.Render("Reloading…"))
	case domain.StateIdle, domain.StateLoading:
		parts = append(parts, s.styles.Muted.Render("Loading…"))
	default:
		parts = append(parts, s.styles.Success.Render("Live"))
	}

	if s.pending > 0 {
		parts = append(parts, s.styles.Muted.Render(fmt.Sprintf("%d diagrams rendering", s.pending)))
	}
	if s.failed > 0 {
		parts = append(parts, s.styles.Error.Render(fmt.Sprintf("%d diagrams failed", s.failed)))
	}
	parts = append(parts, s.styles.Muted.Render(fmt.Sprintf("%d%%", s.percent)))
	return strings.Join(parts, s.styles.Muted.Render(" · "))
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.outline {
		bindings = s.keymap.OutlineHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetSnapshot updates state and diagram counts from a snapshot.
func (s *Bar) SetSnapshot(snap domain.Snapshot) {
	s.state = snap.State
	s.revision = snap.Revision
	s.message = ""
	if snap.Err != nil {
		s.message = snap.Err.Error()
	}
	s.pending, s.failed = 0, 0
	if snap.Document == nil {
		return
	}
	for _, spec := range snap.Document.Diagrams {
		switch snap.Diagram(spec).Status {
		case domain.DiagramPending:
			s.pending++
		case domain.DiagramFailed:
			s.failed++
		}
	}
}

// State returns the current pipeline state.
func (s *Bar) State() domain.PipelineState {
	return s.state
}

// Message returns the current error message.
func (s *Bar) Message() string {
	return s.message
}

// Pending returns how many diagrams are still rendering.
func (s *Bar) Pending() int {
	return s.pending
}

// Failed returns how many diagrams failed to render.
func (s *Bar) Failed() int {
	return s.failed
}

// Revision returns the revision of the last snapshot shown.
func (s *Bar) Revision() uint64 {
	return s.revision
}

// SetPercent sets the scroll position indicator.
func (s *Bar) SetPercent(percent int) {
	s.percent = percent
}

// SetOutlineFocus switches the key hints to the outline set.
func (s *Bar) SetOutlineFocus(focused bool) {
	s.outline = focused
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
