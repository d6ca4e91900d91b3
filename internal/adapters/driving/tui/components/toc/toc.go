// Package toc provides the table of contents panel for the TUI.
package toc

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/keymap"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/messages"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/styles"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// Outline displays document headings in a navigable list.
type Outline struct {
	entries  []domain.TocEntry
	selected int
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	width    int
	height   int
}

// NewOutline creates a new outline component.
func NewOutline(s *styles.Styles, km *keymap.KeyMap) *Outline {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Outline{
		styles: s,
		keymap: km,
		width:  30,
		height: 10,
	}
}

// Init initialises the outline.
func (o *Outline) Init() tea.Cmd {
	return nil
}

// Update handles navigation. Select emits OutlineEntrySelected.
func (o *Outline) Update(msg tea.Msg) (*Outline, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.OutlineLoaded:
		if msg.Err == nil {
			o.SetEntries(msg.Entries)
		}
	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, o.keymap.Up):
			o.MoveUp()
		case keymap.Matches(k, o.keymap.Down):
			o.MoveDown()
		case keymap.Matches(k, o.keymap.Top):
			o.selected = 0
		case keymap.Matches(k, o.keymap.Bottom):
			o.selected = max(len(o.entries)-1, 0)
		case keymap.Matches(k, o.keymap.Select):
			if entry, ok := o.SelectedEntry(); ok {
				return o, func() tea.Msg {
					return messages.OutlineEntrySelected{Entry: entry}
				}
			}
		}
	}
	return o, nil
}

// View renders the outline.
func (o *Outline) View() string {
	if len(o.entries) == 0 {
		return o.styles.Muted.Render("No headings")
	}

	lines := make([]string, 0, o.height)
	lines = append(lines, o.styles.Subtitle.Render("Outline"), "")

	visible := max(o.height-2, 1)
	start := 0
	if o.selected >= visible {
		start = o.selected - visible + 1
	}
	end := min(start+visible, len(o.entries))

	for i := start; i < end; i++ {
		lines = append(lines, o.renderEntry(i))
	}
	return strings.Join(lines, "\n")
}

func (o *Outline) renderEntry(i int) string {
	e := o.entries[i]
	indicator := "  "
	if i == o.selected {
		indicator = "> "
	}
	indent := strings.Repeat("  ", max(e.Level-1, 0))
	text := runewidth.Truncate(indicator+indent+e.Text, max(o.width, 4), "…")
	if i == o.selected {
		return o.styles.Selected.Render(text)
	}
	return o.styles.Normal.Render(text)
}

// SetEntries replaces the entries. The selection stays on the same heading
// when it survives, otherwise it is clamped.
func (o *Outline) SetEntries(entries []domain.TocEntry) {
	var keep domain.BlockID
	if e, ok := o.SelectedEntry(); ok {
		keep = e.BlockID
	}
	o.entries = entries
	for i, e := range entries {
		if e.BlockID == keep {
			o.selected = i
			return
		}
	}
	o.selected = min(o.selected, max(len(entries)-1, 0))
}

// Entries returns the current entries.
func (o *Outline) Entries() []domain.TocEntry {
	return o.entries
}

// Selected returns the index of the highlighted entry.
func (o *Outline) Selected() int {
	return o.selected
}

// SelectedEntry returns the highlighted entry.
func (o *Outline) SelectedEntry() (domain.TocEntry, bool) {
	if o.selected < 0 || o.selected >= len(o.entries) {
		return domain.TocEntry{}, false
	}
	return o.entries[o.selected], true
}

// MoveUp moves selection up.
func (o *Outline) MoveUp() {
	if o.selected > 0 {
		o.selected--
	}
}

// MoveDown moves selection down.
func (o *Outline) MoveDown() {
	if o.selected < len(o.entries)-1 {
		o.selected++
	}
}

// SetDimensions sets the component dimensions.
func (o *Outline) SetDimensions(width, height int) {
	o.width = width
	o.height = height
}

// Width returns the current width.
func (o *Outline) Width() int {
	return o.width
}

// IsEmpty returns whether the outline has no headings.
func (o *Outline) IsEmpty() bool {
	return len(o.entries) == 0
}
