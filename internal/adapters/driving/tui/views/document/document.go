// Package document provides the scrolling document view for the TUI.
//
// The view lays the current snapshot out as terminal lines and tracks its
// scroll position as a content anchor: the block at the top of the viewport
// and the fraction of that block scrolled past. The anchor is published
// after every change so the pipeline can read it from another goroutine.
package document

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/keymap"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/messages"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/styles"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
)

// View is the document view.
type View struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	highlighter driven.Highlighter

	snapshot domain.Snapshot
	layout   layout
	offset   int
	width    int
	height   int

	anchor atomic.Pointer[domain.ScrollAnchor]
}

// NewView creates a document view. The highlighter may be nil.
func NewView(s *styles.Styles, km *keymap.KeyMap, highlighter driven.Highlighter) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:      s,
		keymap:      km,
		highlighter: highlighter,
		width:       80,
		height:      24,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SnapshotReceived:
		v.SetSnapshot(msg.Snapshot, msg.Anchor)
	case messages.OutlineEntrySelected:
		v.ScrollToBlock(msg.Entry.BlockID)
	case tea.KeyMsg:
		v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(k string) {
	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.scrollBy(-1)
	case keymap.Matches(k, v.keymap.Down):
		v.scrollBy(1)
	case keymap.Matches(k, v.keymap.PageUp):
		v.scrollBy(-v.bodyHeight())
	case keymap.Matches(k, v.keymap.PageDown):
		v.scrollBy(v.bodyHeight())
	case keymap.Matches(k, v.keymap.Top):
		v.setOffset(0)
	case keymap.Matches(k, v.keymap.Bottom):
		v.setOffset(v.maxOffset())
	}
}

// SetSnapshot replaces the displayed snapshot. A non-nil anchor is scrolled
// to; otherwise the current top block keeps its position when it survives.
func (v *View) SetSnapshot(snap domain.Snapshot, anchor *domain.ScrollAnchor) {
	prev := v.topAnchor()
	v.snapshot = snap
	v.relayout()

	switch {
	case anchor != nil:
		v.scrollTo(*anchor)
	case prev != nil:
		v.scrollTo(*prev)
	default:
		v.setOffset(v.offset)
	}
}

// ScrollToBlock puts the start of a block at the top of the viewport.
func (v *View) ScrollToBlock(id domain.BlockID) bool {
	idx := v.snapshot.Document.IndexOf(id)
	if idx < 0 || idx >= len(v.layout.starts) {
		return false
	}
	v.setOffset(v.layout.starts[idx])
	return true
}

// SetDimensions sets the width and body height of the view.
func (v *View) SetDimensions(width, height int) {
	prev := v.topAnchor()
	v.width = max(width, 1)
	v.height = max(height, 1)
	v.relayout()
	if prev != nil {
		v.scrollTo(*prev)
	} else {
		v.setOffset(v.offset)
	}
}

// Anchor returns the last published scroll anchor.
// It is safe to call from any goroutine.
func (v *View) Anchor() (domain.ScrollAnchor, bool) {
	a := v.anchor.Load()
	if a == nil {
		return domain.ScrollAnchor{}, false
	}
	return *a, true
}

// View renders the visible part of the document.
func (v *View) View() string {
	var b strings.Builder

	if v.snapshot.State == domain.StateError {
		msg := "file unavailable"
		if v.snapshot.Err != nil {
			msg = v.snapshot.Err.Error()
		}
		b.WriteString(v.styles.Overlay.Render(fmt.Sprintf("⚠ %s (showing last good version)", msg)))
		b.WriteString("\n")
	}

	if v.snapshot.Document == nil {
		b.WriteString(v.styles.Muted.Render("Loading…"))
		return b.String()
	}
	if len(v.layout.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(empty document)"))
		return b.String()
	}

	end := min(v.offset+v.bodyHeight(), len(v.layout.lines))
	b.WriteString(strings.Join(v.layout.lines[v.offset:end], "\n"))
	return b.String()
}

// Offset returns the index of the top visible line.
func (v *View) Offset() int {
	return v.offset
}

// LineCount returns the number of laid out lines.
func (v *View) LineCount() int {
	return len(v.layout.lines)
}

// Percent returns how far through the document the viewport is.
func (v *View) Percent() int {
	m := v.maxOffset()
	if m == 0 {
		return 100
	}
	return v.offset * 100 / m
}

// Snapshot returns the displayed snapshot.
func (v *View) Snapshot() domain.Snapshot {
	return v.snapshot
}

func (v *View) relayout() {
	v.layout = buildLayout(painter{
		styles:      v.styles,
		highlighter: v.highlighter,
		snapshot:    v.snapshot,
		width:       v.width,
	})
}

// bodyHeight is the number of document lines that fit under the overlay.
func (v *View) bodyHeight() int {
	h := v.height
	if v.snapshot.State == domain.StateError {
		h--
	}
	return max(h, 1)
}

func (v *View) maxOffset() int {
	return max(len(v.layout.lines)-v.bodyHeight(), 0)
}

func (v *View) scrollBy(delta int) {
	v.setOffset(v.offset + delta)
}

func (v *View) setOffset(offset int) {
	v.offset = min(max(offset, 0), v.maxOffset())
	v.publish()
}

// topAnchor derives the anchor for the current offset.
func (v *View) topAnchor() *domain.ScrollAnchor {
	doc := v.snapshot.Document
	idx := v.layout.blockAt(v.offset)
	if doc == nil || idx < 0 || idx >= len(doc.Blocks) {
		return nil
	}
	frac := float64(v.offset-v.layout.starts[idx]) / float64(v.layout.heights[idx])
	return &domain.ScrollAnchor{BlockID: doc.Blocks[idx].ID, Offset: frac}
}

func (v *View) scrollTo(a domain.ScrollAnchor) {
	idx := v.snapshot.Document.IndexOf(a.BlockID)
	if idx < 0 || idx >= len(v.layout.starts) {
		v.setOffset(v.offset)
		return
	}
	within := int(math.Round(a.Offset * float64(v.layout.heights[idx])))
	v.setOffset(v.layout.starts[idx] + within)
}

func (v *View) publish() {
	v.anchor.Store(v.topAnchor())
}
