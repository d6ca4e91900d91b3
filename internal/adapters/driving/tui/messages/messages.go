// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// SnapshotReceived carries a published snapshot from the pipeline.
// Anchor is the resolved scroll position to restore, or nil to keep the
// current position.
type SnapshotReceived struct {
	Snapshot domain.Snapshot
	Anchor   *domain.ScrollAnchor
}

// OutlineLoaded carries the table of contents for the current document.
type OutlineLoaded struct {
	Generation uint64
	Entries    []domain.TocEntry
	Err        error
}

// OutlineEntrySelected asks the document view to jump to a heading.
type OutlineEntrySelected struct {
	Entry domain.TocEntry
}

// FocusChanged is sent when keyboard focus moves between panes.
type FocusChanged struct {
	Focus Focus
}

// Focus identifies which pane receives key presses.
type Focus int

const (
	// FocusDocument routes keys to the document view.
	FocusDocument Focus = iota
	// FocusOutline routes keys to the table of contents panel.
	FocusOutline
	// FocusHelp shows the key reference.
	FocusHelp
)

// String returns the string representation of the focus.
func (f Focus) String() string {
	switch f {
	case FocusDocument:
		return "document"
	case FocusOutline:
		return "outline"
	case FocusHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
