package domain

import "time"

// WatchOp is the kind of change a WatchEvent reports.
type WatchOp int

const (
	// WatchChanged indicates the file exists and its content may have changed.
	WatchChanged WatchOp = iota

	// WatchRemoved indicates the file was missing when the debounce window closed.
	WatchRemoved
)

// String returns the operation name.
func (o WatchOp) String() string {
	switch o {
	case WatchChanged:
		return "changed"
	case WatchRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// WatchEvent is a coalesced change notification.
// Any number of raw filesystem events inside one debounce window yield one WatchEvent.
type WatchEvent struct {
	// Seq strictly increases per watcher, starting at 1.
	Seq uint64

	// Path is the watched file.
	Path string

	// Op reports whether the file was present when the window closed.
	Op WatchOp

	// Timestamp is the time of the last raw event in the window.
	Timestamp time.Time
}
