package driven

import (
	"context"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// SourceWatcher observes one file and emits debounced change notifications.
type SourceWatcher interface {
	// Watch starts watching and returns the event channel.
	// The channel holds at most one pending event; a newer event replaces
	// an unconsumed one. It is closed when ctx is cancelled or Close is called.
	Watch(ctx context.Context) (<-chan domain.WatchEvent, error)

	// Errors returns transient failures such as ErrFileUnavailable.
	// The watcher keeps running after reporting them.
	Errors() <-chan error

	// Close stops watching. Safe to call more than once.
	Close() error
}

// SourceReader returns the raw bytes of a file on demand.
type SourceReader interface {
	// Read returns the file contents. Failures wrap domain.ErrFileUnavailable.
	Read(ctx context.Context, path string) ([]byte, error)
}
