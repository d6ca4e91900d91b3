package domain

import "errors"

// Domain errors represent pipeline failures.
// Only ErrBackendUnavailable is fatal, and only at startup.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDocument indicates no document has been loaded yet.
	ErrNoDocument = errors.New("no document loaded")

	// Source Errors.

	// ErrFileNotFound indicates the source file does not exist at startup.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileUnavailable indicates the source file is temporarily unreadable.
	// The watcher keeps running and the pipeline recovers on the next event.
	ErrFileUnavailable = errors.New("file currently unreadable")

	// ErrWatcherClosed indicates the watcher has been closed.
	ErrWatcherClosed = errors.New("watcher closed")

	// Diagram Errors.

	// ErrUnsupportedDiagram indicates no renderer is registered for a diagram kind.
	ErrUnsupportedDiagram = errors.New("unsupported diagram kind")

	// ErrDiagramRender indicates the rendering collaborator rejected a diagram.
	ErrDiagramRender = errors.New("diagram render failed")

	// ErrDiagramTimeout indicates the rendering collaborator did not answer in time.
	ErrDiagramTimeout = errors.New("diagram render timed out")

	// Backend Errors.

	// ErrBackendUnavailable indicates there is no presentation backend to dispatch to.
	ErrBackendUnavailable = errors.New("no presentation backend available")

	// ErrUnknownBackend indicates a backend name that is not recognised.
	ErrUnknownBackend = errors.New("unknown backend")
)
