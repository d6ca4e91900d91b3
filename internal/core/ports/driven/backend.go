package driven

import "github.com/niraj-khatiwada/mdr/internal/core/domain"

// Backend is a presentation technology fed by the pipeline.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// OnSnapshot delivers a new or patched snapshot with the anchor the
	// backend should scroll to. Anchor is nil when there is nothing to restore.
	// It is called from a goroutine owned by the dispatcher and must not block long.
	OnSnapshot(snap domain.Snapshot, anchor *domain.ScrollAnchor)

	// ReportAnchor returns the currently visible position.
	// The second value is false when nothing is visible.
	ReportAnchor() (domain.ScrollAnchor, bool)
}
