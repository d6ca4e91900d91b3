package services

import (
	"math"
	"sync/atomic"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// AnchorResolution describes how an anchor was carried into a new document.
type AnchorResolution int

const (
	// AnchorNone means there was nothing to resolve.
	AnchorNone AnchorResolution = iota

	// AnchorExact means the anchored block survived.
	AnchorExact

	// AnchorPreceding means the nearest earlier surviving block was used.
	AnchorPreceding

	// AnchorClamped means the anchor fell back to a position in the new document.
	AnchorClamped
)

// String returns the resolution name.
func (r AnchorResolution) String() string {
	switch r {
	case AnchorNone:
		return "none"
	case AnchorExact:
		return "exact"
	case AnchorPreceding:
		return "preceding"
	case AnchorClamped:
		return "clamped"
	default:
		return "unknown"
	}
}

// ResolveAnchor carries a scroll anchor from prev into next.
//
// The anchored block wins if it still exists. Otherwise the nearest block
// before it in prev that also exists in next is used, positioned at its end.
// Failing that the anchor keeps its index, clamped to the last block of next.
// A nil anchor or an empty next document resolves to nil.
func ResolveAnchor(prev, next *domain.Document, anchor *domain.ScrollAnchor) (*domain.ScrollAnchor, AnchorResolution) {
	if anchor == nil || next == nil || len(next.Blocks) == 0 {
		return nil, AnchorNone
	}

	if next.IndexOf(anchor.BlockID) >= 0 {
		return &domain.ScrollAnchor{BlockID: anchor.BlockID, Offset: clampOffset(anchor.Offset)}, AnchorExact
	}

	last := len(next.Blocks) - 1
	oldIndex := prev.IndexOf(anchor.BlockID)
	if oldIndex < 0 {
		return &domain.ScrollAnchor{BlockID: next.Blocks[last].ID, Offset: 1}, AnchorClamped
	}

	surviving := make(map[domain.BlockID]struct{}, len(next.Blocks))
	for i := range next.Blocks {
		surviving[next.Blocks[i].ID] = struct{}{}
	}
	for i := oldIndex - 1; i >= 0; i-- {
		id := prev.Blocks[i].ID
		if _, ok := surviving[id]; ok {
			return &domain.ScrollAnchor{BlockID: id, Offset: 1}, AnchorPreceding
		}
	}

	if oldIndex >= last {
		return &domain.ScrollAnchor{BlockID: next.Blocks[last].ID, Offset: 1}, AnchorClamped
	}
	return &domain.ScrollAnchor{BlockID: next.Blocks[oldIndex].ID, Offset: 0}, AnchorClamped
}

func clampOffset(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// AnchorStats counts resolutions by outcome.
type AnchorStats struct {
	Exact     uint64
	Preceding uint64
	Clamped   uint64
	Missing   uint64
}

// AnchorTracker asks the active backend where it is and carries that
// position across document replacements.
type AnchorTracker struct {
	active func() (driven.Backend, bool)
	log    logger.Logger

	exact     atomic.Uint64
	preceding atomic.Uint64
	clamped   atomic.Uint64
	missing   atomic.Uint64
}

// NewAnchorTracker creates a tracker that queries the backend returned by active.
func NewAnchorTracker(active func() (driven.Backend, bool)) *AnchorTracker {
	return &AnchorTracker{
		active: active,
		log:    logger.For("anchor"),
	}
}

// Capture returns the active backend's visible anchor, or nil when it has none.
// A panicking backend is treated as having no anchor.
func (t *AnchorTracker) Capture() (anchor *domain.ScrollAnchor) {
	if t.active == nil {
		return nil
	}
	backend, ok := t.active()
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			t.log.Warn("%s panicked reporting its anchor: %v", backend.Name(), r)
			anchor = nil
		}
	}()

	a, ok := backend.ReportAnchor()
	if !ok {
		return nil
	}
	return &a
}

// Resolve carries anchor from prev into next and records the outcome.
func (t *AnchorTracker) Resolve(prev, next *domain.Document, anchor *domain.ScrollAnchor) *domain.ScrollAnchor {
	resolved, how := ResolveAnchor(prev, next, anchor)
	switch how {
	case AnchorExact:
		t.exact.Add(1)
	case AnchorPreceding:
		t.preceding.Add(1)
	case AnchorClamped:
		t.clamped.Add(1)
	default:
		t.missing.Add(1)
	}
	if anchor != nil && resolved != nil && how != AnchorExact {
		t.log.Debug("anchor %s moved to %s (%s)", anchor.BlockID, resolved.BlockID, how)
	}
	return resolved
}

// Stats returns resolution counters.
func (t *AnchorTracker) Stats() AnchorStats {
	return AnchorStats{
		Exact:     t.exact.Load(),
		Preceding: t.preceding.Load(),
		Clamped:   t.clamped.Load(),
		Missing:   t.missing.Load(),
	}
}
