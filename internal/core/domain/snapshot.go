package domain

// PipelineState is the state of the live document pipeline.
type PipelineState int

const (
	// StateIdle is the state before Run.
	StateIdle PipelineState = iota

	// StateLoading covers the first read and parse.
	StateLoading

	// StateReady means the current document reflects the file.
	StateReady

	// StateReparsing means a change was observed and a parse is in flight.
	StateReparsing

	// StateError means the file is currently unreadable.
	// The last good document is still exposed.
	StateError
)

// String returns the state name.
func (s PipelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateReparsing:
		return "reparsing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ScrollAnchor is a content-addressed scroll position.
type ScrollAnchor struct {
	BlockID BlockID

	// Offset is the fraction of the block's rendered extent above the
	// viewport top, in [0, 1].
	Offset float64
}

// Snapshot pairs one Document generation with the diagram results its
// placeholders need. Backends receive snapshots by value and must treat
// them as read-only.
type Snapshot struct {
	// Document is nil only before the first successful parse.
	Document *Document

	// Diagrams holds an entry for every placeholder hash in Document.
	Diagrams map[string]RenderedDiagram

	// State is the pipeline state at publish time.
	State PipelineState

	// Err is the error overlay. Set only in StateError.
	Err error

	// Revision increases on every publish, including diagram patches.
	Revision uint64
}

// Generation returns the document generation, or zero when there is none.
func (s Snapshot) Generation() uint64 {
	if s.Document == nil {
		return 0
	}
	return s.Document.Generation
}

// Diagram returns the render result for a placeholder spec.
// Specs missing from the map are reported as pending.
func (s Snapshot) Diagram(spec DiagramSpec) RenderedDiagram {
	if rd, ok := s.Diagrams[spec.Hash]; ok {
		return rd
	}
	return PendingDiagram(spec)
}
