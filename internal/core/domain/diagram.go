package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DiagramKind identifies the diagram language, taken from the fence info string.
type DiagramKind string

// DiagramMermaid is the only kind enabled by default.
const DiagramMermaid DiagramKind = "mermaid"

// DiagramSpec is an embedded diagram. Its identity is Hash.
type DiagramSpec struct {
	Kind   DiagramKind
	Source string

	// Hash covers Kind and Source together.
	Hash string
}

// NewDiagramSpec builds a spec and computes its content hash.
func NewDiagramSpec(kind DiagramKind, source string) DiagramSpec {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return DiagramSpec{
		Kind:   kind,
		Source: source,
		Hash:   hex.EncodeToString(h.Sum(nil)),
	}
}

// DiagramStatus is the render state of one diagram.
type DiagramStatus int

const (
	// DiagramPending means a render is in flight.
	DiagramPending DiagramStatus = iota

	// DiagramSucceeded means Payload holds vector output.
	DiagramSucceeded

	// DiagramFailed means Err holds the collaborator's message.
	DiagramFailed
)

// String returns the status name.
func (s DiagramStatus) String() string {
	switch s {
	case DiagramPending:
		return "pending"
	case DiagramSucceeded:
		return "succeeded"
	case DiagramFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RenderedDiagram is the outcome of rendering a DiagramSpec.
type RenderedDiagram struct {
	Hash   string
	Kind   DiagramKind
	Status DiagramStatus

	// Payload is the SVG document when Status is DiagramSucceeded.
	Payload []byte

	// Err is the failure message when Status is DiagramFailed.
	Err string

	// Source is kept so failures can be shown next to the raw diagram text.
	Source string

	RenderedAt time.Time
}

// PendingDiagram returns the placeholder result for a spec being rendered.
func PendingDiagram(spec DiagramSpec) RenderedDiagram {
	return RenderedDiagram{
		Hash:   spec.Hash,
		Kind:   spec.Kind,
		Status: DiagramPending,
		Source: spec.Source,
	}
}

// IsTerminal reports whether the render has finished, successfully or not.
func (r RenderedDiagram) IsTerminal() bool {
	return r.Status == DiagramSucceeded || r.Status == DiagramFailed
}
