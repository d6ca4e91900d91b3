package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDiagramSpec(t *testing.T) {
	t.Run("identical kind and source share a hash", func(t *testing.T) {
		a := NewDiagramSpec(DiagramMermaid, "graph LR\n  A-->B\n")
		b := NewDiagramSpec(DiagramMermaid, "graph LR\n  A-->B\n")

		assert.Equal(t, a.Hash, b.Hash)
		assert.Len(t, a.Hash, 64)
	})

	t.Run("kind participates in the hash", func(t *testing.T) {
		a := NewDiagramSpec("mermaid", "A")
		b := NewDiagramSpec("dot", "A")

		assert.NotEqual(t, a.Hash, b.Hash)
	})

	t.Run("kind and source cannot be shifted into each other", func(t *testing.T) {
		a := NewDiagramSpec("ab", "c")
		b := NewDiagramSpec("a", "bc")

		assert.NotEqual(t, a.Hash, b.Hash)
	})
}

func TestRenderedDiagram_IsTerminal(t *testing.T) {
	spec := NewDiagramSpec(DiagramMermaid, "graph TD")

	pending := PendingDiagram(spec)
	assert.False(t, pending.IsTerminal())
	assert.Equal(t, spec.Hash, pending.Hash)
	assert.Equal(t, spec.Source, pending.Source)

	assert.True(t, RenderedDiagram{Status: DiagramSucceeded}.IsTerminal())
	assert.True(t, RenderedDiagram{Status: DiagramFailed}.IsTerminal())
}

func TestDiagramStatus_String(t *testing.T) {
	assert.Equal(t, "pending", DiagramPending.String())
	assert.Equal(t, "succeeded", DiagramSucceeded.String())
	assert.Equal(t, "failed", DiagramFailed.String())
	assert.Equal(t, "unknown", DiagramStatus(42).String())
}
