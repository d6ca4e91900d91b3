package surface

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/parsers/markdown"
)

func testSnapshot(t *testing.T, src string, revision uint64) domain.Snapshot {
	t.Helper()
	res := markdown.New().Parse([]byte(src))
	return domain.Snapshot{
		Document: &domain.Document{
			Generation: 1,
			Path:       "doc.md",
			Title:      res.Title,
			Blocks:     res.Blocks,
			Diagrams:   res.Diagrams,
		},
		Diagrams: map[string]domain.RenderedDiagram{},
		State:    domain.StateReady,
		Revision: revision,
	}
}

func longSource() string {
	var b strings.Builder
	b.WriteString("# Title\n\n")
	for i := range 40 {
		fmt.Fprintf(&b, "## Section %d\n\nParagraph number %d with a little text.\n\n", i, i)
	}
	return b.String()
}

func newTestBackend(t *testing.T, sink FrameSink) *Backend {
	t.Helper()
	b, err := NewBackend(400, 300, sink)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestNewBackend_InvalidSize(t *testing.T) {
	_, err := NewBackend(0, 100, nil)

	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestBackend_Name(t *testing.T) {
	b := newTestBackend(t, nil)

	assert.Equal(t, BackendName, b.Name())
	_, ok := b.ReportAnchor()
	assert.False(t, ok)
}

func TestBackend_PresentsFrame(t *testing.T) {
	sink := &MemorySink{}
	b := newTestBackend(t, sink)

	b.OnSnapshot(testSnapshot(t, "# Hello\n\nSome text on the surface.\n", 3), nil)

	frame, n := sink.Latest()
	require.Equal(t, 1, n)
	assert.Equal(t, uint64(3), frame.Revision)
	assert.Equal(t, 400, frame.Image.Bounds().Dx())
	assert.Equal(t, 300, frame.Image.Bounds().Dy())

	painted := false
	bounds := frame.Image.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y && !painted; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, bl, _ := frame.Image.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || bl != 0xffff {
				painted = true
				break
			}
		}
	}
	assert.True(t, painted, "frame should contain more than background")
}

func TestBackend_StartsAtAnchor(t *testing.T) {
	b := newTestBackend(t, &MemorySink{})
	snap := testSnapshot(t, longSource(), 1)
	target := snap.Document.Blocks[40]

	b.OnSnapshot(snap, &domain.ScrollAnchor{BlockID: target.ID})

	anchor, ok := b.ReportAnchor()
	require.True(t, ok)
	assert.Equal(t, target.ID, anchor.BlockID)
	assert.InDelta(t, 0, anchor.Offset, 1e-9)
	assert.Greater(t, b.Top(), 0.0)
}

func TestBackend_KeepsPositionWithoutAnchor(t *testing.T) {
	b := newTestBackend(t, &MemorySink{})
	snap := testSnapshot(t, longSource(), 1)
	target := snap.Document.Blocks[30]
	b.OnSnapshot(snap, &domain.ScrollAnchor{BlockID: target.ID})

	patched := snap
	patched.Revision = 2
	b.OnSnapshot(patched, nil)

	anchor, ok := b.ReportAnchor()
	require.True(t, ok)
	assert.Equal(t, target.ID, anchor.BlockID)
}

func TestBackend_ScrollBy(t *testing.T) {
	sink := &MemorySink{}
	b := newTestBackend(t, sink)
	snap := testSnapshot(t, longSource(), 1)
	b.OnSnapshot(snap, nil)

	first, ok := b.ReportAnchor()
	require.True(t, ok)
	assert.Equal(t, snap.Document.Blocks[0].ID, first.BlockID)

	require.NoError(t, b.ScrollBy(500))
	moved, ok := b.ReportAnchor()
	require.True(t, ok)
	assert.NotEqual(t, first.BlockID, moved.BlockID)

	require.NoError(t, b.ScrollBy(-1e6))
	assert.Equal(t, 0.0, b.Top())

	_, n := sink.Latest()
	assert.Equal(t, 3, n)
}

func TestBackend_ClampsAtEnd(t *testing.T) {
	b := newTestBackend(t, &MemorySink{})
	snap := testSnapshot(t, longSource(), 1)
	last := snap.Document.Blocks[len(snap.Document.Blocks)-1]

	b.OnSnapshot(snap, &domain.ScrollAnchor{BlockID: last.ID, Offset: 1})

	require.NoError(t, b.ScrollBy(1e6))
	top := b.Top()
	require.NoError(t, b.ScrollBy(100))
	assert.Equal(t, top, b.Top())
}

func TestBackend_ErrorOverlay(t *testing.T) {
	sink := &MemorySink{}
	b := newTestBackend(t, sink)
	snap := testSnapshot(t, "text\n", 1)
	snap.State = domain.StateError
	snap.Err = domain.ErrFileUnavailable

	b.OnSnapshot(snap, nil)

	frame, _ := sink.Latest()
	r, g, _, _ := frame.Image.At(1, 1).RGBA()
	assert.Greater(t, r>>8, uint32(150), "overlay should be red")
	assert.Less(t, g>>8, uint32(100))
}

func TestBackend_DiagramStates(t *testing.T) {
	b := newTestBackend(t, &MemorySink{})
	snap := testSnapshot(t, "```mermaid\ngraph TD; A-->B\n```\n", 1)

	assert.NotPanics(t, func() { b.OnSnapshot(snap, nil) })

	spec := snap.Document.Diagrams[0]
	snap.Diagrams[spec.Hash] = domain.RenderedDiagram{Hash: spec.Hash, Status: domain.DiagramFailed, Err: "bad"}
	assert.NotPanics(t, func() { b.OnSnapshot(snap, nil) })
}

func TestBackend_RunStopsOnCancel(t *testing.T) {
	b := newTestBackend(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return")
	}
}

func TestPNGSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	sink := NewPNGSink(path)
	b := newTestBackend(t, sink)

	b.OnSnapshot(testSnapshot(t, "# Saved\n", 1), nil)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, path, sink.Path())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestPNGSink_MissingDirectory(t *testing.T) {
	sink := NewPNGSink(filepath.Join(t.TempDir(), "missing", "frame.png"))
	b := newTestBackend(t, nil)
	b.sink = sink

	b.mu.Lock()
	err := b.presentLocked()
	b.mu.Unlock()

	assert.Error(t, err)
}

func TestCompose_BlockSpans(t *testing.T) {
	f, err := loadFonts()
	require.NoError(t, err)
	defer f.close()
	snap := testSnapshot(t, "# A\n\nline\n\n```\ncode\nmore\n```\n\n---\n", 1)

	p := compose(f, 400, snap)

	require.Len(t, p.starts, len(snap.Document.Blocks))
	for i := 1; i < len(p.starts); i++ {
		assert.Greater(t, p.starts[i], p.starts[i-1])
	}
	assert.Equal(t, 1, p.blockAt(p.starts[1]+0.5))
	assert.Greater(t, p.height, p.starts[len(p.starts)-1])
}
