package surface

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gg"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// BackendName is the name the surface backend registers under.
const BackendName = "surface"

// ErrInvalidSize is returned for a frame without area.
var ErrInvalidSize = errors.New("surface: frame size must be positive")

// Ensure Backend implements the interface.
var _ driven.Backend = (*Backend)(nil)

// Backend paints snapshots into raster frames.
type Backend struct {
	width, height int
	sink          FrameSink
	fonts         *fonts
	log           logger.Logger

	mu       sync.Mutex
	snapshot domain.Snapshot
	page     page
	top      float64
	anchor   *domain.ScrollAnchor
}

// NewBackend creates a surface backend painting width×height frames.
func NewBackend(width, height int, sink FrameSink) (*Backend, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	f, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Backend{
		width:  width,
		height: height,
		sink:   sink,
		fonts:  f,
		log:    logger.For("surface"),
	}, nil
}

// Name identifies the backend.
func (b *Backend) Name() string {
	return BackendName
}

// OnSnapshot lays out the snapshot and paints a frame from the anchor.
// Without an anchor the previous top block keeps its place.
func (b *Backend) OnSnapshot(snap domain.Snapshot, anchor *domain.ScrollAnchor) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if anchor == nil {
		anchor = b.anchor
	}
	b.snapshot = snap
	b.page = compose(b.fonts, float64(b.width), snap)
	b.scrollToLocked(anchor)

	if err := b.presentLocked(); err != nil {
		b.log.Warn("presenting frame: %v", err)
	}
}

// ReportAnchor returns the block at the top of the last frame.
func (b *Backend) ReportAnchor() (domain.ScrollAnchor, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.anchor == nil {
		return domain.ScrollAnchor{}, false
	}
	return *b.anchor, true
}

// ScrollBy moves the viewport by dy pixels and repaints.
func (b *Backend) ScrollBy(dy float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setTopLocked(b.top + dy)
	return b.presentLocked()
}

// Run keeps the backend alive until ctx is cancelled. Frames are painted
// as snapshots arrive.
func (b *Backend) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Close releases the font sources. The backend must not be used afterwards.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fonts.close()
}

// Top returns the page offset of the viewport top.
func (b *Backend) Top() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.top
}

func (b *Backend) scrollToLocked(anchor *domain.ScrollAnchor) {
	idx := -1
	if anchor != nil {
		idx = b.snapshot.Document.IndexOf(anchor.BlockID)
	}
	if idx < 0 || idx >= len(b.page.starts) {
		b.setTopLocked(b.top)
		return
	}
	b.setTopLocked(b.page.starts[idx] + anchor.Offset*b.page.spans[idx])
}

func (b *Backend) setTopLocked(top float64) {
	maxTop := math.Max(b.page.height-float64(b.height), 0)
	b.top = math.Min(math.Max(top, 0), maxTop)

	if len(b.page.starts) == 0 {
		b.anchor = nil
		return
	}
	idx := b.page.blockAt(b.top)
	frac := (b.top - b.page.starts[idx]) / b.page.spans[idx]
	b.anchor = &domain.ScrollAnchor{
		BlockID: b.snapshot.Document.Blocks[idx].ID,
		Offset:  math.Min(math.Max(frac, 0), 1),
	}
}

// presentLocked paints the visible part of the page and hands it to the sink.
func (b *Backend) presentLocked() error {
	dc := gg.NewContext(b.width, b.height)
	defer dc.Close() //nolint:errcheck

	dc.ClearWithColor(palette.background)

	bottom := b.top + float64(b.height)
	for _, bd := range b.page.bands {
		if bd.y+bd.height < b.top || bd.y > bottom {
			continue
		}
		dc.SetColor(bd.color.Color())
		if bd.rule {
			dc.SetLineWidth(1)
			dc.DrawLine(margin, bd.y-b.top, float64(b.width)-margin, bd.y-b.top)
			if err := dc.Stroke(); err != nil {
				return fmt.Errorf("drawing rule: %w", err)
			}
			continue
		}
		dc.DrawRectangle(margin+bd.indent, bd.y-b.top, float64(b.width)-2*margin-bd.indent, bd.height)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("filling band: %w", err)
		}
	}

	for _, l := range b.page.lines {
		if l.y+l.height < b.top || l.y > bottom || l.text == "" {
			continue
		}
		dc.SetFont(l.face)
		dc.SetColor(l.color.Color())
		baseline := l.y - b.top + l.face.Metrics().Ascent
		dc.DrawString(l.text, margin+l.indent, baseline)
	}

	if b.snapshot.State == domain.StateError {
		msg := "file unavailable"
		if b.snapshot.Err != nil {
			msg = b.snapshot.Err.Error()
		}
		dc.SetColor(palette.failed.Color())
		dc.DrawRectangle(0, 0, float64(b.width), b.fonts.body.Metrics().LineHeight()+8)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("filling overlay: %w", err)
		}
		dc.SetFont(b.fonts.bold)
		dc.SetColor(palette.background.Color())
		dc.DrawString("⚠ "+msg+" (showing last good version)", margin, 4+b.fonts.bold.Metrics().Ascent)
	}

	if b.sink == nil {
		return nil
	}
	if err := dc.FlushGPU(); err != nil {
		return fmt.Errorf("flushing frame: %w", err)
	}
	return b.sink.Present(Frame{Image: dc.Image(), Revision: b.snapshot.Revision})
}
