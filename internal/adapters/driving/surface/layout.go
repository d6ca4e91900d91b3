package surface

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

const (
	margin      = 32.0
	blockGap    = 10.0
	indentStep  = 24.0
	codePadding = 8.0
)

// palette holds the frame colours.
var palette = struct {
	background, text, muted, heading, code, quote, rule, failed, pending gg.RGBA
}{
	background: gg.Hex("#ffffff"),
	text:       gg.Hex("#1e1e2e"),
	muted:      gg.Hex("#6c7086"),
	heading:    gg.Hex("#1e66f5"),
	code:       gg.Hex("#f4f4f8"),
	quote:      gg.Hex("#8839ef"),
	rule:       gg.Hex("#ccccdd"),
	failed:     gg.Hex("#d20f39"),
	pending:    gg.Hex("#df8e1d"),
}

// line is one painted row of text.
type line struct {
	text   string
	face   text.Face
	color  gg.RGBA
	indent float64

	// y is the top of the row in page coordinates.
	y      float64
	height float64
}

// band is a filled rectangle behind a block, such as a code background.
type band struct {
	y, height float64
	indent    float64
	color     gg.RGBA
	rule      bool
}

// page is the laid out document.
type page struct {
	lines  []line
	bands  []band
	starts []float64
	spans  []float64
	height float64
}

// blockAt returns the index of the block covering page offset y.
func (p *page) blockAt(y float64) int {
	for i := range p.starts {
		if y < p.starts[i]+p.spans[i] {
			return i
		}
	}
	return len(p.starts) - 1
}

// composer lays blocks out for a fixed frame width.
type composer struct {
	fonts *fonts
	width float64
	snap  domain.Snapshot

	page page
	y    float64
}

func compose(f *fonts, width float64, snap domain.Snapshot) page {
	c := &composer{fonts: f, width: width, snap: snap, y: margin}
	if snap.Document != nil {
		for _, b := range snap.Document.Blocks {
			start := c.y
			c.block(b)
			for _, m := range b.Markers {
				c.text("⚠ "+m.Message, f.body, palette.pending, 0)
			}
			c.page.starts = append(c.page.starts, start)
			c.page.spans = append(c.page.spans, max(c.y-start, 1))
			c.y += blockGap
		}
	}
	c.page.height = c.y + margin
	return c.page
}

func (c *composer) block(b domain.Block) {
	f := c.fonts
	switch b.Kind {
	case domain.BlockHeading:
		c.text(b.Text, f.heading(b.Level), palette.heading, 0)
	case domain.BlockParagraph, domain.BlockFootnoteRef:
		t := b.Text
		if b.Footnote != nil {
			t = fmt.Sprintf("[%s] %s", b.Footnote.Label, t)
		}
		c.text(t, f.body, palette.text, 0)
	case domain.BlockQuote:
		c.text(b.Text, f.body, palette.quote, indentStep)
	case domain.BlockCode:
		c.code(b.Code, palette.text)
	case domain.BlockDiagram:
		c.diagram(b)
	case domain.BlockTable:
		if b.Table != nil {
			c.text(strings.Join(b.Table.Header, "  |  "), f.bold, palette.text, 0)
			for _, row := range b.Table.Rows {
				c.text(strings.Join(row, "  |  "), f.body, palette.text, 0)
			}
		}
	case domain.BlockList:
		if b.List != nil {
			n := b.List.Start
			if n == 0 {
				n = 1
			}
			for _, item := range b.List.Items {
				bullet := "•"
				switch {
				case item.Checked != nil && *item.Checked:
					bullet = "[x]"
				case item.Checked != nil:
					bullet = "[ ]"
				case b.List.Ordered && item.Depth == 0:
					bullet = fmt.Sprintf("%d.", n)
					n++
				}
				c.text(bullet+" "+item.Text, f.body, palette.text, float64(item.Depth)*indentStep)
			}
		}
	case domain.BlockImage:
		if b.Image != nil {
			c.text(fmt.Sprintf("[image: %s]", b.Image.Alt), f.body, palette.muted, 0)
		}
	case domain.BlockThematicBreak:
		c.page.bands = append(c.page.bands, band{y: c.y + blockGap/2, height: 1, color: palette.rule, rule: true})
		c.y += blockGap
	case domain.BlockRaw:
		c.code(b.Raw, palette.muted)
	}
}

func (c *composer) diagram(b domain.Block) {
	if b.Diagram == nil {
		return
	}
	rd := c.snap.Diagram(*b.Diagram)
	switch rd.Status {
	case domain.DiagramSucceeded:
		c.text(fmt.Sprintf("[%s diagram rendered, %d bytes of SVG]", b.Diagram.Kind, len(rd.Payload)),
			c.fonts.body, palette.heading, 0)
	case domain.DiagramFailed:
		c.text("Diagram failed: "+rd.Err, c.fonts.bold, palette.failed, 0)
		c.code(b.Diagram.Source, palette.muted)
	default:
		c.text("Rendering diagram…", c.fonts.body, palette.pending, 0)
		c.code(b.Diagram.Source, palette.muted)
	}
}

// code paints preformatted text on a shaded band without wrapping.
func (c *composer) code(src string, col gg.RGBA) {
	start := c.y
	c.y += codePadding
	for _, l := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
		c.add(l, c.fonts.mono, col, codePadding)
	}
	c.y += codePadding
	c.page.bands = append(c.page.bands, band{y: start, height: c.y - start, color: palette.code})
}

// text wraps s to the frame width and appends the rows.
func (c *composer) text(s string, face text.Face, col gg.RGBA, indent float64) {
	avail := c.width - 2*margin - indent
	for _, r := range text.WrapText(s, face, avail, text.WrapWordChar) {
		c.add(r.Text, face, col, indent)
	}
}

func (c *composer) add(s string, face text.Face, col gg.RGBA, indent float64) {
	h := face.Metrics().LineHeight()
	c.page.lines = append(c.page.lines, line{
		text:   s,
		face:   face,
		color:  col,
		indent: indent,
		y:      c.y,
		height: h,
	})
	c.y += h
}
