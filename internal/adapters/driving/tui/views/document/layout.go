package document

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/tui/styles"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
)

const (
	codeGutter  = "│ "
	quoteGutter = "▌ "
	ellipsis    = "…"
)

// layout is a document rendered to terminal lines for one width.
type layout struct {
	lines []string

	// owner maps each line to the index of the block that produced it.
	owner []int

	// starts and heights give each block's line range.
	starts  []int
	heights []int
}

func (l *layout) blockAt(line int) int {
	if line < 0 || line >= len(l.owner) {
		return -1
	}
	return l.owner[line]
}

// painter renders blocks at a fixed width.
type painter struct {
	styles      *styles.Styles
	highlighter driven.Highlighter
	snapshot    domain.Snapshot
	width       int
}

func buildLayout(p painter) layout {
	var l layout
	if p.snapshot.Document == nil {
		return l
	}
	for i, b := range p.snapshot.Document.Blocks {
		out := p.block(b)
		out = append(out, p.markers(b)...)
		out = append(out, "")

		l.starts = append(l.starts, len(l.lines))
		l.heights = append(l.heights, len(out))
		for _, line := range out {
			l.lines = append(l.lines, line)
			l.owner = append(l.owner, i)
		}
	}
	return l
}

//nolint:gocyclo // one case per block kind
func (p painter) block(b domain.Block) []string {
	s := p.styles
	switch b.Kind {
	case domain.BlockHeading:
		prefix := strings.Repeat("#", max(b.Level, 1)) + " "
		return styleAll(s.HeadingStyle(b.Level), wrap(prefix+b.Text, p.width))

	case domain.BlockParagraph:
		return styleAll(s.Normal, wrap(b.Text, p.width))

	case domain.BlockCode:
		return p.code(b.Code, b.Language)

	case domain.BlockQuote:
		lines := wrap(b.Text, p.width-runewidth.StringWidth(quoteGutter))
		out := make([]string, len(lines))
		for i, line := range lines {
			out[i] = s.Gutter.Render(quoteGutter) + s.Quote.Render(line)
		}
		return out

	case domain.BlockList:
		return p.list(b.List)

	case domain.BlockTable:
		return p.table(b.Table)

	case domain.BlockImage:
		text := "[image]"
		if b.Image != nil {
			text = fmt.Sprintf("[image: %s] %s", b.Image.Alt, b.Image.Src)
		}
		return styleAll(s.Muted, wrap(text, p.width))

	case domain.BlockDiagram:
		return p.diagram(b)

	case domain.BlockThematicBreak:
		return []string{s.Gutter.Render(strings.Repeat("─", max(p.width, 1)))}

	case domain.BlockFootnoteRef:
		label := "[?]"
		if b.Footnote != nil {
			label = "[" + strconv.Itoa(b.Footnote.Index) + "]"
		}
		return styleAll(s.Muted, wrap(label+" "+b.Text, p.width))

	default:
		return styleAll(s.Muted, clip(strings.Split(strings.TrimRight(b.Raw, "\n"), "\n"), p.width))
	}
}

func (p painter) markers(b domain.Block) []string {
	var out []string
	for _, m := range b.Markers {
		out = append(out, styleAll(p.styles.Warning, wrap("⚠ "+m.Message, p.width))...)
	}
	return out
}

func (p painter) code(code, language string) []string {
	code = strings.TrimRight(code, "\n")
	var spans []driven.Span
	if p.highlighter != nil {
		spans = p.highlighter.Highlight(code, language)
	}
	if len(spans) == 0 {
		spans = []driven.Span{{Text: code}}
	}

	budget := max(p.width-runewidth.StringWidth(codeGutter), 1)
	gutter := p.styles.Gutter.Render(codeGutter)

	var out []string
	var line strings.Builder
	used := 0
	clipped := false
	flush := func() {
		out = append(out, gutter+line.String())
		line.Reset()
		used = 0
		clipped = false
	}
	for _, span := range spans {
		parts := strings.Split(span.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				flush()
			}
			if clipped || part == "" {
				continue
			}
			part = strings.ReplaceAll(part, "\t", "    ")
			w := runewidth.StringWidth(part)
			if used+w > budget {
				part = runewidth.Truncate(part, budget-used, ellipsis)
				w = runewidth.StringWidth(part)
				clipped = true
			}
			line.WriteString(p.styles.SyntaxStyle(span.Class).Render(part))
			used += w
		}
	}
	flush()
	return out
}

func (p painter) list(l *domain.List) []string {
	if l == nil {
		return nil
	}
	var out []string
	for i, item := range l.Items {
		bullet := "• "
		switch {
		case item.Checked != nil && *item.Checked:
			bullet = "[x] "
		case item.Checked != nil:
			bullet = "[ ] "
		case l.Ordered && item.Depth == 0:
			bullet = strconv.Itoa(l.Start+ordinal(l.Items, i)) + ". "
		}
		indent := strings.Repeat("  ", item.Depth)
		lead := indent + bullet
		pad := strings.Repeat(" ", runewidth.StringWidth(lead))

		for j, line := range wrap(item.Text, p.width-runewidth.StringWidth(lead)) {
			if j == 0 {
				out = append(out, p.styles.Muted.Render(lead)+p.styles.Normal.Render(line))
				continue
			}
			out = append(out, pad+p.styles.Normal.Render(line))
		}
	}
	return out
}

// ordinal counts top-level items before index i.
func ordinal(items []domain.ListItem, i int) int {
	n := 0
	for _, it := range items[:i] {
		if it.Depth == 0 {
			n++
		}
	}
	return n
}

func (p painter) table(t *domain.Table) []string {
	if t == nil {
		return nil
	}
	cols := len(t.Header)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(t.Header)
	for _, row := range t.Rows {
		measure(row)
	}

	format := func(row []string) string {
		cells := make([]string, cols)
		for i := range cells {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			align := ""
			if i < len(t.Alignments) {
				align = t.Alignments[i]
			}
			cells[i] = pad(cell, widths[i], align)
		}
		return runewidth.Truncate(strings.Join(cells, " │ "), p.width, ellipsis)
	}

	var out []string
	if len(t.Header) > 0 {
		out = append(out, p.styles.Subtitle.Render(format(t.Header)))
		rules := make([]string, cols)
		for i, w := range widths {
			rules[i] = strings.Repeat("─", w)
		}
		out = append(out, p.styles.Gutter.Render(runewidth.Truncate(strings.Join(rules, "─┼─"), p.width, "")))
	}
	for _, row := range t.Rows {
		out = append(out, p.styles.Normal.Render(format(row)))
	}
	return out
}

func (p painter) diagram(b domain.Block) []string {
	s := p.styles
	if b.Diagram == nil {
		return nil
	}
	spec := *b.Diagram
	rd := p.snapshot.Diagram(spec)

	var status string
	style := s.Diagram
	switch rd.Status {
	case domain.DiagramSucceeded:
		status = fmt.Sprintf("◇ %s diagram rendered (%s SVG)", spec.Kind, byteSize(len(rd.Payload)))
	case domain.DiagramFailed:
		status = fmt.Sprintf("◇ %s diagram failed: %s", spec.Kind, rd.Err)
		style = s.Error
	default:
		status = fmt.Sprintf("◇ %s diagram rendering…", spec.Kind)
		style = s.Muted
	}

	out := styleAll(style, wrap(status, p.width))
	gutter := s.Gutter.Render(codeGutter)
	budget := max(p.width-runewidth.StringWidth(codeGutter), 1)
	for _, line := range clip(strings.Split(strings.TrimRight(spec.Source, "\n"), "\n"), budget) {
		out = append(out, gutter+s.Muted.Render(line))
	}
	return out
}

// wrap breaks text into lines no wider than width display cells.
// Explicit newlines are kept. Words wider than width are split.
func wrap(text string, width int) []string {
	width = max(width, 1)
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var line strings.Builder
		used := 0
		for _, word := range words {
			ww := runewidth.StringWidth(word)
			for ww > width {
				if used > 0 {
					out = append(out, line.String())
					line.Reset()
					used = 0
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					_, size := utf8.DecodeRuneInString(word)
					head = word[:size]
				}
				out = append(out, head)
				word = word[len(head):]
				ww = runewidth.StringWidth(word)
			}
			if ww == 0 {
				continue
			}
			if used > 0 && used+1+ww > width {
				out = append(out, line.String())
				line.Reset()
				used = 0
			}
			if used > 0 {
				line.WriteByte(' ')
				used++
			}
			line.WriteString(word)
			used += ww
		}
		if used > 0 {
			out = append(out, line.String())
		}
	}
	return out
}

// clip truncates every line to width display cells.
func clip(lines []string, width int) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = runewidth.Truncate(strings.ReplaceAll(line, "\t", "    "), max(width, 1), ellipsis)
	}
	return out
}

// pad fills s to width cells honouring a table column alignment.
func pad(s string, width int, align string) string {
	switch align {
	case "right":
		return runewidth.FillLeft(s, width)
	case "center":
		gap := width - runewidth.StringWidth(s)
		if gap <= 0 {
			return s
		}
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return runewidth.FillRight(s, width)
	}
}

func styleAll(st lipgloss.Style, lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = st.Render(line)
	}
	return out
}

func byteSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
