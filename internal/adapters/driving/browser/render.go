package browser

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// renderer turns snapshot blocks into HTML fragments.
type renderer struct {
	policy *bluemonday.Policy
}

func newRenderer() *renderer {
	return &renderer{policy: bluemonday.UGCPolicy()}
}

// document renders every block of the snapshot, each wrapped in a section
// carrying its block id so the page can report and restore anchors.
func (r *renderer) document(snap domain.Snapshot) string {
	doc := snap.Document
	if doc == nil {
		return `<p class="muted">Loading…</p>`
	}
	if len(doc.Blocks) == 0 {
		return `<p class="muted">(empty document)</p>`
	}

	var b strings.Builder
	for _, blk := range doc.Blocks {
		fmt.Fprintf(&b, `<section class="block" data-block="%s">`, html.EscapeString(string(blk.ID)))
		b.WriteString(r.block(snap, blk))
		for _, m := range blk.Markers {
			fmt.Fprintf(&b, `<div class="marker">⚠ %s</div>`, html.EscapeString(m.Message))
		}
		b.WriteString("</section>\n")
	}
	return b.String()
}

func (r *renderer) block(snap domain.Snapshot, blk domain.Block) string {
	esc := html.EscapeString
	switch blk.Kind {
	case domain.BlockHeading:
		level := min(max(blk.Level, 1), 6)
		return fmt.Sprintf(`<h%d id="%s">%s</h%d>`, level, esc(domain.Slugify(blk.Text)), esc(blk.Text), level)
	case domain.BlockParagraph:
		return "<p>" + esc(blk.Text) + "</p>"
	case domain.BlockQuote:
		return "<blockquote>" + esc(blk.Text) + "</blockquote>"
	case domain.BlockCode:
		class := ""
		if blk.Language != "" {
			class = fmt.Sprintf(` class="language-%s"`, esc(blk.Language))
		}
		return fmt.Sprintf("<pre><code%s>%s</code></pre>", class, esc(blk.Code))
	case domain.BlockTable:
		return r.table(blk.Table)
	case domain.BlockList:
		return r.list(blk.List)
	case domain.BlockImage:
		if blk.Image == nil {
			return ""
		}
		return fmt.Sprintf(`<img src="%s" alt="%s" title="%s">`,
			esc(blk.Image.Src), esc(blk.Image.Alt), esc(blk.Image.Title))
	case domain.BlockDiagram:
		return r.diagram(snap, blk)
	case domain.BlockThematicBreak:
		return "<hr>"
	case domain.BlockFootnoteRef:
		label := ""
		if blk.Footnote != nil {
			label = blk.Footnote.Label
		}
		return fmt.Sprintf(`<div class="footnote"><sup>%s</sup> %s</div>`, esc(label), esc(blk.Text))
	case domain.BlockRaw:
		return r.policy.Sanitize(blk.Raw)
	default:
		return ""
	}
}

func (r *renderer) table(t *domain.Table) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for i, h := range t.Header {
		fmt.Fprintf(&b, "<th%s>%s</th>", alignAttr(t.Alignments, i), html.EscapeString(h))
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for i, cell := range row {
			fmt.Fprintf(&b, "<td%s>%s</td>", alignAttr(t.Alignments, i), html.EscapeString(cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func alignAttr(alignments []string, i int) string {
	if i >= len(alignments) {
		return ""
	}
	switch a := alignments[i]; a {
	case "left", "right", "center":
		return fmt.Sprintf(` style="text-align:%s"`, a)
	}
	return ""
}

// list renders a flattened list; nesting is shown by indentation.
func (r *renderer) list(l *domain.List) string {
	if l == nil {
		return ""
	}
	tag := "ul"
	if l.Ordered {
		tag = "ol"
	}
	var b strings.Builder
	if l.Ordered && l.Start > 1 {
		fmt.Fprintf(&b, `<%s start="%d">`, tag, l.Start)
	} else {
		fmt.Fprintf(&b, "<%s>", tag)
	}
	for _, item := range l.Items {
		style := ""
		if item.Depth > 0 {
			style = fmt.Sprintf(` style="margin-left:%dem"`, item.Depth*2)
		}
		box := ""
		if item.Checked != nil {
			checked := ""
			if *item.Checked {
				checked = " checked"
			}
			box = fmt.Sprintf(`<input type="checkbox" disabled%s> `, checked)
		}
		fmt.Fprintf(&b, "<li%s>%s%s</li>", style, box, html.EscapeString(item.Text))
	}
	fmt.Fprintf(&b, "</%s>", tag)
	return b.String()
}

// diagram shows the rendered SVG, or the status and raw source while it is
// pending or after it failed.
func (r *renderer) diagram(snap domain.Snapshot, blk domain.Block) string {
	if blk.Diagram == nil {
		return ""
	}
	rd := snap.Diagram(*blk.Diagram)
	esc := html.EscapeString
	switch rd.Status {
	case domain.DiagramSucceeded:
		return fmt.Sprintf(`<figure class="diagram"><img src="/diagrams/%s.svg" alt="%s diagram"></figure>`,
			esc(rd.Hash), esc(string(blk.Diagram.Kind)))
	case domain.DiagramFailed:
		return fmt.Sprintf(`<figure class="diagram failed"><figcaption>Diagram failed: %s</figcaption><pre>%s</pre></figure>`,
			esc(rd.Err), esc(blk.Diagram.Source))
	default:
		return fmt.Sprintf(`<figure class="diagram pending"><figcaption>Rendering diagram…</figcaption><pre>%s</pre></figure>`,
			esc(blk.Diagram.Source))
	}
}
