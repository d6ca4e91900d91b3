package markdown

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// inlineText flattens the inline children of n into plain text.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			switch {
			case v.HardLineBreak():
				buf.WriteByte('\n')
			case v.SoftLineBreak():
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.AutoLink:
			buf.Write(v.Label(src))
		case *ast.RawHTML:
			// Inline tags carry no text of their own.
		case *east.TaskCheckBox:
			// Reported through ListItem.Checked.
		case *east.FootnoteLink:
			buf.WriteString("[" + strconv.Itoa(v.Index) + "]")
		case *east.FootnoteBacklink:
		default:
			writeInline(buf, c, src)
		}
	}
}

// blockText joins the text of every text-bearing block under n, one per line.
func blockText(n ast.Node, src []byte) string {
	var parts []string
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c == n {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			if t := inlineText(c, src); t != "" {
				parts = append(parts, t)
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			parts = append(parts, strings.TrimRight(linesText(v, src), "\n"))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(parts, "\n")
}

// linesText concatenates the raw source lines of a block node.
func linesText(n ast.Node, src []byte) string {
	lines := n.Lines()
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

// soleImage returns the image when a paragraph holds nothing else.
func soleImage(p ast.Node, src []byte) (*ast.Image, bool) {
	var img *ast.Image
	for c := p.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Image:
			if img != nil {
				return nil, false
			}
			img = v
		case *ast.Text:
			if len(bytes.TrimSpace(v.Segment.Value(src))) > 0 {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return img, img != nil
}
