package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Marker codes attached to blocks.
const (
	MarkerUnterminatedFence    = "unterminated_fence"
	MarkerEmptyDiagram         = "empty_diagram"
	MarkerMalformedFrontMatter = "malformed_front_matter"
	MarkerUnrecognised         = "unrecognised_construct"
	MarkerParserPanic          = "parser_panic"
)

// Option configures a Parser.
type Option func(*Parser)

// WithDiagramKinds sets the fence info strings treated as diagrams.
func WithDiagramKinds(kinds ...domain.DiagramKind) Option {
	return func(p *Parser) {
		if len(kinds) == 0 {
			return
		}
		p.diagramKinds = make(map[string]domain.DiagramKind, len(kinds))
		for _, k := range kinds {
			p.diagramKinds[strings.ToLower(string(k))] = k
		}
	}
}

// Parser converts Markdown into domain blocks.
type Parser struct {
	md           goldmark.Markdown
	diagramKinds map[string]domain.DiagramKind
	log          logger.Logger
}

// New creates a Markdown parser with GFM and footnotes enabled.
func New(opts ...Option) *Parser {
	p := &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		diagramKinds: map[string]domain.DiagramKind{string(domain.DiagramMermaid): domain.DiagramMermaid},
		log:          logger.For("parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts content into blocks. It never fails.
func (p *Parser) Parse(content []byte) (result *domain.ParseResult) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("markdown engine panicked: %v", r)
			result = panicResult(content, hash, r)
		}
	}()

	fm := splitFrontMatter(content)
	w := &walker{
		p:      p,
		src:    fm.body,
		lines:  lineStarts(fm.body),
		offset: fm.lines,
		ids:    newIdentities(),
		result: &domain.ParseResult{ContentHash: hash, FrontMatter: fm.values},
	}

	if len(fm.raw) > 0 && fm.err != nil {
		w.emit(domain.Block{
			Kind: domain.BlockRaw,
			Line: 1,
			Raw:  string(fm.raw),
			Markers: []domain.Marker{{
				Code:    MarkerMalformedFrontMatter,
				Message: fm.err.Error(),
			}},
		})
	}

	doc := p.md.Parser().Parse(text.NewReader(fm.body))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n)
	}

	w.result.Title = fm.title()
	if w.result.Title == "" {
		w.result.Title = w.firstH1
	}
	return w.result
}

func panicResult(content []byte, hash string, r any) *domain.ParseResult {
	return &domain.ParseResult{
		ContentHash: hash,
		Blocks: []domain.Block{{
			ID:          BlockID(nil, domain.BlockRaw, 0),
			Kind:        domain.BlockRaw,
			HeadingPath: []string{},
			Line:        1,
			Raw:         string(content),
			Markers: []domain.Marker{{
				Code:    MarkerParserPanic,
				Message: fmt.Sprint(r),
			}},
		}},
	}
}

// walker converts top-level goldmark nodes into blocks for one parse.
type walker struct {
	p       *Parser
	src     []byte
	lines   []int
	offset  int
	ids     *identities
	stack   headingStack
	result  *domain.ParseResult
	lastLn  int
	firstH1 string

	// cursor is the source offset past the last block consumed.
	cursor int
}

// emit stamps identity and heading path onto b and appends it.
func (w *walker) emit(b domain.Block) {
	if b.HeadingPath == nil {
		b.HeadingPath = w.stack.path()
	}
	b.ID = w.ids.next(b.HeadingPath, b.Kind)
	if b.Line == 0 {
		b.Line = w.lastLn
	}
	w.lastLn = b.Line
	w.result.Blocks = append(w.result.Blocks, b)
}

func (w *walker) block(n ast.Node) {
	defer w.advance(n)
	line := w.lineOf(n)

	switch v := n.(type) {
	case *ast.Heading:
		txt := inlineText(v, w.src)
		w.stack.push(v.Level, txt)
		if v.Level == 1 && w.firstH1 == "" {
			w.firstH1 = txt
		}
		w.emit(domain.Block{Kind: domain.BlockHeading, Line: line, Level: v.Level, Text: txt})

	case *ast.Paragraph:
		if img, ok := soleImage(v, w.src); ok {
			w.emit(domain.Block{
				Kind: domain.BlockImage,
				Line: line,
				Text: inlineText(img, w.src),
				Image: &domain.Image{
					Src:   string(img.Destination),
					Alt:   inlineText(img, w.src),
					Title: string(img.Title),
				},
			})
			return
		}
		w.emit(domain.Block{Kind: domain.BlockParagraph, Line: line, Text: inlineText(v, w.src)})

	case *ast.FencedCodeBlock:
		w.fenced(v, line)

	case *ast.CodeBlock:
		w.emit(domain.Block{Kind: domain.BlockCode, Line: line, Code: linesText(v, w.src)})

	case *ast.Blockquote:
		w.emit(domain.Block{Kind: domain.BlockQuote, Line: line, Text: blockText(v, w.src)})

	case *ast.List:
		w.emit(domain.Block{Kind: domain.BlockList, Line: line, List: w.list(v)})

	case *ast.ThematicBreak:
		w.emit(domain.Block{Kind: domain.BlockThematicBreak, Line: line})

	case *ast.HTMLBlock:
		raw := linesText(v, w.src)
		if v.HasClosure() {
			raw += string(v.ClosureLine.Value(w.src))
		}
		w.emit(domain.Block{Kind: domain.BlockRaw, Line: line, Raw: raw})

	case *east.Table:
		w.emit(domain.Block{Kind: domain.BlockTable, Line: line, Table: w.table(v)})

	case *east.FootnoteList:
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			fn, ok := c.(*east.Footnote)
			if !ok {
				continue
			}
			w.emit(domain.Block{
				Kind:        domain.BlockFootnoteRef,
				HeadingPath: []string{},
				Line:        w.lineOf(fn),
				Text:        blockText(fn, w.src),
				Footnote:    &domain.Footnote{Label: string(fn.Ref), Index: fn.Index},
			})
		}

	default:
		w.emit(domain.Block{
			Kind: domain.BlockRaw,
			Line: line,
			Raw:  w.rawSource(n),
			Markers: []domain.Marker{{
				Code:    MarkerUnrecognised,
				Message: fmt.Sprintf("unrecognised block %s", n.Kind()),
			}},
		})
	}
}

func (w *walker) fenced(v *ast.FencedCodeBlock, line int) {
	lang := string(v.Language(w.src))
	code := linesText(v, w.src)

	var markers []domain.Marker
	if !w.closed(v) {
		markers = append(markers, domain.Marker{
			Code:    MarkerUnterminatedFence,
			Message: "code fence is never closed; it runs to the end of the document",
		})
	}

	kind, isDiagram := w.p.diagramKinds[strings.ToLower(lang)]
	if !isDiagram {
		w.emit(domain.Block{Kind: domain.BlockCode, Line: line, Language: lang, Code: code, Markers: markers})
		return
	}

	if strings.TrimSpace(code) == "" {
		markers = append(markers, domain.Marker{
			Code:    MarkerEmptyDiagram,
			Message: fmt.Sprintf("%s block has no source", kind),
		})
	}
	spec := domain.NewDiagramSpec(kind, code)
	w.result.Diagrams = append(w.result.Diagrams, spec)
	w.emit(domain.Block{
		Kind:     domain.BlockDiagram,
		Line:     line,
		Language: lang,
		Code:     code,
		Diagram:  &spec,
		Markers:  markers,
	})
}

// closed reports whether a fenced block has a closing fence in the source.
func (w *walker) closed(v *ast.FencedCodeBlock) bool {
	opener, end := w.fenceBounds(v)
	if opener == nil {
		return true
	}
	char, count := fenceRun(opener)
	if count < 3 {
		return true
	}

	raw, _, _ := cutLine(w.src[end:])
	line := bytes.TrimLeft(bytes.TrimRight(raw, " \t\r"), " \t>")
	if len(line) < count {
		w.moveCursor(len(w.src))
		return false
	}
	for _, c := range line {
		if c != char {
			w.moveCursor(len(w.src))
			return false
		}
	}
	w.moveCursor(end + len(raw) + 1)
	return true
}

// fenceBounds returns the opening fence line and the offset just past the content.
func (w *walker) fenceBounds(v *ast.FencedCodeBlock) ([]byte, int) {
	lines := v.Lines()
	var start int
	switch {
	case v.Info != nil:
		start = v.Info.Segment.Start
	case lines.Len() > 0:
		// The opener is the line before the first content line.
		first := lines.At(0).Start
		if first == 0 {
			return nil, 0
		}
		start = first - 1
	default:
		if start = w.bareOpener(); start < 0 {
			return nil, 0
		}
	}
	lineStart := bytes.LastIndexByte(w.src[:start], '\n') + 1
	openerEnd := bytes.IndexByte(w.src[lineStart:], '\n')
	var opener []byte
	end := len(w.src)
	if openerEnd >= 0 {
		opener = w.src[lineStart : lineStart+openerEnd]
		end = lineStart + openerEnd + 1
	} else {
		opener = w.src[lineStart:]
	}
	if lines.Len() > 0 {
		end = lines.At(lines.Len() - 1).Stop
	}
	if end > len(w.src) {
		end = len(w.src)
	}
	return opener, end
}

// bareOpener finds the first fence line at or after the cursor. A fence with
// neither info string nor content has no source position of its own.
func (w *walker) bareOpener() int {
	pos := w.cursor
	for pos < len(w.src) {
		line, _, _ := cutLine(w.src[pos:])
		trimmed := bytes.TrimLeft(line, " ")
		if len(line)-len(trimmed) <= 3 && len(trimmed) > 0 && (trimmed[0] == '`' || trimmed[0] == '~') {
			if _, count := fenceRun(trimmed); count >= 3 {
				return pos
			}
		}
		pos += len(line) + 1
	}
	return -1
}

// advance moves the cursor past the source lines of n.
func (w *walker) advance(n ast.Node) {
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if lines := c.Lines(); lines.Len() > 0 {
			w.moveCursor(lines.At(lines.Len() - 1).Stop)
		}
		return ast.WalkContinue, nil
	})
}

func (w *walker) moveCursor(pos int) {
	if pos > len(w.src) {
		pos = len(w.src)
	}
	if pos > w.cursor {
		w.cursor = pos
	}
}

// fenceRun returns the fence character and its run length on an opener line.
func fenceRun(line []byte) (byte, int) {
	line = bytes.TrimLeft(line, " \t>")
	if len(line) == 0 || (line[0] != '`' && line[0] != '~') {
		return 0, 0
	}
	char := line[0]
	n := 0
	for n < len(line) && line[n] == char {
		n++
	}
	return char, n
}

func (w *walker) list(v *ast.List) *domain.List {
	l := &domain.List{Ordered: v.IsOrdered(), Start: v.Start}
	w.listItems(v, 0, l)
	return l
}

func (w *walker) listItems(v *ast.List, depth int, out *domain.List) {
	for item := v.FirstChild(); item != nil; item = item.NextSibling() {
		li := domain.ListItem{Depth: depth}
		var texts []string
		var nested []*ast.List
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch cv := c.(type) {
			case *ast.List:
				nested = append(nested, cv)
			case *ast.TextBlock, *ast.Paragraph:
				if cb, ok := cv.FirstChild().(*east.TaskCheckBox); ok && li.Checked == nil {
					checked := cb.IsChecked
					li.Checked = &checked
				}
				texts = append(texts, inlineText(cv, w.src))
			default:
				if t := blockText(c, w.src); t != "" {
					texts = append(texts, t)
				} else if c.Type() == ast.TypeBlock {
					texts = append(texts, strings.TrimRight(linesText(c, w.src), "\n"))
				}
			}
		}
		li.Text = strings.Join(texts, "\n")
		out.Items = append(out.Items, li)
		for _, n := range nested {
			w.listItems(n, depth+1, out)
		}
	}
}

func (w *walker) table(v *east.Table) *domain.Table {
	t := &domain.Table{}
	for _, a := range v.Alignments {
		t.Alignments = append(t.Alignments, a.String())
	}
	for row := v.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, w.src))
		}
		if _, ok := row.(*east.TableHeader); ok {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// rawSource returns the source lines of a block and its block descendants.
func (w *walker) rawSource(n ast.Node) string {
	first, last := -1, -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := c.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if first < 0 || seg.Start < first {
				first = seg.Start
			}
			if seg.Stop > last {
				last = seg.Stop
			}
		}
		return ast.WalkContinue, nil
	})
	if first < 0 {
		return ""
	}
	return string(w.src[first:last])
}

// lineOf returns the 1-based source line of a block, or 0 when unknown.
func (w *walker) lineOf(n ast.Node) int {
	pos := -1
	if fc, ok := n.(*ast.FencedCodeBlock); ok {
		// Content lines start after the opening fence.
		switch {
		case fc.Info != nil:
			pos = fc.Info.Segment.Start
		case fc.Lines().Len() > 0:
			pos = fc.Lines().At(0).Start - 1
		default:
			pos = w.bareOpener()
		}
		if pos >= 0 {
			return sort.SearchInts(w.lines, pos+1) + w.offset
		}
	}
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c.Type() != ast.TypeBlock {
			return ast.WalkSkipChildren, nil
		}
		if lines := c.Lines(); lines.Len() > 0 {
			pos = lines.At(0).Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if pos < 0 {
		return 0
	}
	return sort.SearchInts(w.lines, pos+1) + w.offset
}

// lineStarts returns the byte offset at which each line begins.
func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}
