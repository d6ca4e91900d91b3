package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// BlockKind tags the variant held by a Block.
type BlockKind int

const (
	// BlockHeading is an ATX or setext heading.
	BlockHeading BlockKind = iota

	// BlockParagraph is a run of inline text.
	BlockParagraph

	// BlockCode is a fenced or indented code block.
	BlockCode

	// BlockTable is a GFM table.
	BlockTable

	// BlockList is an ordered, unordered or task list.
	BlockList

	// BlockQuote is a block quotation.
	BlockQuote

	// BlockImage is a paragraph consisting of a single image.
	BlockImage

	// BlockDiagram is a placeholder for an embedded diagram.
	BlockDiagram

	// BlockThematicBreak is a horizontal rule.
	BlockThematicBreak

	// BlockFootnoteRef is a footnote definition.
	BlockFootnoteRef

	// BlockRaw is passed through untouched (HTML, unrecognised constructs).
	BlockRaw
)

// String returns the stable name of the kind. It participates in block identity.
func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockCode:
		return "code"
	case BlockTable:
		return "table"
	case BlockList:
		return "list"
	case BlockQuote:
		return "blockquote"
	case BlockImage:
		return "image"
	case BlockDiagram:
		return "diagram"
	case BlockThematicBreak:
		return "thematic_break"
	case BlockFootnoteRef:
		return "footnote"
	case BlockRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// BlockID is the stable identity of a block across reparses.
type BlockID string

// Marker records a non-fatal parse anomaly on the block it affects.
type Marker struct {
	// Code is a short machine-readable tag, e.g. "unterminated_fence".
	Code string

	// Message is a human-readable description.
	Message string
}

// Block is one structural unit of a Document.
// Kind selects which of the optional payload fields is meaningful.
type Block struct {
	// ID is derived from HeadingPath, Kind and the ordinal among
	// same-kind blocks under that path.
	ID BlockID

	// Kind tags the variant.
	Kind BlockKind

	// HeadingPath is the chain of enclosing heading texts.
	// For a heading it ends with the heading itself.
	HeadingPath []string

	// Line is the 1-based source line where the block starts.
	Line int

	// Level is the heading level (1-6). Zero for other kinds.
	Level int

	// Text is the plain-text content for headings, paragraphs, quotes and footnotes.
	Text string

	// Language is the info string of a code block.
	Language string

	// Code is the literal content of a code block.
	Code string

	// Table holds rows for BlockTable.
	Table *Table

	// List holds items for BlockList.
	List *List

	// Image holds the reference for BlockImage.
	Image *Image

	// Diagram holds the spec for BlockDiagram.
	Diagram *DiagramSpec

	// Footnote holds the label for BlockFootnoteRef.
	Footnote *Footnote

	// Raw is the untouched source for BlockRaw.
	Raw string

	// Markers are parse anomalies detected on this block.
	Markers []Marker
}

// HasMarkers reports whether the parser flagged anything on the block.
func (b Block) HasMarkers() bool {
	return len(b.Markers) > 0
}

// PlainText returns the block's textual content with markup removed.
// Tables are tab separated, list items and rows newline separated.
func (b Block) PlainText() string {
	switch b.Kind {
	case BlockCode:
		return b.Code
	case BlockDiagram:
		if b.Diagram != nil {
			return b.Diagram.Source
		}
	case BlockRaw:
		return b.Raw
	case BlockImage:
		if b.Image != nil {
			return b.Image.Alt
		}
	case BlockTable:
		if b.Table == nil {
			return ""
		}
		rows := make([]string, 0, len(b.Table.Rows)+1)
		rows = append(rows, strings.Join(b.Table.Header, "\t"))
		for _, row := range b.Table.Rows {
			rows = append(rows, strings.Join(row, "\t"))
		}
		return strings.Join(rows, "\n")
	case BlockList:
		if b.List == nil {
			return ""
		}
		items := make([]string, len(b.List.Items))
		for i, item := range b.List.Items {
			items[i] = item.Text
		}
		return strings.Join(items, "\n")
	}
	return b.Text
}

// Table is a parsed GFM table.
type Table struct {
	Header     []string
	Alignments []string
	Rows       [][]string
}

// List is a parsed list.
type List struct {
	Ordered bool
	Start   int
	Items   []ListItem
}

// ListItem is one entry of a List. Nested lists are flattened with Depth.
type ListItem struct {
	Text  string
	Depth int

	// Checked is nil for plain items and set for task items.
	Checked *bool
}

// Image is an image reference. Remote images are never fetched by the core.
type Image struct {
	Src   string
	Alt   string
	Title string
}

// Footnote is a footnote definition.
type Footnote struct {
	Label string
	Index int
}

// Document is one generation of the parsed source.
// It is replaced wholesale on every successful parse and never mutated.
type Document struct {
	// Generation strictly increases across exposed documents.
	Generation uint64

	// Path is the source file path.
	Path string

	// ContentHash is the hex SHA-256 of the raw source bytes.
	ContentHash string

	// Title comes from front matter or the first level-1 heading.
	Title string

	// FrontMatter holds decoded YAML front matter, if any.
	FrontMatter map[string]any

	// Blocks is the ordered block sequence.
	Blocks []Block

	// Diagrams has one spec per diagram placeholder, in document order.
	Diagrams []DiagramSpec

	// ParsedAt is when the parse completed.
	ParsedAt time.Time
}

// NewDocument stamps a parse result with its generation.
// Without a front matter or heading title, the file name stands in.
func NewDocument(generation uint64, path string, result *ParseResult, parsedAt time.Time) *Document {
	title := result.Title
	if title == "" && path != "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return &Document{
		Generation:  generation,
		Path:        path,
		ContentHash: result.ContentHash,
		Title:       title,
		FrontMatter: result.FrontMatter,
		Blocks:      result.Blocks,
		Diagrams:    result.Diagrams,
		ParsedAt:    parsedAt,
	}
}

// IndexOf returns the position of the block with the given id, or -1.
func (d *Document) IndexOf(id BlockID) int {
	if d == nil {
		return -1
	}
	for i := range d.Blocks {
		if d.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// Block returns the block with the given id.
func (d *Document) Block(id BlockID) (Block, bool) {
	i := d.IndexOf(id)
	if i < 0 {
		return Block{}, false
	}
	return d.Blocks[i], true
}

// References reports whether any placeholder in the document uses the diagram hash.
func (d *Document) References(hash string) bool {
	if d == nil {
		return false
	}
	for _, spec := range d.Diagrams {
		if spec.Hash == hash {
			return true
		}
	}
	return false
}

// ParseResult is the output of a Parser before it is stamped with a generation.
type ParseResult struct {
	ContentHash string
	Title       string
	FrontMatter map[string]any
	Blocks      []Block
	Diagrams    []DiagramSpec
}
