// Package highlight provides the syntax highlighting collaborator used by
// presentation backends for code blocks.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
)

// Ensure Highlighter implements the interface.
var _ driven.Highlighter = (*Highlighter)(nil)

// Span classes understood by the backends.
const (
	ClassPlain    = ""
	ClassKeyword  = "keyword"
	ClassString   = "string"
	ClassNumber   = "number"
	ClassComment  = "comment"
	ClassFunction = "function"
	ClassType     = "type"
	ClassOperator = "operator"
)

// Highlighter tokenises code with chroma lexers and maps token types onto a
// small set of classes.
type Highlighter struct{}

// New creates a Highlighter.
func New() *Highlighter {
	return &Highlighter{}
}

// Highlight splits code into styled spans. Unknown languages and lexer
// failures yield a single plain span. Concatenating the spans' text always
// reproduces code.
func (h *Highlighter) Highlight(code, language string) []driven.Span {
	if code == "" {
		return nil
	}
	plain := []driven.Span{{Text: code, Class: ClassPlain}}

	lexer := lexers.Get(strings.TrimSpace(language))
	if lexer == nil {
		return plain
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return plain
	}

	var spans []driven.Span
	for _, tok := range it.Tokens() {
		if tok.Value == "" {
			continue
		}
		class := classify(tok.Type)
		if n := len(spans); n > 0 && spans[n-1].Class == class {
			spans[n-1].Text += tok.Value
			continue
		}
		spans = append(spans, driven.Span{Text: tok.Value, Class: class})
	}

	// Some lexers normalise line endings or add a trailing newline.
	if joined(spans) != code {
		return plain
	}
	return spans
}

func classify(t chroma.TokenType) string {
	switch {
	case t == chroma.NameFunction || t == chroma.NameBuiltin:
		return ClassFunction
	case t == chroma.NameClass || t == chroma.KeywordType:
		return ClassType
	case t.InCategory(chroma.Keyword):
		return ClassKeyword
	case t.InSubCategory(chroma.LiteralString):
		return ClassString
	case t.InSubCategory(chroma.LiteralNumber):
		return ClassNumber
	case t.InCategory(chroma.Comment):
		return ClassComment
	case t.InCategory(chroma.Operator):
		return ClassOperator
	default:
		return ClassPlain
	}
}

func joined(spans []driven.Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
