package mermaid

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// ValidateSVG checks that payload is a document whose root element is <svg>.
// Leading XML declarations, doctypes, comments and whitespace are allowed.
func ValidateSVG(payload []byte) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("%w: empty output", domain.ErrDiagramRender)
	}

	z := html.NewTokenizer(bytes.NewReader(payload))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return fmt.Errorf("%w: no root element", domain.ErrDiagramRender)
			}
			return fmt.Errorf("%w: %w", domain.ErrDiagramRender, z.Err())
		case html.CommentToken, html.DoctypeToken:
			continue
		case html.TextToken:
			if len(bytes.TrimSpace(z.Text())) > 0 {
				return fmt.Errorf("%w: text before root element", domain.ErrDiagramRender)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) != atom.Svg {
				return fmt.Errorf("%w: root element is <%s>, want <svg>", domain.ErrDiagramRender, name)
			}
			return nil
		default:
			return fmt.Errorf("%w: unexpected content before root element", domain.ErrDiagramRender)
		}
	}
}
