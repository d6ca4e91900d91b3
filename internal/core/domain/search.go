package domain

import (
	"strings"
	"unicode"
)

// TocEntry is one heading in the document outline.
type TocEntry struct {
	Level   int
	Text    string
	Anchor  string
	BlockID BlockID
}

// SearchOptions configures in-document search.
type SearchOptions struct {
	// CaseSensitive disables case folding.
	CaseSensitive bool

	// Limit caps the number of matches. Zero means no limit.
	Limit int
}

// SearchMatch is one occurrence of the query inside a block's text.
type SearchMatch struct {
	BlockID    BlockID
	BlockIndex int

	// Offset is the byte offset of the match in the block's searchable text.
	Offset int
	Length int

	// Snippet is the surrounding text for display.
	Snippet string
}

// Slugify converts heading text into a URL fragment.
// Letters, digits, '-' and '_' are kept lowercased, spaces become '-',
// everything else is dropped.
func Slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "")
}
