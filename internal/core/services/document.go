package services

import (
	"fmt"
	"strings"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// snippetRadius is how many bytes of context surround a search match.
const snippetRadius = 40

// SnapshotSource provides the snapshot a DocumentService reads from.
type SnapshotSource interface {
	Current() (domain.Snapshot, bool)
}

// StaticSource serves one fixed snapshot. Used by one-shot commands.
type StaticSource struct {
	Snapshot domain.Snapshot
}

// Current returns the fixed snapshot.
func (s StaticSource) Current() (domain.Snapshot, bool) {
	return s.Snapshot, s.Snapshot.Document != nil
}

// DocumentService answers outline and search queries against the current snapshot.
type DocumentService struct {
	source SnapshotSource
}

// NewDocumentService creates a new document service.
func NewDocumentService(source SnapshotSource) *DocumentService {
	return &DocumentService{source: source}
}

// Snapshot returns the current snapshot.
func (s *DocumentService) Snapshot() (domain.Snapshot, error) {
	snap, ok := s.source.Current()
	if !ok || snap.Document == nil {
		return domain.Snapshot{}, domain.ErrNoDocument
	}
	return snap, nil
}

// Outline returns one entry per heading in document order.
// Repeated slugs get a numeric suffix so anchors stay unique.
func (s *DocumentService) Outline() ([]domain.TocEntry, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return Outline(snap.Document), nil
}

// Outline builds the table of contents for doc.
func Outline(doc *domain.Document) []domain.TocEntry {
	if doc == nil {
		return nil
	}
	seen := make(map[string]int)
	var entries []domain.TocEntry
	for _, b := range doc.Blocks {
		if b.Kind != domain.BlockHeading {
			continue
		}
		slug := domain.Slugify(b.Text)
		if n := seen[slug]; n > 0 {
			seen[slug] = n + 1
			slug = fmt.Sprintf("%s-%d", slug, n)
		} else {
			seen[slug] = 1
		}
		entries = append(entries, domain.TocEntry{
			Level:   b.Level,
			Text:    b.Text,
			Anchor:  slug,
			BlockID: b.ID,
		})
	}
	return entries
}

// Search finds every occurrence of query in the blocks' plain text.
// Matches may overlap. An empty query returns no matches.
func (s *DocumentService) Search(query string, opts domain.SearchOptions) ([]domain.SearchMatch, error) {
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: negative search limit", domain.ErrInvalidInput)
	}
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return Search(snap.Document, query, opts), nil
}

// Search runs a text search over doc.
func Search(doc *domain.Document, query string, opts domain.SearchOptions) []domain.SearchMatch {
	if doc == nil || query == "" {
		return nil
	}
	needle := query
	if !opts.CaseSensitive {
		needle = strings.ToLower(query)
	}

	var matches []domain.SearchMatch
	for i, b := range doc.Blocks {
		text := b.PlainText()
		haystack := text
		if !opts.CaseSensitive {
			haystack = strings.ToLower(text)
		}
		start := 0
		for {
			pos := strings.Index(haystack[start:], needle)
			if pos < 0 {
				break
			}
			offset := start + pos
			matches = append(matches, domain.SearchMatch{
				BlockID:    b.ID,
				BlockIndex: i,
				Offset:     offset,
				Length:     len(needle),
				Snippet:    snippet(text, offset, len(needle)),
			})
			if opts.Limit > 0 && len(matches) >= opts.Limit {
				return matches
			}
			start = offset + 1
		}
	}
	return matches
}

// snippet returns the line containing the match, trimmed around it.
func snippet(text string, offset, length int) string {
	if offset > len(text) {
		return ""
	}
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	lineEnd := len(text)
	if end := offset + length; end <= len(text) {
		if nl := strings.IndexByte(text[end:], '\n'); nl >= 0 {
			lineEnd = end + nl
		}
	}

	from := max(lineStart, offset-snippetRadius)
	to := min(lineEnd, offset+length+snippetRadius)
	for from > lineStart && !utf8Start(text[from]) {
		from--
	}
	for to < lineEnd && !utf8Start(text[to]) {
		to++
	}

	out := strings.TrimSpace(text[from:to])
	if from > lineStart {
		out = "…" + out
	}
	if to < lineEnd {
		out += "…"
	}
	return out
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
