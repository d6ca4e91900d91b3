package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Document: &domain.Document{
			Generation: 1,
			Blocks: []domain.Block{
				{ID: "h1", Kind: domain.BlockHeading, Level: 1, Text: "Getting Started"},
				{ID: "p1", Kind: domain.BlockParagraph, Text: "Hello world.\nThe World is big."},
				{ID: "h2", Kind: domain.BlockHeading, Level: 2, Text: "Usage"},
				{ID: "c1", Kind: domain.BlockCode, Code: "mdr README.md", Language: "sh"},
				{ID: "h3", Kind: domain.BlockHeading, Level: 2, Text: "Usage"},
			},
		},
		State: domain.StateReady,
	}
}

func TestDocumentService_NoDocument(t *testing.T) {
	svc := NewDocumentService(StaticSource{})

	_, err := svc.Snapshot()
	assert.ErrorIs(t, err, domain.ErrNoDocument)

	_, err = svc.Outline()
	assert.ErrorIs(t, err, domain.ErrNoDocument)

	_, err = svc.Search("x", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrNoDocument)
}

func TestDocumentService_Outline(t *testing.T) {
	svc := NewDocumentService(StaticSource{Snapshot: sampleSnapshot()})

	toc, err := svc.Outline()
	require.NoError(t, err)
	require.Len(t, toc, 3)

	assert.Equal(t, domain.TocEntry{Level: 1, Text: "Getting Started", Anchor: "getting-started", BlockID: "h1"}, toc[0])
	assert.Equal(t, "usage", toc[1].Anchor)
	assert.Equal(t, "usage-1", toc[2].Anchor)
}

func TestDocumentService_Search(t *testing.T) {
	svc := NewDocumentService(StaticSource{Snapshot: sampleSnapshot()})

	t.Run("case insensitive by default", func(t *testing.T) {
		matches, err := svc.Search("world", domain.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, domain.BlockID("p1"), matches[0].BlockID)
		assert.Equal(t, 1, matches[0].BlockIndex)
		assert.Equal(t, 6, matches[0].Offset)
		assert.Equal(t, 5, matches[0].Length)
		assert.Equal(t, "Hello world.", matches[0].Snippet)
		assert.Equal(t, "The World is big.", matches[1].Snippet)
	})

	t.Run("case sensitive", func(t *testing.T) {
		matches, err := svc.Search("World", domain.SearchOptions{CaseSensitive: true})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, 17, matches[0].Offset)
	})

	t.Run("searches code", func(t *testing.T) {
		matches, err := svc.Search("readme", domain.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, domain.BlockID("c1"), matches[0].BlockID)
	})

	t.Run("overlapping matches", func(t *testing.T) {
		doc := &domain.Document{Blocks: []domain.Block{{ID: "p", Kind: domain.BlockParagraph, Text: "aaaa"}}}
		assert.Len(t, Search(doc, "aa", domain.SearchOptions{}), 3)
	})

	t.Run("limit", func(t *testing.T) {
		matches, err := svc.Search("usage", domain.SearchOptions{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("empty query", func(t *testing.T) {
		matches, err := svc.Search("", domain.SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := svc.Search("x", domain.SearchOptions{Limit: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSnippet_TrimsLongLines(t *testing.T) {
	text := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa needle bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	got := snippet(text, 51, 6)

	assert.Contains(t, got, "needle")
	assert.True(t, len(got) < len(text))
	assert.Equal(t, "…", got[:len("…")])
}
