package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
)

func docOf(ids ...string) *domain.Document {
	doc := &domain.Document{}
	for _, id := range ids {
		doc.Blocks = append(doc.Blocks, domain.Block{ID: domain.BlockID(id)})
	}
	return doc
}

func TestResolveAnchor(t *testing.T) {
	prev := docOf("H1", "P1", "D1", "P2")

	tests := []struct {
		name   string
		next   *domain.Document
		anchor *domain.ScrollAnchor
		want   *domain.ScrollAnchor
		how    AnchorResolution
	}{
		{
			name:   "exact match keeps offset",
			next:   docOf("H1", "P1", "D1", "P2", "P3"),
			anchor: &domain.ScrollAnchor{BlockID: "P2", Offset: 0.25},
			want:   &domain.ScrollAnchor{BlockID: "P2", Offset: 0.25},
			how:    AnchorExact,
		},
		{
			name:   "deleted block falls back to nearest preceding survivor",
			next:   docOf("H1", "P1", "D1"),
			anchor: &domain.ScrollAnchor{BlockID: "P2", Offset: 0.5},
			want:   &domain.ScrollAnchor{BlockID: "D1", Offset: 1},
			how:    AnchorPreceding,
		},
		{
			name:   "skips preceding blocks that were also removed",
			next:   docOf("H1", "X"),
			anchor: &domain.ScrollAnchor{BlockID: "P2"},
			want:   &domain.ScrollAnchor{BlockID: "H1", Offset: 1},
			how:    AnchorPreceding,
		},
		{
			name:   "no preceding survivor keeps position",
			next:   docOf("A", "B", "C"),
			anchor: &domain.ScrollAnchor{BlockID: "P1"},
			want:   &domain.ScrollAnchor{BlockID: "B", Offset: 0},
			how:    AnchorClamped,
		},
		{
			name:   "shorter document clamps to last block",
			next:   docOf("A"),
			anchor: &domain.ScrollAnchor{BlockID: "P2"},
			want:   &domain.ScrollAnchor{BlockID: "A", Offset: 1},
			how:    AnchorClamped,
		},
		{
			name:   "unknown id clamps to last block",
			next:   docOf("H1", "P1"),
			anchor: &domain.ScrollAnchor{BlockID: "ghost"},
			want:   &domain.ScrollAnchor{BlockID: "P1", Offset: 1},
			how:    AnchorClamped,
		},
		{
			name:   "offset is clamped into range",
			next:   prev,
			anchor: &domain.ScrollAnchor{BlockID: "P1", Offset: 3},
			want:   &domain.ScrollAnchor{BlockID: "P1", Offset: 1},
			how:    AnchorExact,
		},
		{
			name:   "nil anchor",
			next:   prev,
			anchor: nil,
			want:   nil,
			how:    AnchorNone,
		},
		{
			name:   "empty document",
			next:   docOf(),
			anchor: &domain.ScrollAnchor{BlockID: "P1"},
			want:   nil,
			how:    AnchorNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, how := ResolveAnchor(prev, tt.next, tt.anchor)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.how, how)
		})
	}
}

func TestResolveAnchor_NilPrevious(t *testing.T) {
	got, how := ResolveAnchor(nil, docOf("A", "B"), &domain.ScrollAnchor{BlockID: "Z"})

	require.NotNil(t, got)
	assert.Equal(t, domain.BlockID("B"), got.BlockID)
	assert.Equal(t, AnchorClamped, how)
}

func TestAnchorTracker_Capture(t *testing.T) {
	backend := newMockBackend("tui")

	t.Run("no active backend", func(t *testing.T) {
		tracker := NewAnchorTracker(func() (driven.Backend, bool) { return nil, false })
		assert.Nil(t, tracker.Capture())
	})

	t.Run("backend without anchor", func(t *testing.T) {
		tracker := NewAnchorTracker(func() (driven.Backend, bool) { return backend, true })
		assert.Nil(t, tracker.Capture())
	})

	t.Run("backend with anchor", func(t *testing.T) {
		backend.setAnchor(&domain.ScrollAnchor{BlockID: "P1", Offset: 0.5})
		tracker := NewAnchorTracker(func() (driven.Backend, bool) { return backend, true })

		got := tracker.Capture()
		require.NotNil(t, got)
		assert.Equal(t, domain.BlockID("P1"), got.BlockID)
	})

	t.Run("panicking backend", func(t *testing.T) {
		tracker := NewAnchorTracker(func() (driven.Backend, bool) { return panickyBackend{}, true })
		assert.Nil(t, tracker.Capture())
	})
}

func TestAnchorTracker_ResolveCountsOutcomes(t *testing.T) {
	tracker := NewAnchorTracker(nil)
	prev := docOf("A", "B", "C")

	tracker.Resolve(prev, docOf("A", "B", "C"), &domain.ScrollAnchor{BlockID: "B"})
	tracker.Resolve(prev, docOf("A", "C"), &domain.ScrollAnchor{BlockID: "B"})
	tracker.Resolve(prev, docOf("X"), &domain.ScrollAnchor{BlockID: "C"})
	tracker.Resolve(prev, docOf("A"), nil)

	assert.Equal(t, AnchorStats{Exact: 1, Preceding: 1, Clamped: 1, Missing: 1}, tracker.Stats())
}

func TestAnchorResolution_String(t *testing.T) {
	assert.Equal(t, "exact", AnchorExact.String())
	assert.Equal(t, "preceding", AnchorPreceding.String())
	assert.Equal(t, "clamped", AnchorClamped.String())
	assert.Equal(t, "none", AnchorNone.String())
}
