package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"help", km.Help, []string{"?"}},
		{"back", km.Back, []string{"esc"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"page up", km.PageUp, []string{"pgup"}},
		{"page down", km.PageDown, []string{"pgdown"}},
		{"top", km.Top, []string{"g", "home"}},
		{"bottom", km.Bottom, []string{"G", "end"}},
		{"outline", km.Outline, []string{"tab"}},
		{"select", km.Select, []string{"enter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				assert.Contains(t, tt.binding.Keys(), k)
			}
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestKeyMap_ShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()
	assert.Len(t, help, 3)
}

func TestKeyMap_OutlineHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.OutlineHelp()
	assert.Len(t, help, 4)
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()

	groups := km.FullHelp()
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.NotEmpty(t, g)
	}
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("j", km.Down))
	assert.True(t, Matches("tab", km.Outline))
	assert.False(t, Matches("x", km.Down))
	assert.False(t, Matches("", km.Quit))
}
