package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple text", "Hello World", "hello-world"},
		{"keeps hyphens and underscores", "my-heading_here", "my-heading_here"},
		{"strips special characters", "Hello, World! (2024)", "hello-world-2024"},
		{"multiple spaces become multiple hyphens", "hello   world", "hello---world"},
		{"empty string", "", ""},
		{"only special characters", "!@#$%", ""},
		{"numbers", "Chapter 1", "chapter-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}

	t.Run("unicode letters are preserved lowercased", func(t *testing.T) {
		result := Slugify("Café Résumé")
		assert.Contains(t, result, "café")
		assert.Contains(t, result, "résumé")
	})
}
