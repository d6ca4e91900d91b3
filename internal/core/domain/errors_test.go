package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNoDocument", ErrNoDocument},
		{"ErrFileNotFound", ErrFileNotFound},
		{"ErrFileUnavailable", ErrFileUnavailable},
		{"ErrWatcherClosed", ErrWatcherClosed},
		{"ErrUnsupportedDiagram", ErrUnsupportedDiagram},
		{"ErrDiagramRender", ErrDiagramRender},
		{"ErrDiagramTimeout", ErrDiagramTimeout},
		{"ErrBackendUnavailable", ErrBackendUnavailable},
		{"ErrUnknownBackend", ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrFileUnavailable_Wrapping tests that wrapped errors still match
func TestErrFileUnavailable_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("reading doc.md: %w", ErrFileUnavailable)

	assert.True(t, errors.Is(wrapped, ErrFileUnavailable))
	assert.False(t, errors.Is(wrapped, ErrFileNotFound))
	assert.Equal(t, "reading doc.md: file currently unreadable", wrapped.Error())
}
