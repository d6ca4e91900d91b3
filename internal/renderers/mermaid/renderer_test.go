package mermaid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

const validSVG = `<svg xmlns="http://www.w3.org/2000/svg"><g/></svg>`

// fakeEngine answers from a map of source to result and records every call.
type fakeEngine struct {
	results map[string]fakeResult
	calls   []string
}

type fakeResult struct {
	svg   string
	err   error
	panic bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Render(_ context.Context, source string) ([]byte, error) {
	f.calls = append(f.calls, source)
	res, ok := f.results[source]
	if !ok {
		return nil, errors.New("no such diagram")
	}
	if res.panic {
		panic("engine blew up")
	}
	return []byte(res.svg), res.err
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line breaks", "A[one<br>two] --> B[three<br/>four<br />five]", "A[one two] --> B[three four five]"},
		{"bidirectional", "A <--> B", "A --- B"},
		{"cross", "A x--x B", "A --- B"},
		{"circle", "A o--o B", "A --- B"},
		{"untouched", "graph TD\n  A --> B\n", "graph TD\n  A --> B\n"},
		{"multi line", "A<br>B\nC <--> D", "A B\nC --- D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preprocess(tt.in))
		})
	}
}

func TestRenderer_PreprocessedSucceeds(t *testing.T) {
	engine := &fakeEngine{results: map[string]fakeResult{
		"A --- B": {svg: validSVG},
	}}

	svg, err := New(engine).Render(context.Background(), domain.DiagramMermaid, "A <--> B")
	require.NoError(t, err)
	assert.Equal(t, validSVG, string(svg))
	assert.Equal(t, []string{"A --- B"}, engine.calls)
}

func TestRenderer_FallsBackToOriginal(t *testing.T) {
	engine := &fakeEngine{results: map[string]fakeResult{
		"A --- B":  {err: errors.New("preprocessed rejected")},
		"A <--> B": {svg: validSVG},
	}}

	svg, err := New(engine).Render(context.Background(), domain.DiagramMermaid, "A <--> B")
	require.NoError(t, err)
	assert.Equal(t, validSVG, string(svg))
	assert.Equal(t, []string{"A --- B", "A <--> B"}, engine.calls)
}

func TestRenderer_ReturnsOriginalAttemptError(t *testing.T) {
	engine := &fakeEngine{results: map[string]fakeResult{
		"A --- B":  {err: errors.New("first")},
		"A <--> B": {err: errors.New("second")},
	}}

	_, err := New(engine).Render(context.Background(), domain.DiagramMermaid, "A <--> B")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDiagramRender)
	assert.Contains(t, err.Error(), "second")
}

func TestRenderer_SingleAttemptWhenNothingToPreprocess(t *testing.T) {
	engine := &fakeEngine{results: map[string]fakeResult{
		"graph TD": {err: errors.New("bad")},
	}}

	_, err := New(engine).Render(context.Background(), domain.DiagramMermaid, "graph TD")
	require.Error(t, err)
	assert.Equal(t, []string{"graph TD"}, engine.calls)
}

func TestRenderer_PanicBecomesError(t *testing.T) {
	engine := &fakeEngine{results: map[string]fakeResult{
		"graph TD": {panic: true},
	}}

	_, err := New(engine).Render(context.Background(), domain.DiagramMermaid, "graph TD")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDiagramRender)
	assert.Contains(t, err.Error(), "panicked")
}

func TestRenderer_InvalidPayloadRejected(t *testing.T) {
	engine := &fakeEngine{results: map[string]fakeResult{
		"graph TD": {svg: "<html><body>error page</body></html>"},
	}}

	_, err := New(engine).Render(context.Background(), domain.DiagramMermaid, "graph TD")
	assert.ErrorIs(t, err, domain.ErrDiagramRender)
}

func TestRenderer_TimeoutIsClassified(t *testing.T) {
	engine := &fakeEngine{results: map[string]fakeResult{
		"graph TD": {err: context.DeadlineExceeded},
	}}

	_, err := New(engine).Render(context.Background(), domain.DiagramMermaid, "graph TD")
	assert.ErrorIs(t, err, domain.ErrDiagramTimeout)
}

func TestRenderer_RejectsOtherKinds(t *testing.T) {
	engine := &fakeEngine{}

	_, err := New(engine).Render(context.Background(), "dot", "digraph {}")
	assert.ErrorIs(t, err, domain.ErrUnsupportedDiagram)
	assert.Empty(t, engine.calls)
}

func TestValidateSVG(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"plain", validSVG, false},
		{"xml declaration", `<?xml version="1.0"?>` + "\n" + validSVG, false},
		{"doctype and comment", "<!DOCTYPE svg>\n<!-- generated -->\n" + validSVG, false},
		{"self closing", `<svg/>`, false},
		{"empty", "   ", true},
		{"html root", "<html></html>", true},
		{"leading text", "Error: parse failed <svg/>", true},
		{"comment only", "<!-- nothing -->", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSVG([]byte(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrDiagramRender)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
