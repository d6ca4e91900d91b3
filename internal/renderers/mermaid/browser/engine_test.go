package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

func TestNew_Defaults(t *testing.T) {
	e := New("")
	assert.Equal(t, domain.DefaultMermaidScript, e.scriptURL)
	assert.Empty(t, e.remoteURL)
	assert.Equal(t, "chrome", e.Name())

	e = New("http://localhost/mermaid.js", WithRemoteURL("ws://127.0.0.1:9222"))
	assert.Equal(t, "http://localhost/mermaid.js", e.scriptURL)
	assert.Equal(t, "ws://127.0.0.1:9222", e.remoteURL)
}

func TestEngine_CloseWithoutLaunch(t *testing.T) {
	e := New("")
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

func TestEngine_RenderAfterClose(t *testing.T) {
	e := New("")
	require.NoError(t, e.Close())

	_, err := e.Render(context.Background(), "graph TD")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClassify(t *testing.T) {
	e := New("")

	t.Run("eval error keeps description", func(t *testing.T) {
		err := e.classify(context.Background(), &rod.EvalError{
			RuntimeExceptionDetails: &proto.RuntimeExceptionDetails{
				Exception: &proto.RuntimeRemoteObject{Description: "Parse error on line 2"},
			},
		})
		assert.ErrorIs(t, err, domain.ErrDiagramRender)
		assert.Contains(t, err.Error(), "Parse error on line 2")
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		cause := errors.New("target closed")
		err := e.classify(context.Background(), cause)
		assert.ErrorIs(t, err, domain.ErrDiagramRender)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("context error wins", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := e.classify(ctx, errors.New("anything"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
