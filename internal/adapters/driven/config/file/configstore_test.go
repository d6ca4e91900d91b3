package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_UsesConfigDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultsToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".mdr", "config.toml"), store.Path())
	info, err := os.Stat(filepath.Join(home, ".mdr"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenConfigStore_DirectoryBlocked(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := OpenConfigStore(filepath.Join(blocker, "sub", "config.toml"))

	assert.Error(t, err)
}

func TestOpenConfigStore_ReadsNestedTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[watch]
debounce_ms = 150

[diagrams]
engine = "browser"
kinds = ["mermaid", "plantuml"]

[backend]
default = "surface"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store, err := OpenConfigStore(path)

	require.NoError(t, err)
	assert.Equal(t, 150, store.GetInt("watch.debounce_ms"))
	assert.Equal(t, "browser", store.GetString("diagrams.engine"))
	assert.Equal(t, []string{"mermaid", "plantuml"}, store.GetStringSlice("diagrams.kinds"))
	assert.Equal(t, "surface", store.GetString("backend.default"))
}

func TestOpenConfigStore_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[watch\nbroken"), 0o600))

	_, err := OpenConfigStore(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestConfigStore_SetPersistsImmediately(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("browser.addr", "127.0.0.1:9000"))
	require.NoError(t, store.Set("surface.width", 800))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", reopened.GetString("browser.addr"))
	assert.Equal(t, 800, reopened.GetInt("surface.width"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[browser]")
	assert.Contains(t, string(data), "[surface]")
}

func TestConfigStore_SetNilRemovesKey(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("diagrams.mmdc_path", "/opt/mmdc"))

	require.NoError(t, store.Set("diagrams.mmdc_path", nil))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	_, ok := reopened.Get("diagrams.mmdc_path")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("backend.default", "tui"))

	info, err := os.Stat(store.Path())

	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigStore_LoadDiscardsUnsavedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backend]\ndefault = \"browser\"\n"), 0o600))
	store, err := OpenConfigStore(path)
	require.NoError(t, err)

	require.NoError(t, store.ConfigStore.Set("backend.default", "surface"))
	require.NoError(t, store.Load())

	assert.Equal(t, "browser", store.GetString("backend.default"))
}

func TestConfigStore_LoadAfterFileRemoved(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("backend.default", "tui"))
	require.NoError(t, os.Remove(store.Path()))

	require.NoError(t, store.Load())

	assert.Empty(t, store.Keys())
}

func TestFlattenMap(t *testing.T) {
	nested := map[string]any{
		"top": "v",
		"a": map[string]any{
			"b": 1,
			"c": map[string]any{"d": true},
		},
	}

	flat := flattenMap(nested, "")

	assert.Equal(t, map[string]any{
		"top":   "v",
		"a.b":   1,
		"a.c.d": true,
	}, flat)
}

func TestNestMap(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]any
		want map[string]any
	}{
		{
			name: "builds tables",
			flat: map[string]any{"watch.debounce_ms": 300, "watch.retry_ms": 1000, "top": "x"},
			want: map[string]any{
				"top":   "x",
				"watch": map[string]any{"debounce_ms": 300, "retry_ms": 1000},
			},
		},
		{
			name: "plain value blocks a table",
			flat: map[string]any{"a": 1, "a.b": 2},
			want: map[string]any{"a": 1, "a.b": 2},
		},
		{
			name: "plain value deeper in the path",
			flat: map[string]any{"a.b": 1, "a.b.c": 2},
			want: map[string]any{"a": map[string]any{"b": 1}, "a.b.c": 2},
		},
		{
			name: "empty",
			flat: map[string]any{},
			want: map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nestMap(tt.flat)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.flat, flattenMap(got, ""))
		})
	}
}
