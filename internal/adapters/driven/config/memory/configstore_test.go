package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CopiesSeed(t *testing.T) {
	seed := map[string]any{"backend.default": "browser"}
	store := NewConfigStore(seed)

	seed["backend.default"] = "surface"

	assert.Equal(t, "browser", store.GetString("backend.default"))
}

func TestConfigStore_Getters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"s":       "text",
		"i":       7,
		"i64":     int64(9),
		"f":       float64(300),
		"frac":    1.5,
		"b":       true,
		"list":    []string{"mermaid", "plantuml"},
		"anylist": []any{"mermaid", 3, "graphviz"},
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "text"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 7},
		{"int64", store.GetInt("i64"), 9},
		{"whole float", store.GetInt("f"), 300},
		{"fractional float", store.GetInt("frac"), 0},
		{"missing int", store.GetInt("nope"), 0},
		{"bool", store.GetBool("b"), true},
		{"bool wrong type", store.GetBool("s"), false},
		{"string slice", store.GetStringSlice("list"), []string{"mermaid", "plantuml"}},
		{"any slice", store.GetStringSlice("anylist"), []string{"mermaid", "graphviz"}},
		{"missing slice", store.GetStringSlice("nope"), []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SetAndDelete(t *testing.T) {
	store := NewConfigStore(nil)

	require.NoError(t, store.Set("watch.debounce_ms", 150))
	assert.Equal(t, 150, store.GetInt("watch.debounce_ms"))

	require.NoError(t, store.Set("watch.debounce_ms", nil))
	_, ok := store.Get("watch.debounce_ms")
	assert.False(t, ok)
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore(nil)
	require.NoError(t, store.Set("k", "v"))

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ValuesReplaceKeys(t *testing.T) {
	store := NewConfigStore(map[string]any{"b": 1, "a": 2})

	assert.Equal(t, []string{"a", "b"}, store.Keys())

	values := store.Values()
	values["c"] = 3
	assert.Equal(t, []string{"a", "b"}, store.Keys())

	store.Replace(map[string]any{"z": "last"})
	assert.Equal(t, []string{"z"}, store.Keys())

	store.Replace(nil)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore(nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("diagrams.max_concurrent", i) //nolint:errcheck
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("diagrams.max_concurrent")
		}()
	}
	wg.Wait()

	got := store.GetInt("diagrams.max_concurrent")
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, 50)
}
