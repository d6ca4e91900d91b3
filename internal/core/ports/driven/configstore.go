package driven

// ConfigStore holds settings under dotted keys such as "watch.debounce_ms".
// Typed getters return the zero value for missing keys and for values of
// another type, so callers can fall back to defaults without checking.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores a value. File-backed stores also write it out.
	Set(key string, value any) error

	// Save writes every key to the backing storage, if there is one.
	Save() error

	// Load replaces the held keys with the stored ones.
	Load() error

	// Path identifies the backing storage.
	Path() string
}
