package services

import (
	"fmt"
	"time"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
)

// Config keys for settings storage.
const (
	keyWatchDebounce     = "watch.debounce_ms"
	keyWatchRetry        = "watch.retry_ms"
	keyDiagramCapacity   = "diagrams.cache_capacity"
	keyDiagramWorkers    = "diagrams.max_concurrent"
	keyDiagramTimeout    = "diagrams.timeout_ms"
	keyDiagramEngine     = "diagrams.engine"
	keyDiagramKinds      = "diagrams.kinds"
	keyDiagramMMDC       = "diagrams.mmdc_path"
	keyDiagramScript     = "diagrams.mermaid_script_url"
	keyBackendDefault    = "backend.default"
	keyBrowserAddr       = "browser.addr"
	keySurfaceWidth      = "surface.width"
	keySurfaceHeight     = "surface.height"
	keySurfaceOutput     = "surface.output"
	diagramEngineCLI     = "cli"
	diagramEngineBrowser = "browser"
)

// SettingsService maps the config store onto domain.Config.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the stored configuration with defaults for anything unset.
// Out-of-range values are replaced by their defaults.
func (s *SettingsService) Get() domain.Config {
	def := domain.DefaultConfig()

	cfg := domain.Config{
		Watch: domain.WatchConfig{
			Debounce:      s.getMillis(keyWatchDebounce, def.Watch.Debounce),
			RetryInterval: s.getMillis(keyWatchRetry, def.Watch.RetryInterval),
		},
		Diagrams: domain.DiagramConfig{
			CacheCapacity:    s.getInt(keyDiagramCapacity, def.Diagrams.CacheCapacity),
			MaxConcurrent:    s.getInt(keyDiagramWorkers, def.Diagrams.MaxConcurrent),
			Timeout:          s.getMillis(keyDiagramTimeout, def.Diagrams.Timeout),
			Engine:           s.getString(keyDiagramEngine, def.Diagrams.Engine),
			Kinds:            s.getKinds(def.Diagrams.Kinds),
			MMDCPath:         s.getString(keyDiagramMMDC, def.Diagrams.MMDCPath),
			MermaidScriptURL: s.getString(keyDiagramScript, def.Diagrams.MermaidScriptURL),
		},
		Backend:     domain.BackendName(s.getString(keyBackendDefault, string(def.Backend))),
		BrowserAddr: s.getString(keyBrowserAddr, def.BrowserAddr),
		Surface: domain.SurfaceConfig{
			Width:  s.getInt(keySurfaceWidth, def.Surface.Width),
			Height: s.getInt(keySurfaceHeight, def.Surface.Height),
			Output: s.getString(keySurfaceOutput, def.Surface.Output),
		},
	}
	if cfg.Diagrams.Engine != diagramEngineCLI && cfg.Diagrams.Engine != diagramEngineBrowser {
		cfg.Diagrams.Engine = def.Diagrams.Engine
	}
	return cfg.Normalise()
}

// Save persists cfg.
func (s *SettingsService) Save(cfg domain.Config) error {
	kinds := make([]string, len(cfg.Diagrams.Kinds))
	for i, k := range cfg.Diagrams.Kinds {
		kinds[i] = string(k)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyWatchDebounce, cfg.Watch.Debounce.Milliseconds()},
		{keyWatchRetry, cfg.Watch.RetryInterval.Milliseconds()},
		{keyDiagramCapacity, cfg.Diagrams.CacheCapacity},
		{keyDiagramWorkers, cfg.Diagrams.MaxConcurrent},
		{keyDiagramTimeout, cfg.Diagrams.Timeout.Milliseconds()},
		{keyDiagramEngine, cfg.Diagrams.Engine},
		{keyDiagramKinds, kinds},
		{keyDiagramMMDC, cfg.Diagrams.MMDCPath},
		{keyDiagramScript, cfg.Diagrams.MermaidScriptURL},
		{keyBackendDefault, string(cfg.Backend)},
		{keyBrowserAddr, cfg.BrowserAddr},
		{keySurfaceWidth, cfg.Surface.Width},
		{keySurfaceHeight, cfg.Surface.Height},
		{keySurfaceOutput, cfg.Surface.Output},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("failed to save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// SetBackend updates and persists the default backend.
func (s *SettingsService) SetBackend(name domain.BackendName) error {
	if !name.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownBackend, string(name))
	}
	if err := s.configStore.Set(keyBackendDefault, string(name)); err != nil {
		return fmt.Errorf("failed to save %s: %w", keyBackendDefault, err)
	}
	return s.configStore.Save()
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Millisecond
}

func (s *SettingsService) getKinds(defaultVal []domain.DiagramKind) []domain.DiagramKind {
	vals := s.configStore.GetStringSlice(keyDiagramKinds)
	if len(vals) == 0 {
		return defaultVal
	}
	kinds := make([]domain.DiagramKind, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			kinds = append(kinds, domain.DiagramKind(v))
		}
	}
	if len(kinds) == 0 {
		return defaultVal
	}
	return kinds
}
