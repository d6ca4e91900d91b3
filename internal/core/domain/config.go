package domain

import "time"

// Default configuration values.
const (
	DefaultDebounce        = 300 * time.Millisecond
	DefaultRetryInterval   = time.Second
	DefaultCacheCapacity   = 128
	DefaultMaxConcurrent   = 4
	DefaultRenderTimeout   = 10 * time.Second
	DefaultDiagramEngine   = "cli"
	DefaultMMDCPath        = "mmdc"
	DefaultMermaidScript   = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"
	DefaultBackend         = BackendTUI
	DefaultBrowserAddr     = "127.0.0.1:7878"
	DefaultSurfaceWidth    = 1024
	DefaultSurfaceHeight   = 1400
	DefaultSurfaceOutput   = "mdr-frame.png"
	defaultUnknownBackend  = "unknown"
	minimumRenderTimeout   = 100 * time.Millisecond
	minimumDebounceWindow  = 10 * time.Millisecond
	minimumRetryInterval   = 50 * time.Millisecond
	maximumRenderWorkers   = 64
	maximumDiagramCapacity = 1 << 16
)

// BackendName identifies a presentation technology.
type BackendName string

// Supported presentation backends.
const (
	// BackendTUI is the terminal UI.
	BackendTUI BackendName = "tui"

	// BackendBrowser is the embedded browser view served over HTTP.
	BackendBrowser BackendName = "browser"

	// BackendSurface is the immediate-mode raster surface.
	BackendSurface BackendName = "surface"
)

// IsValid returns true if the backend is recognised.
func (b BackendName) IsValid() bool {
	switch b {
	case BackendTUI, BackendBrowser, BackendSurface:
		return true
	default:
		return false
	}
}

// String returns the backend name, or "unknown".
func (b BackendName) String() string {
	if !b.IsValid() {
		return defaultUnknownBackend
	}
	return string(b)
}

// WatchConfig configures the source watcher.
type WatchConfig struct {
	Debounce      time.Duration
	RetryInterval time.Duration
}

// DiagramConfig configures diagram rendering.
type DiagramConfig struct {
	CacheCapacity int
	MaxConcurrent int
	Timeout       time.Duration

	// Engine selects the mermaid engine: "cli" or "browser".
	Engine string

	// Kinds lists fence info strings treated as diagrams.
	Kinds []DiagramKind

	MMDCPath         string
	MermaidScriptURL string
}

// SurfaceConfig configures the raster surface backend.
type SurfaceConfig struct {
	Width  int
	Height int
	Output string
}

// Config is the complete runtime configuration.
type Config struct {
	Watch       WatchConfig
	Diagrams    DiagramConfig
	Backend     BackendName
	BrowserAddr string
	Surface     SurfaceConfig
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Watch: WatchConfig{
			Debounce:      DefaultDebounce,
			RetryInterval: DefaultRetryInterval,
		},
		Diagrams: DiagramConfig{
			CacheCapacity:    DefaultCacheCapacity,
			MaxConcurrent:    DefaultMaxConcurrent,
			Timeout:          DefaultRenderTimeout,
			Engine:           DefaultDiagramEngine,
			Kinds:            []DiagramKind{DiagramMermaid},
			MMDCPath:         DefaultMMDCPath,
			MermaidScriptURL: DefaultMermaidScript,
		},
		Backend:     DefaultBackend,
		BrowserAddr: DefaultBrowserAddr,
		Surface: SurfaceConfig{
			Width:  DefaultSurfaceWidth,
			Height: DefaultSurfaceHeight,
			Output: DefaultSurfaceOutput,
		},
	}
}

// Normalise clamps out-of-range values back to usable ones.
func (c Config) Normalise() Config {
	def := DefaultConfig()
	if c.Watch.Debounce < minimumDebounceWindow {
		c.Watch.Debounce = def.Watch.Debounce
	}
	if c.Watch.RetryInterval < minimumRetryInterval {
		c.Watch.RetryInterval = def.Watch.RetryInterval
	}
	if c.Diagrams.CacheCapacity <= 0 || c.Diagrams.CacheCapacity > maximumDiagramCapacity {
		c.Diagrams.CacheCapacity = def.Diagrams.CacheCapacity
	}
	if c.Diagrams.MaxConcurrent <= 0 || c.Diagrams.MaxConcurrent > maximumRenderWorkers {
		c.Diagrams.MaxConcurrent = def.Diagrams.MaxConcurrent
	}
	if c.Diagrams.Timeout < minimumRenderTimeout {
		c.Diagrams.Timeout = def.Diagrams.Timeout
	}
	if c.Diagrams.Engine == "" {
		c.Diagrams.Engine = def.Diagrams.Engine
	}
	if len(c.Diagrams.Kinds) == 0 {
		c.Diagrams.Kinds = def.Diagrams.Kinds
	}
	if c.Diagrams.MMDCPath == "" {
		c.Diagrams.MMDCPath = def.Diagrams.MMDCPath
	}
	if c.Diagrams.MermaidScriptURL == "" {
		c.Diagrams.MermaidScriptURL = def.Diagrams.MermaidScriptURL
	}
	if !c.Backend.IsValid() {
		c.Backend = def.Backend
	}
	if c.BrowserAddr == "" {
		c.BrowserAddr = def.BrowserAddr
	}
	if c.Surface.Width <= 0 {
		c.Surface.Width = def.Surface.Width
	}
	if c.Surface.Height <= 0 {
		c.Surface.Height = def.Surface.Height
	}
	if c.Surface.Output == "" {
		c.Surface.Output = def.Surface.Output
	}
	return c
}
