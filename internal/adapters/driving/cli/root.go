// Package cli provides the cobra command tree for mdr.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driven/config/file"
	"github.com/niraj-khatiwada/mdr/internal/adapters/driven/config/memory"
	"github.com/niraj-khatiwada/mdr/internal/connectors/filesystem"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/services"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose   bool
	configDir string
)

// View flags. They override the config file only when given.
var (
	viewBackend string
	viewAddr    string
	viewOutput  string
	viewWidth   int
	viewHeight  int
	viewEngine  string
	viewMCPPort int
)

// isTerminal reports whether the TUI can take over the terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var rootCmd = &cobra.Command{
	Use:   "mdr [file]",
	Short: "Live Markdown viewer",
	Long: `mdr renders a Markdown file and keeps the view in sync while you edit it.

Mermaid diagrams are rendered in the background and the scroll position
follows the content across edits.

Backends:
  tui      - terminal UI (default)
  browser  - local web page updated over server-sent events
  surface  - raster frames written to a PNG file

Examples:
  mdr README.md
  mdr --backend browser --addr 127.0.0.1:9000 notes.md
  mdr --backend surface --output frame.png design.md`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	RunE: runView,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&configDir, "config", "", "config directory (default ~/.mdr)")

	f := rootCmd.Flags()
	f.StringVarP(&viewBackend, "backend", "b", "", "presentation backend: tui, browser or surface")
	f.StringVar(&viewAddr, "addr", "", "listen address for the browser backend")
	f.StringVarP(&viewOutput, "output", "o", "", "PNG file written by the surface backend")
	f.IntVar(&viewWidth, "width", 0, "surface width in pixels")
	f.IntVar(&viewHeight, "height", 0, "surface height in pixels")
	f.StringVar(&viewEngine, "engine", "", "mermaid engine: cli or browser")
	f.IntVar(&viewMCPPort, "mcp-port", 0, "also serve MCP over HTTP on this port")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func runView(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	path, err := filesystem.RequireFile(args[0])
	if err != nil {
		return err
	}

	cfg, err := applyViewFlags(cmd, loadConfig())
	if err != nil {
		return err
	}

	if cfg.Backend == domain.BackendTUI && !isTerminal() {
		return fmt.Errorf("%w: tui needs an interactive terminal, try --backend browser", domain.ErrBackendUnavailable)
	}

	p := newPipeline(path, cfg)
	defer p.Close()

	primary, err := newBackend(cmd, cfg, p)
	if err != nil {
		return err
	}

	backends := []runner{primary}
	if viewMCPPort > 0 {
		srv, err := newMCPHTTP(p, fmt.Sprintf("127.0.0.1:%d", viewMCPPort))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", srv.addr)
		backends = append(backends, srv)
	}

	return p.run(cmd.Context(), backends...)
}

// openSettings opens the settings service over the config directory.
func openSettings() (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store), nil
}

// loadConfig reads the stored settings. An unusable config directory only
// costs the stored values: defaults are used and a warning is logged.
func loadConfig() domain.Config {
	settings, err := openSettings()
	if err != nil {
		logger.For("cli").Warn("%v, using defaults", err)
		settings = services.NewSettingsService(memory.NewConfigStore(nil))
	}
	return settings.Get()
}

// applyViewFlags overlays the flags the user set on cfg.
func applyViewFlags(cmd *cobra.Command, cfg domain.Config) (domain.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		name := domain.BackendName(viewBackend)
		if !name.IsValid() {
			return cfg, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, viewBackend)
		}
		cfg.Backend = name
	}
	if flags.Changed("addr") {
		cfg.BrowserAddr = viewAddr
	}
	if flags.Changed("output") {
		cfg.Surface.Output = viewOutput
	}
	if flags.Changed("width") {
		cfg.Surface.Width = viewWidth
	}
	if flags.Changed("height") {
		cfg.Surface.Height = viewHeight
	}
	if flags.Changed("engine") {
		if viewEngine != engineCLI && viewEngine != engineBrowser {
			return cfg, fmt.Errorf("%w: mermaid engine %q", domain.ErrInvalidInput, viewEngine)
		}
		cfg.Diagrams.Engine = viewEngine
	}
	return cfg.Normalise(), nil
}
