package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the settings stored in config.toml.

Use subcommands to change the default backend or the mermaid engine.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend [name]",
	Short: "Set the default backend",
	Long: `Set the backend used when --backend is not given.

Available backends:
  tui      - terminal UI
  browser  - local web page
  surface  - raster frames written to a PNG file

Without an argument, a choice is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsBackend,
}

var settingsEngineCmd = &cobra.Command{
	Use:   "engine <cli|browser>",
	Short: "Set the mermaid engine",
	Long: `Set how mermaid diagrams are rendered.

  cli      - the mermaid-cli (mmdc) binary
  browser  - mermaid.js inside headless Chrome`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsEngine,
}

var backendChoices = []domain.BackendName{
	domain.BackendTUI,
	domain.BackendBrowser,
	domain.BackendSurface,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	settingsCmd.AddCommand(settingsEngineCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}
	cfg := settings.Get()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Watch]")
	cmd.Printf("  Debounce: %s\n", cfg.Watch.Debounce)
	cmd.Printf("  Retry interval: %s\n", cfg.Watch.RetryInterval)
	cmd.Println()

	cmd.Println("[Diagrams]")
	cmd.Printf("  Engine: %s\n", cfg.Diagrams.Engine)
	kinds := make([]string, len(cfg.Diagrams.Kinds))
	for i, k := range cfg.Diagrams.Kinds {
		kinds[i] = string(k)
	}
	cmd.Printf("  Kinds: %s\n", strings.Join(kinds, ", "))
	cmd.Printf("  Cache capacity: %d\n", cfg.Diagrams.CacheCapacity)
	cmd.Printf("  Max concurrent: %d\n", cfg.Diagrams.MaxConcurrent)
	cmd.Printf("  Timeout: %s\n", cfg.Diagrams.Timeout)
	if cfg.Diagrams.Engine == engineBrowser {
		cmd.Printf("  Mermaid script: %s\n", cfg.Diagrams.MermaidScriptURL)
	} else {
		cmd.Printf("  mmdc path: %s\n", cfg.Diagrams.MMDCPath)
	}
	cmd.Println()

	cmd.Println("[Backend]")
	cmd.Printf("  Default: %s\n", cfg.Backend)
	cmd.Printf("  Browser address: %s\n", cfg.BrowserAddr)
	cmd.Printf("  Surface: %dx%d -> %s\n", cfg.Surface.Width, cfg.Surface.Height, cfg.Surface.Output)

	return nil
}

func runSettingsBackend(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}

	var name domain.BackendName
	if len(args) == 1 {
		name = domain.BackendName(args[0])
	} else {
		reader := bufio.NewReader(cmd.InOrStdin())

		cmd.Println("Select Default Backend")
		cmd.Println("----------------------")
		for i, b := range backendChoices {
			cmd.Printf("  %d. %s\n", i+1, b)
		}
		cmd.Print("\nEnter choice: ")
		idx := parseChoice(readLine(reader), len(backendChoices), 0)
		if idx == 0 {
			return errors.New("invalid selection")
		}
		name = backendChoices[idx-1]
	}

	if err := settings.SetBackend(name); err != nil {
		return err
	}

	cmd.Printf("Default backend set to: %s\n", name)
	return nil
}

func runSettingsEngine(cmd *cobra.Command, args []string) error {
	engine := args[0]
	if engine != engineCLI && engine != engineBrowser {
		return fmt.Errorf("%w: mermaid engine %q", domain.ErrInvalidInput, engine)
	}

	settings, err := openSettings()
	if err != nil {
		return err
	}
	cfg := settings.Get()
	cfg.Diagrams.Engine = engine
	if err := settings.Save(cfg); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Mermaid engine set to: %s\n", engine)
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}
