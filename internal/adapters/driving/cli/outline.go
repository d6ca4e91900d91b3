package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

var outlineJSON bool

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the table of contents",
	Long: `Parses a Markdown file once and prints its headings as an indented
table of contents, each followed by its anchor.`,
	Args: cobra.ExactArgs(1),
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().BoolVar(&outlineJSON, "json", false, "output entries as JSON")
	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	docs, err := loadDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	entries, err := docs.Outline()
	if err != nil {
		return fmt.Errorf("building outline: %w", err)
	}

	if outlineJSON {
		return outputOutlineJSON(cmd, entries)
	}
	return outputOutlineText(cmd, entries)
}

type outlineEntryJSON struct {
	Level   int    `json:"level"`
	Text    string `json:"text"`
	Anchor  string `json:"anchor"`
	BlockID string `json:"block_id"`
}

func outputOutlineJSON(cmd *cobra.Command, entries []domain.TocEntry) error {
	out := make([]outlineEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = outlineEntryJSON{
			Level:   e.Level,
			Text:    e.Text,
			Anchor:  e.Anchor,
			BlockID: string(e.BlockID),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outline: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputOutlineText(cmd *cobra.Command, entries []domain.TocEntry) error {
	if len(entries) == 0 {
		cmd.Println("No headings found.")
		return nil
	}
	for _, e := range entries {
		indent := strings.Repeat("  ", max(e.Level-1, 0))
		cmd.Printf("%s%s  #%s\n", indent, e.Text, e.Anchor)
	}
	return nil
}
