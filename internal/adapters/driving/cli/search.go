package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driving"
)

var (
	searchLimit         int
	searchJSON          bool
	searchCaseSensitive bool
)

var searchCmd = &cobra.Command{
	Use:   "search <file> <query>",
	Short: "Search the text of a Markdown file",
	Long: `Finds every occurrence of a query in the text of a Markdown file.
Matching is case-insensitive unless --case-sensitive is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of matches (0 = all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output matches as JSON")
	searchCmd.Flags().BoolVarP(&searchCaseSensitive, "case-sensitive", "c", false, "match case exactly")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	docs, err := loadDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	opts := domain.SearchOptions{
		CaseSensitive: searchCaseSensitive,
		Limit:         searchLimit,
	}
	matches, err := docs.Search(args[1], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, matches)
	}
	return outputSearchTable(cmd, docs, matches)
}

type searchMatchJSON struct {
	BlockID    string `json:"block_id"`
	BlockIndex int    `json:"block_index"`
	Offset     int    `json:"offset"`
	Length     int    `json:"length"`
	Snippet    string `json:"snippet"`
}

func outputSearchJSON(cmd *cobra.Command, matches []domain.SearchMatch) error {
	out := make([]searchMatchJSON, len(matches))
	for i, m := range matches {
		out[i] = searchMatchJSON{
			BlockID:    string(m.BlockID),
			BlockIndex: m.BlockIndex,
			Offset:     m.Offset,
			Length:     m.Length,
			Snippet:    m.Snippet,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, docs driving.DocumentService, matches []domain.SearchMatch) error {
	if len(matches) == 0 {
		cmd.Println("No matches found.")
		return nil
	}

	snap, err := docs.Snapshot()
	if err != nil {
		return err
	}

	cmd.Println("Matches:")
	cmd.Println()
	for i, m := range matches {
		line := 0
		if m.BlockIndex >= 0 && m.BlockIndex < len(snap.Document.Blocks) {
			line = snap.Document.Blocks[m.BlockIndex].Line
		}
		cmd.Printf("  [%d] line %d\n", i+1, line)
		cmd.Printf("      %s\n", m.Snippet)
		cmd.Println()
	}
	return nil
}
