package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/niraj-khatiwada/mdr/internal/adapters/driving/mcp"
	"github.com/niraj-khatiwada/mdr/internal/connectors/filesystem"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Start the MCP server",
	Long: `Watch a Markdown file and expose it over the Model Context Protocol.

The pipeline runs headless: the document is reparsed on every save and
diagrams are rendered in the background. Tools: outline, search, snapshot.
Resources: mdr://document and mdr://diagrams/{hash}.

By default the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (for desktop assistants)
  mdr mcp serve README.md

  # HTTP mode (for MCP Inspector, remote access)
  mdr mcp serve --port 8080 README.md`,
	Args: cobra.ExactArgs(1),
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	path, err := filesystem.RequireFile(args[0])
	if err != nil {
		return err
	}
	p := newPipeline(path, loadConfig())
	defer p.Close()

	if port > 0 {
		srv, err := newMCPHTTP(p, fmt.Sprintf(":%d", port))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", srv.addr)
		return p.run(cmd.Context(), srv)
	}

	srv, err := mcp.NewServer(&mcp.Ports{Document: p.document})
	if err != nil {
		return err
	}
	return p.run(cmd.Context(), srv)
}

