package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/logger"
)

const sampleMarkdown = `# Guide

Intro paragraph about widgets.

## Install

Run the installer. Widgets appear.

### Linux

Use the package manager.

## Usage

` + "```mermaid\ngraph TD\n  A-->B\n```\n"

// setupTestConfig points the config directory at a temp dir and silences logging.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	origDir := configDir
	origTerminal := isTerminal
	configDir = dir
	logger.SetOutput(io.Discard)

	t.Cleanup(func() {
		configDir = origDir
		isTerminal = origTerminal
		logger.SetOutput(os.Stderr)
		resetFlags(rootCmd)
	})
	return dir
}

// writeMarkdown writes content to a file in a temp dir and returns its path.
func writeMarkdown(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// executeCmd runs the root command with args and returns everything it printed.
func executeCmd(ctx context.Context, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// resetFlags restores every flag in the tree to its default.
// Cobra keeps parsed values on the package-level commands between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue) //nolint:errcheck
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
