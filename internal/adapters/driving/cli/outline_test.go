package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

func TestOutlineCmd_Use(t *testing.T) {
	assert.Equal(t, "outline <file>", outlineCmd.Use)
}

func TestOutlineCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestConfig(t)

	_, err := executeCmd(context.Background(), "outline")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestOutlineCmd_PrintsIndentedHeadings(t *testing.T) {
	setupTestConfig(t)
	path := writeMarkdown(t, sampleMarkdown)

	out, err := executeCmd(context.Background(), "outline", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Guide  #guide\n")
	assert.Contains(t, out, "\n  Install  #install\n")
	assert.Contains(t, out, "\n    Linux  #linux\n")
	assert.Contains(t, out, "\n  Usage  #usage\n")
}

func TestOutlineCmd_NoHeadings(t *testing.T) {
	setupTestConfig(t)
	path := writeMarkdown(t, "Just a paragraph.\n")

	out, err := executeCmd(context.Background(), "outline", path)

	require.NoError(t, err)
	assert.Contains(t, out, "No headings found.")
}

func TestOutlineCmd_JSON(t *testing.T) {
	setupTestConfig(t)
	path := writeMarkdown(t, sampleMarkdown)

	out, err := executeCmd(context.Background(), "outline", "--json", path)

	require.NoError(t, err)
	var entries []outlineEntryJSON
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, 1, entries[0].Level)
	assert.Equal(t, "Guide", entries[0].Text)
	assert.Equal(t, "linux", entries[2].Anchor)
	assert.NotEmpty(t, entries[2].BlockID)
}

func TestOutlineCmd_MissingFile(t *testing.T) {
	setupTestConfig(t)

	_, err := executeCmd(context.Background(), "outline", filepath.Join(t.TempDir(), "nope.md"))

	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}
