package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The default config runs the mock providers, so the commands work offline.
func TestGenerateAndImageCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "missing.json")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "--config", cfgPath, "--text", "Go is a programming language.", "--out", dir})
	require.NoError(t, rootCmd.Execute())

	for _, name := range []string{"blog.html", "briefing.html", "prompt.txt", "generated-image.jpeg"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
	blog, err := os.ReadFile(filepath.Join(dir, "blog.html"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(blog)), "<"), "blog post is rendered HTML")

	imgDir := filepath.Join(dir, "img")
	rootCmd.SetArgs([]string{"image", "--config", cfgPath, "--prompt", "a cat", "--out", imgDir})
	require.NoError(t, rootCmd.Execute())
	_, err = os.Stat(filepath.Join(imgDir, "generated-image.jpeg"))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "generated-image.jpeg")
}
