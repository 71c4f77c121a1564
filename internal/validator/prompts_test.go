package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultPrompts_CoverEveryCategory(t *testing.T) {
	prompts := DefaultPrompts()
	for _, cat := range Categories {
		assert.NotEmpty(t, prompts.System(cat), cat)
	}
}

func TestLoadPrompts(t *testing.T) {
	path := writePrompts(t, `
[check]
system = """
Judge whether the instruction was given.
"""

[flags]
system = ""
`)

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "Judge whether the instruction was given.", prompts.System(CategoryCheck))
	assert.Equal(t, DefaultPrompts().System(CategoryFlags), prompts.System(CategoryFlags))
	assert.Equal(t, DefaultPrompts().System(CategoryAddress), prompts.System(CategoryAddress))
}

func TestLoadPrompts_EmptyPathIsDefault(t *testing.T) {
	prompts, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts(), prompts)
}

func TestLoadPrompts_Errors(t *testing.T) {
	_, err := LoadPrompts(writePrompts(t, "[weather]\nsystem = \"x\"\n"))
	assert.ErrorContains(t, err, `unknown category "weather"`)

	_, err = LoadPrompts(writePrompts(t, "[check]\nmodel = \"x\"\n"))
	assert.ErrorContains(t, err, "unknown keys")

	_, err = LoadPrompts(writePrompts(t, "[check\n"))
	assert.ErrorContains(t, err, "failed to read prompts file")

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
