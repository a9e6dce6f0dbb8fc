package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/cellfmt/internal/runner"
)

func TestUseColor(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	on, err := useColor("on", f)
	require.NoError(t, err)
	assert.True(t, on)

	off, err := useColor("off", f)
	require.NoError(t, err)
	assert.False(t, off)

	auto, err := useColor("auto", f)
	require.NoError(t, err)
	assert.False(t, auto, "a regular file is not a terminal")

	_, err = useColor("sometimes", f)
	assert.ErrorContains(t, err, "invalid --color")
}

func TestOptions(t *testing.T) {
	g := &globalFlags{config: "c.yml", format: "text", jobs: 2, color: "off", quiet: true, logLevel: "warn", logFormat: "json"}

	opts, err := g.options(runner.CommandApply, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, &runner.Options{
		Command:    runner.CommandApply,
		Paths:      []string{"a", "b"},
		ConfigPath: "c.yml",
		Format:     "text",
		Jobs:       2,
		Quiet:      true,
		LogLevel:   "warn",
		LogFormat:  "json",
	}, opts)
}

func TestExecuteInvalidFlag(t *testing.T) {
	assert.Equal(t, runner.ExitError, execute(t.Context(), []string{"check", "--no-such-flag"}))
}

func TestExecuteCheck(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "cellfmt.yml")
	require.NoError(t, os.WriteFile(config, []byte(`formats:
  - name: text
    target: ["*.txt"]
    line_endings: unix
    steps:
      - type: trim_trailing_whitespace
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a  \n"), 0o644))

	args := []string{"--config", config, "--color", "off", "--log-level", "error"}
	assert.Equal(t, runner.ExitFormatDiff, execute(t.Context(), append([]string{"check"}, args...)))
	assert.Equal(t, runner.ExitOK, execute(t.Context(), append([]string{"apply", "-q"}, args...)))

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(got))
	assert.Equal(t, runner.ExitOK, execute(t.Context(), append([]string{"check"}, args...)))
}
