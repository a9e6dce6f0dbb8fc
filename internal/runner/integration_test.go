package runner_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const integrationConfig = `formats:
  - name: text
    target: ["**/*.txt"]
    line_endings: unix
    steps:
      - type: trim_trailing_whitespace
      - type: end_with_newline
`

// binaryPath builds the cellfmt binary and returns its path.
func binaryPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "cellfmt")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}

	cmd := exec.CommandContext(t.Context(), "go", "build", "-o", bin, "../../cmd/cellfmt")
	cmd.Dir = filepath.Join(projectRoot(t), "internal", "runner")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, out)
	}
	return bin
}

func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

// project writes a config and the given files into a temp dir.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["cellfmt.yml"] = integrationConfig
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("unexpected error: %v", err)
	}
	return exitErr.ExitCode()
}

func TestIntegrationCheck(t *testing.T) {
	bin := binaryPath(t)
	dir := project(t, map[string]string{"good.txt": "a\n", "bad.txt": "a  \n"})

	cmd := exec.CommandContext(t.Context(), bin, "check", "--color", "off")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if code := exitCode(t, err); code != 1 {
		t.Errorf("check unformatted: expected exit 1, got %d", code)
	}
	if !strings.Contains(string(out), "The following files had format violations:\n    bad.txt\n") {
		t.Errorf("check output: got %q", string(out))
	}
}

func TestIntegrationApply(t *testing.T) {
	bin := binaryPath(t)
	dir := project(t, map[string]string{"bad.txt": "a  \n\n\n"})

	cmd := exec.CommandContext(t.Context(), bin, "apply")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("apply: %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "bad.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\n" {
		t.Errorf("file after apply: got %q", string(data))
	}

	cmd = exec.CommandContext(t.Context(), bin, "check")
	cmd.Dir = dir
	if code := exitCode(t, cmd.Run()); code != 0 {
		t.Errorf("check after apply: expected exit 0, got %d", code)
	}
}

func TestIntegrationDiff(t *testing.T) {
	bin := binaryPath(t)
	dir := project(t, map[string]string{"bad.txt": "a  \n"})

	cmd := exec.CommandContext(t.Context(), bin, "diff")
	cmd.Dir = dir
	out, err := cmd.Output()
	if code := exitCode(t, err); code != 1 {
		t.Errorf("diff with changes: expected exit 1, got %d", code)
	}
	if !strings.Contains(string(out), "-a  \n+a\n") {
		t.Errorf("diff output: got %q", string(out))
	}
}

func TestIntegrationVersion(t *testing.T) {
	bin := binaryPath(t)

	out, err := exec.CommandContext(t.Context(), bin, "version").Output()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(string(out), "cellfmt ") {
		t.Errorf("version: got %q", string(out))
	}
}

func TestIntegrationMissingConfig(t *testing.T) {
	bin := binaryPath(t)

	cmd := exec.CommandContext(t.Context(), bin, "check", "--config", "/nonexistent/cellfmt.yml")
	if code := exitCode(t, cmd.Run()); code != 2 {
		t.Errorf("missing config: expected exit 2, got %d", code)
	}
}
