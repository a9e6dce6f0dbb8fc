package diff

import (
	"fmt"
	"strings"
	"testing"
)

func TestUnifiedIdentical(t *testing.T) {
	result := Unified("a.txt", "hello\n", "hello\n")
	if result != "" {
		t.Errorf("expected empty diff for identical inputs, got:\n%s", result)
	}
}

func TestUnifiedEmptyInputs(t *testing.T) {
	tests := []struct {
		name         string
		old, updated string
		wantDiff     bool
	}{
		{"both empty", "", "", false},
		{"old empty", "", "hello\n", true},
		{"new empty", "hello\n", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Unified("a.txt", tt.old, tt.updated)
			hasDiff := result != ""
			if hasDiff != tt.wantDiff {
				t.Errorf("wantDiff=%v, got diff=%q", tt.wantDiff, result)
			}
		})
	}
}

func TestUnifiedAddition(t *testing.T) {
	old := "line1\nline2\n"
	updated := "line1\nline2\nline3\n"

	result := Unified("a.txt", old, updated)

	if !strings.Contains(result, "--- a/a.txt") {
		t.Error("missing --- header")
	}
	if !strings.Contains(result, "+++ b/a.txt") {
		t.Error("missing +++ header")
	}
	if !strings.Contains(result, "+line3\n") {
		t.Errorf("missing addition line, got:\n%s", result)
	}
}

func TestUnifiedDeletion(t *testing.T) {
	old := "line1\nline2\nline3\n"
	updated := "line1\nline3\n"

	result := Unified("a.txt", old, updated)

	if !strings.Contains(result, "-line2\n") {
		t.Errorf("missing deletion line, got:\n%s", result)
	}
}

func TestUnifiedModification(t *testing.T) {
	old := "key=val\n"
	updated := "key = val\n"

	result := Unified("config.ini", old, updated)

	if !strings.Contains(result, "-key=val\n") {
		t.Errorf("missing old line, got:\n%s", result)
	}
	if !strings.Contains(result, "+key = val\n") {
		t.Errorf("missing new line, got:\n%s", result)
	}
}

func TestUnifiedHunkHeaders(t *testing.T) {
	old := "line1\nline2\nline3\n"
	updated := "line1\nchanged\nline3\n"

	result := Unified("a.txt", old, updated)

	if !strings.Contains(result, "@@ -1,3 +1,3 @@\n") {
		t.Errorf("missing @@ hunk header, got:\n%s", result)
	}
}

func TestHunks(t *testing.T) {
	tests := []struct {
		name         string
		old, updated string
		want         string
	}{
		{
			name:    "identical",
			old:     "a\n",
			updated: "a\n",
			want:    "",
		},
		{
			name:    "replace block puts deletions first",
			old:     "A\r\nB\r\n",
			updated: "A\nB\n",
			want:    "@@ -1,2 +1,2 @@\n-A\r\n-B\r\n+A\n+B",
		},
		{
			name:    "single line ranges omit the count",
			old:     "x\n",
			updated: "y\n",
			want:    "@@ -1 +1 @@\n-x\n+y",
		},
		{
			name:    "insertion into empty file",
			old:     "",
			updated: "a\nb\n",
			want:    "@@ -0,0 +1,2 @@\n+a\n+b",
		},
		{
			name:    "deletion of last line keeps context",
			old:     "1\n2\n3\n4\n5\n",
			updated: "1\n2\n3\n4\n",
			want:    "@@ -2,4 +2,3 @@\n 2\n 3\n 4\n-5",
		},
		{
			name:    "missing final newline",
			old:     "a\nb",
			updated: "a\nb\n",
			want:    "@@ -1,2 +1,2 @@\n a\n-b\n+b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hunks(tt.old, tt.updated)
			if got != tt.want {
				t.Errorf("Hunks() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestHunksSeparateRegions(t *testing.T) {
	lines := make([]string, 0, 30)
	for i := range 30 {
		lines = append(lines, fmt.Sprintf("l%d\n", i))
	}
	old := strings.Join(lines, "")
	lines[2] = "X\n"
	lines[25] = "Y\n"
	updated := strings.Join(lines, "")

	got := Hunks(old, updated)
	if n := strings.Count(got, "@@ -"); n != 2 {
		t.Fatalf("expected 2 hunks, got %d:\n%s", n, got)
	}
	if !strings.Contains(got, "@@ -1,6 +1,6 @@\n") {
		t.Errorf("first hunk header wrong:\n%s", got)
	}
	if !strings.Contains(got, "@@ -23,7 +23,7 @@\n") {
		t.Errorf("second hunk header wrong:\n%s", got)
	}
}

func TestUnifiedLargeFile(t *testing.T) {
	oldLines := make([]string, 0, 1000)
	newLines := make([]string, 0, 1000)
	for i := range 1000 {
		oldLines = append(oldLines, "line "+string(rune('A'+i%26))+"\n")
		newLines = append(newLines, "line "+string(rune('A'+i%26))+"\n")
	}
	// Change a few lines.
	newLines[500] = "changed line 500\n"
	newLines[999] = "changed line 999\n"

	old := strings.Join(oldLines, "")
	updated := strings.Join(newLines, "")

	result := Unified("large.txt", old, updated)

	if result == "" {
		t.Error("expected non-empty diff for modified large file")
	}
	if !strings.Contains(result, "+changed line 500\n") {
		t.Error("missing change at line 500")
	}
	if !strings.Contains(result, "+changed line 999\n") {
		t.Error("missing change at line 999")
	}
}

func TestUnifiedContextLines(t *testing.T) {
	// Build a file with enough lines to see context.
	lines := make([]string, 0, 20)
	for i := range 20 {
		lines = append(lines, "line"+string(rune('A'+i))+"\n")
	}
	old := strings.Join(lines, "")

	// Change line 10 (0-indexed).
	newLines := make([]string, len(lines))
	copy(newLines, lines)
	newLines[10] = "CHANGED\n"
	updated := strings.Join(newLines, "")

	result := Unified("a.txt", old, updated)

	// Should have context lines before and after the change.
	if !strings.Contains(result, " line"+string(rune('A'+7))) {
		t.Errorf("expected context line 7 before change, got:\n%s", result)
	}
	if !strings.Contains(result, " line"+string(rune('A'+13))) {
		t.Errorf("expected context line 13 after change, got:\n%s", result)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"one line with newline", "hello\n", 1},
		{"one line no newline", "hello", 1},
		{"two lines", "a\nb\n", 2},
		{"trailing blank", "a\n\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := splitLines(tt.input)
			if len(lines) != tt.want {
				t.Errorf("splitLines(%q) = %d lines, want %d: %q", tt.input, len(lines), tt.want, lines)
			}
		})
	}
}

// apply replays the hunks of a diff on oldText.
func apply(t *testing.T, oldText, hunks string) string {
	t.Helper()
	old := splitLines(oldText)
	var out strings.Builder
	pos := 0
	for _, line := range splitLines(hunks) {
		switch {
		case strings.HasPrefix(line, "@@"):
			var oldRange string
			if _, err := fmt.Sscanf(line, "@@ -%s", &oldRange); err != nil {
				t.Fatalf("bad hunk header %q: %v", line, err)
			}
			start, count := 0, 1
			if i := strings.IndexByte(oldRange, ','); i >= 0 {
				fmt.Sscanf(oldRange[i+1:], "%d", &count)
				oldRange = oldRange[:i]
			}
			fmt.Sscanf(oldRange, "%d", &start)
			if count > 0 {
				start--
			}
			for ; pos < start; pos++ {
				out.WriteString(old[pos])
			}
		case strings.HasPrefix(line, " "):
			out.WriteString(old[pos])
			pos++
		case strings.HasPrefix(line, "-"):
			pos++
		case strings.HasPrefix(line, "+"):
			out.WriteString(line[1:])
		}
	}
	for ; pos < len(old); pos++ {
		out.WriteString(old[pos])
	}
	return out.String()
}

func TestHunksRoundTrip(t *testing.T) {
	lines := func(s ...string) string {
		if len(s) == 0 {
			return ""
		}
		return strings.Join(s, "\n") + "\n"
	}

	tests := []struct {
		name     string
		old, new string
	}{
		{"insert into empty", "", lines("a", "b")},
		{"delete everything", lines("a", "b"), ""},
		{"change first", lines("a", "b", "c"), lines("x", "b", "c")},
		{"change last", lines("a", "b", "c"), lines("a", "b", "x")},
		{"insert middle", lines("a", "b", "c"), lines("a", "b", "new", "c")},
		{"delete middle", lines("a", "b", "c", "d"), lines("a", "d")},
		{
			"separate regions",
			lines("1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15"),
			lines("one", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "fifteen", "16"),
		},
		{"repeated lines", lines("a", "a", "b", "a"), lines("a", "b", "a", "a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apply(t, tt.old, Hunks(tt.old, tt.new)+"\n")
			if got != tt.new {
				t.Errorf("round trip:\ngot  %q\nwant %q", got, tt.new)
			}
		})
	}
}
