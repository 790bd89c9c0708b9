package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadenza/internal/prompts"
)

// writeTestConfig produces a config file pointing at temp directories so
// command tests never touch real user paths.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[paths]
output_dir = %q
log_dir = %q
`, filepath.Join(dir, "out"), filepath.Join(dir, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestResolveStrategy(t *testing.T) {
	cases := []struct {
		flag      string
		structure string
		want      prompts.Strategy
	}{
		{"sequential", "", prompts.StrategySequential},
		{"hierarchical", "song", prompts.StrategyHierarchical},
		{"ai", "", prompts.StrategyAISequential},
		{"ai", "classical", prompts.StrategyAIHierarchical},
		{"AI", "", prompts.StrategyAISequential},
		{"ai-hierarchical", "simple", prompts.StrategyAIHierarchical},
	}
	for _, tc := range cases {
		got, err := resolveStrategy(tc.flag, tc.structure)
		if err != nil {
			t.Errorf("resolveStrategy(%q, %q) failed: %v", tc.flag, tc.structure, err)
			continue
		}
		if got != tc.want {
			t.Errorf("resolveStrategy(%q, %q) = %s, want %s", tc.flag, tc.structure, got, tc.want)
		}
	}
	if _, err := resolveStrategy("spiral", ""); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestNormalizeFinalName(t *testing.T) {
	cases := map[string]string{
		"":          "composition.wav",
		"mix":       "mix.wav",
		"mix.wav":   "mix.wav",
		" track ":   "track.wav",
		"album.wav": "album.wav",
	}
	for in, want := range cases {
		if got := normalizeFinalName(in); got != want {
			t.Errorf("normalizeFinalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "(not set)" {
		t.Errorf("empty key = %q", got)
	}
	if got := maskKey("short"); got != "********" {
		t.Errorf("short key = %q", got)
	}
	masked := maskKey("sk-or-v1-abcdef123456")
	if strings.Contains(masked, "abcdef") {
		t.Errorf("masked key leaks middle: %q", masked)
	}
	if !strings.HasPrefix(masked, "sk-o") {
		t.Errorf("masked key = %q", masked)
	}
}

func TestRenderTableAlignsNumericColumns(t *testing.T) {
	out := renderTable([]string{"ID", "Name"}, [][]string{
		{"7", "alpha"},
		{"42", "beta"},
	}, 1)
	// Right alignment pads the short id on the left; the header stays left.
	if !strings.Contains(out, "│  7 │") {
		t.Errorf("id column not right-aligned:\n%s", out)
	}
	if !strings.Contains(out, "│ ID │") {
		t.Errorf("header not left-aligned:\n%s", out)
	}
	if !strings.Contains(out, "│ alpha │") {
		t.Errorf("name column not left-aligned:\n%s", out)
	}
}

func TestComposeRequiresPrompt(t *testing.T) {
	cfgPath := writeTestConfig(t)
	_, err := executeCommand(t, "compose", "--config", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "prompt") {
		t.Fatalf("expected missing prompt error, got %v", err)
	}
}

func TestComposeHierarchicalRequiresStructure(t *testing.T) {
	cfgPath := writeTestConfig(t)
	_, err := executeCommand(t, "compose",
		"--config", cfgPath,
		"--prompt", "ambient pad",
		"--strategy", "hierarchical",
		"--skip-preflight",
	)
	if err == nil || !strings.Contains(err.Error(), "--structure") {
		t.Fatalf("expected structure requirement error, got %v", err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := executeCommand(t, "history", "--config", cfgPath)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet") {
		t.Errorf("output = %q", out)
	}
}

func TestHistoryRejectsBadRunID(t *testing.T) {
	cfgPath := writeTestConfig(t)
	_, err := executeCommand(t, "history", "abc", "--config", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "invalid run id") {
		t.Fatalf("expected invalid run id error, got %v", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output should name the target path: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	// A second init must refuse to clobber.
	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestConfigShowPrintsEffectiveSettings(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	cfgPath := writeTestConfig(t)
	out, err := executeCommand(t, "config", "show", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"ws://127.0.0.1:8642/ws", "http://127.0.0.1:8642/files/", "(not set)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
