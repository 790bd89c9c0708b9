package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinariesFindsInstalledTool(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "fakeffmpeg")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	t.Setenv("PATH", dir)

	results := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: "fakeffmpeg", Description: "Required for assembly"},
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Available {
		t.Errorf("tool should be available: %+v", results[0])
	}
	if results[0].Command != tool {
		t.Errorf("command = %q, want resolved path %q", results[0].Command, tool)
	}
}

func TestCheckBinariesReportsMissingTool(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	results := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: "definitely-not-installed", Description: "Required for assembly"},
		{Name: "Extras", Command: "", Optional: true},
	})
	if results[0].Available {
		t.Error("missing tool reported as available")
	}
	if results[0].Detail == "" {
		t.Error("missing tool should carry a detail message")
	}
	if results[1].Detail != "command not configured" {
		t.Errorf("unconfigured detail = %q", results[1].Detail)
	}
}
