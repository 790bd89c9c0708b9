package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cadenza/internal/config"
	"cadenza/internal/prompts"
)

func TestCheckBackendReachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	result := CheckBackend(context.Background(), listener.Addr().String())
	if !result.Passed {
		t.Errorf("backend should be reachable: %+v", result)
	}
}

func TestCheckBackendUnreachable(t *testing.T) {
	// Reserve a port and close it so nothing listens there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	result := CheckBackend(context.Background(), addr)
	if result.Passed {
		t.Errorf("backend should be unreachable: %+v", result)
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Output directory", dir)
	if !result.Passed {
		t.Errorf("directory should pass: %+v", result)
	}

	result = CheckDirectoryAccess("Output directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Errorf("missing directory should fail: %+v", result)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = CheckDirectoryAccess("Output directory", file)
	if result.Passed {
		t.Errorf("regular file should fail: %+v", result)
	}
}

func TestCheckFFmpeg(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	t.Setenv("PATH", dir)

	if result := CheckFFmpeg("ffmpeg"); !result.Passed {
		t.Errorf("ffmpeg should resolve: %+v", result)
	}
	if result := CheckFFmpeg("not-ffmpeg"); result.Passed {
		t.Errorf("missing binary should fail: %+v", result)
	}
}

func TestCheckCreativeMissingKey(t *testing.T) {
	result := CheckCreative(context.Background(), config.Creative{})
	if result.Passed {
		t.Errorf("missing key should fail: %+v", result)
	}
}

func TestCheckCreativeHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	result := CheckCreative(context.Background(), config.Creative{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	})
	if !result.Passed {
		t.Errorf("healthy service should pass: %+v", result)
	}
}

func TestRunAllSkipsCreativeForDeterministicStrategies(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()

	results := RunAll(context.Background(), &cfg, prompts.StrategySequential)
	for _, result := range results {
		if result.Name == "Creative service" {
			t.Errorf("creative check should be skipped for sequential strategy")
		}
	}

	results = RunAll(context.Background(), &cfg, prompts.StrategyAISequential)
	found := false
	for _, result := range results {
		if result.Name == "Creative service" {
			found = true
		}
	}
	if !found {
		t.Error("creative check missing for AI strategy")
	}
}

func TestHasFailures(t *testing.T) {
	if HasFailures([]Result{{Passed: true}, {Passed: true}}) {
		t.Error("all-passed should report no failures")
	}
	if !HasFailures([]Result{{Passed: true}, {Passed: false}}) {
		t.Error("one failure should be reported")
	}
}
