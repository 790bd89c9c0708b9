package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENROUTER_MODEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.Port != defaultBackendPort {
		t.Fatalf("expected default port, got %d", cfg.Backend.Port)
	}
	if cfg.Backend.MinClipBytes != defaultMinClipBytes {
		t.Fatalf("expected default clip threshold, got %d", cfg.Backend.MinClipBytes)
	}
	if cfg.WebSocketURL() != "ws://127.0.0.1:8642/ws" {
		t.Fatalf("unexpected websocket url %q", cfg.WebSocketURL())
	}
	if cfg.FilesBaseURL() != "http://127.0.0.1:8642/files/" {
		t.Fatalf("unexpected files url %q", cfg.FilesBaseURL())
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENROUTER_MODEL", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[backend]
port = 9000
min_clip_bytes = 1024

[creative]
api_key = "file-key"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.Port != 9000 {
		t.Fatalf("expected overridden port, got %d", cfg.Backend.Port)
	}
	if cfg.Backend.MinClipBytes != 1024 {
		t.Fatalf("expected overridden clip threshold, got %d", cfg.Backend.MinClipBytes)
	}
	if cfg.Creative.APIKey != "file-key" {
		t.Fatalf("expected file key, got %q", cfg.Creative.APIKey)
	}
	// Untouched sections keep defaults.
	if cfg.Assembly.FFmpegBinary != defaultFFmpegBinary {
		t.Fatalf("expected default ffmpeg binary, got %q", cfg.Assembly.FFmpegBinary)
	}
}

func TestLoadReadsCreativeKeyFromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("OPENROUTER_MODEL", "env/model")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Creative.APIKey != "env-key" {
		t.Fatalf("expected env key, got %q", cfg.Creative.APIKey)
	}
	if cfg.Creative.Model != "env/model" {
		t.Fatalf("expected env model, got %q", cfg.Creative.Model)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Backend.Port = 0 }},
		{"empty output dir", func(c *Config) { c.Paths.OutputDir = "" }},
		{"zero clip threshold", func(c *Config) { c.Backend.MinClipBytes = 0 }},
		{"empty ffmpeg", func(c *Config) { c.Assembly.FFmpegBinary = "" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "yaml" }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[backend]") {
		t.Fatalf("sample missing backend section: %q", data)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
