package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Backend contains configuration for the generation backend.
type Backend struct {
	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	HandshakeMessages     int    `toml:"handshake_messages"`
	SessionTimeoutSeconds int    `toml:"session_timeout_seconds"`
	StreamReadTimeoutMS   int    `toml:"stream_read_timeout_ms"`
	DownloadTimeoutSecs   int    `toml:"download_timeout_seconds"`
	UnitDelaySeconds      int    `toml:"unit_delay_seconds"`
	// MinClipBytes and MinFinalBytes are the tunable completeness
	// thresholds for the idempotent-resume checks. They are byte-count
	// approximations, not container-level validation; an artifact must
	// strictly exceed its floor to count as complete.
	MinClipBytes  int64 `toml:"min_clip_bytes"`
	MinFinalBytes int64 `toml:"min_final_bytes"`
}

// Creative contains connection settings for the creative text service used
// by the AI prompt strategies.
type Creative struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Assembly contains configuration for the external concatenation tool.
type Assembly struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration document.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Backend  Backend  `toml:"backend"`
	Creative Creative `toml:"creative"`
	Assembly Assembly `toml:"assembly"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the location the CLI reads when no --config flag
// is supplied.
func DefaultConfigPath() string {
	return expandPath("~/.config/cadenza/config.toml")
}

// Load reads the TOML file at path layered over defaults. A missing file is
// not an error: defaults apply, which keeps the tool usable out of the box
// against a local backend.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	} else {
		resolved = expandPath(resolved)
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// clobber an existing file.
func WriteSample(path string) error {
	resolved := expandPath(path)
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists: %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(resolved, []byte(sampleConfig), 0o644)
}

// normalize expands paths and fills environment-derived values.
func (c *Config) normalize() {
	c.Paths.OutputDir = expandPath(strings.TrimSpace(c.Paths.OutputDir))
	c.Paths.LogDir = expandPath(strings.TrimSpace(c.Paths.LogDir))
	c.Backend.Host = strings.TrimSpace(c.Backend.Host)
	c.Creative.APIKey = strings.TrimSpace(c.Creative.APIKey)
	c.Creative.Model = strings.TrimSpace(c.Creative.Model)
	c.Assembly.FFmpegBinary = strings.TrimSpace(c.Assembly.FFmpegBinary)

	// The creative key historically lives in the environment.
	if c.Creative.APIKey == "" {
		c.Creative.APIKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
	if model := strings.TrimSpace(os.Getenv("OPENROUTER_MODEL")); model != "" {
		c.Creative.Model = model
	}
}

// EnsureDirectories creates the configured directories when absent.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WebSocketURL returns the duplex stream endpoint.
func (c *Config) WebSocketURL() string {
	return fmt.Sprintf("ws://%s:%d/ws", c.Backend.Host, c.Backend.Port)
}

// FilesBaseURL returns the artifact download base URL.
func (c *Config) FilesBaseURL() string {
	return fmt.Sprintf("http://%s:%d/files/", c.Backend.Host, c.Backend.Port)
}

// BackendAddr returns the host:port pair used for the reachability preflight.
func (c *Config) BackendAddr() string {
	return fmt.Sprintf("%s:%d", c.Backend.Host, c.Backend.Port)
}

// LedgerPath returns the SQLite run-history database location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
