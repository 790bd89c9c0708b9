package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports the first structural problem with the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("config: paths.output_dir is required")
	}
	if strings.TrimSpace(c.Backend.Host) == "" {
		return errors.New("config: backend.host is required")
	}
	if c.Backend.Port <= 0 || c.Backend.Port > 65535 {
		return fmt.Errorf("config: backend.port %d is out of range", c.Backend.Port)
	}
	if c.Backend.SessionTimeoutSeconds <= 0 {
		return errors.New("config: backend.session_timeout_seconds must be positive")
	}
	if c.Backend.StreamReadTimeoutMS <= 0 {
		return errors.New("config: backend.stream_read_timeout_ms must be positive")
	}
	if c.Backend.MinClipBytes <= 0 {
		return errors.New("config: backend.min_clip_bytes must be positive")
	}
	if c.Backend.MinFinalBytes <= 0 {
		return errors.New("config: backend.min_final_bytes must be positive")
	}
	if strings.TrimSpace(c.Assembly.FFmpegBinary) == "" {
		return errors.New("config: assembly.ffmpeg_binary is required")
	}
	if c.Creative.Temperature < 0 || c.Creative.Temperature > 2 {
		return fmt.Errorf("config: creative.temperature %v is out of range", c.Creative.Temperature)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: logging.format %q is not supported", c.Logging.Format)
	}
	return nil
}
