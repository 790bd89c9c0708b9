package config

const (
	defaultOutputDir             = "outputs/composition"
	defaultLogDir                = "~/.local/share/cadenza/logs"
	defaultBackendHost           = "127.0.0.1"
	defaultBackendPort           = 8642
	defaultHandshakeMessages     = 2
	defaultSessionTimeoutSeconds = 600
	defaultStreamReadTimeoutMS   = 1000
	defaultDownloadTimeoutSecs   = 30
	defaultUnitDelaySeconds      = 2
	defaultMinClipBytes          = 50_000
	defaultMinFinalBytes         = 100_000
	defaultCreativeBaseURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultCreativeModel         = "x-ai/grok-4-fast"
	defaultCreativeTemperature   = 0.7
	defaultCreativeMaxTokens     = 300
	defaultCreativeTimeoutSecs   = 60
	defaultFFmpegBinary          = "ffmpeg"
	defaultAssemblyTimeoutSecs   = 300
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Backend: Backend{
			Host:                  defaultBackendHost,
			Port:                  defaultBackendPort,
			HandshakeMessages:     defaultHandshakeMessages,
			SessionTimeoutSeconds: defaultSessionTimeoutSeconds,
			StreamReadTimeoutMS:   defaultStreamReadTimeoutMS,
			DownloadTimeoutSecs:   defaultDownloadTimeoutSecs,
			UnitDelaySeconds:      defaultUnitDelaySeconds,
			MinClipBytes:          defaultMinClipBytes,
			MinFinalBytes:         defaultMinFinalBytes,
		},
		Creative: Creative{
			BaseURL:        defaultCreativeBaseURL,
			Model:          defaultCreativeModel,
			Temperature:    defaultCreativeTemperature,
			MaxTokens:      defaultCreativeMaxTokens,
			TimeoutSeconds: defaultCreativeTimeoutSecs,
		},
		Assembly: Assembly{
			FFmpegBinary:   defaultFFmpegBinary,
			TimeoutSeconds: defaultAssemblyTimeoutSecs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
