package config

const (
	defaultOutputDir          = "~/Downloads/waveforge"
	defaultWorkDir            = "~/.local/share/waveforge/work"
	defaultLogDir             = "~/.local/share/waveforge/logs"
	defaultAPIBind            = "127.0.0.1:7598"
	defaultYtDlpBinary        = "yt-dlp"
	defaultFFmpegBinary       = "ffmpeg"
	defaultResolveTimeout     = 60
	defaultFetchTimeout       = 900
	defaultEncodeTimeout      = 600
	defaultJobPollInterval    = 2
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Tools: Tools{
			YtDlpBinary:    defaultYtDlpBinary,
			FFmpegBinary:   defaultFFmpegBinary,
			ResolveTimeout: defaultResolveTimeout,
			FetchTimeout:   defaultFetchTimeout,
			EncodeTimeout:  defaultEncodeTimeout,
		},
		Workflow: Workflow{
			JobPollInterval:    defaultJobPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
