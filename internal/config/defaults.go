package config

const (
	defaultWorkDir           = "~/.local/share/loom/work"
	defaultOutputDir         = "~/.local/share/loom/output"
	defaultLogDir            = "~/.local/share/loom/logs"
	defaultAPIBind           = "127.0.0.1:7517"
	defaultEngineBinary      = "ffmpeg"
	defaultOverlayTimeout    = 60
	defaultConcatTimeout     = 120
	defaultSynthesizeTimeout = 30
	defaultBlankSeconds      = 600.0
	defaultBlankResolution   = "1280x720"
	defaultExtension         = ".mp4"
	defaultMinFreeSpaceGiB   = 1
	defaultSweepInterval     = 900
	defaultRetentionSeconds  = 3600
	defaultLogFormat         = "auto"
	defaultLogLevel          = "info"
	defaultNtfyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Engine: Engine{
			Binary:            defaultEngineBinary,
			OverlayTimeout:    defaultOverlayTimeout,
			ConcatTimeout:     defaultConcatTimeout,
			SynthesizeTimeout: defaultSynthesizeTimeout,
			BlankSeconds:      defaultBlankSeconds,
			BlankResolution:   defaultBlankResolution,
			DefaultExtension:  defaultExtension,
			MinFreeSpaceGiB:   defaultMinFreeSpaceGiB,
		},
		Cleanup: Cleanup{
			SweepInterval:    defaultSweepInterval,
			RetentionSeconds: defaultRetentionSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
