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

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// Engine contains configuration for the external ffmpeg transcoding engine.
type Engine struct {
	// Binary is the ffmpeg executable name or path.
	Binary string `toml:"binary"`
	// OverlayTimeout bounds a single audio-over-video invocation, in seconds.
	OverlayTimeout int `toml:"overlay_timeout"`
	// ConcatTimeout bounds concatenation and trim+concat invocations, in seconds.
	ConcatTimeout int `toml:"concat_timeout"`
	// SynthesizeTimeout bounds blank-filler generation, in seconds.
	SynthesizeTimeout int `toml:"synthesize_timeout"`
	// BlankSeconds is the duration of the synthesized default video used when
	// narration arrives before any video segment.
	BlankSeconds float64 `toml:"blank_seconds"`
	// BlankResolution is the WxH resolution of the synthesized default video.
	BlankResolution string `toml:"blank_resolution"`
	// DefaultExtension is applied to decoded payloads without a data: prefix.
	DefaultExtension string `toml:"default_extension"`
	// MinFreeSpaceGiB is the preflight free-space floor on the work filesystem.
	MinFreeSpaceGiB int `toml:"min_free_space_gib"`
}

// Cleanup contains configuration for the expired-artifact sweeper.
type Cleanup struct {
	// SweepInterval is the cadence between sweeps, in seconds.
	SweepInterval int `toml:"sweep_interval"`
	// RetentionSeconds is how long a completed artifact survives after
	// completion before it becomes eligible for reclamation.
	RetentionSeconds int `toml:"retention_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for optional ntfy push alerts.
type Notifications struct {
	// NtfyTopic is the full ntfy topic URL. Empty disables notifications.
	NtfyTopic string `toml:"ntfy_topic"`
	// RequestTimeout bounds a single notification request, in seconds.
	RequestTimeout int `toml:"request_timeout"`
}

// Config encapsulates all configuration values for loom.
//
// Sections by subsystem:
//   - Paths: scratch/output/log directories and API bind address
//   - Engine: ffmpeg binary and per-invocation timeouts
//   - Cleanup: sweep cadence and artifact retention
//   - Logging: log format and level
//   - Notifications: optional ntfy push alerts
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Cleanup       Cleanup       `toml:"cleanup"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/loom/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("loom.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories loom needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path,
// refusing to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves ~ prefixes and relative paths to absolute paths.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
