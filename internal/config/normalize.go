package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeCleanup()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = ExpandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if token := os.Getenv("LOOM_API_TOKEN"); token != "" {
		c.Paths.APIToken = token
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeEngine() {
	if strings.TrimSpace(c.Engine.Binary) == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	if c.Engine.OverlayTimeout <= 0 {
		c.Engine.OverlayTimeout = defaultOverlayTimeout
	}
	if c.Engine.ConcatTimeout <= 0 {
		c.Engine.ConcatTimeout = defaultConcatTimeout
	}
	if c.Engine.SynthesizeTimeout <= 0 {
		c.Engine.SynthesizeTimeout = defaultSynthesizeTimeout
	}
	if c.Engine.BlankSeconds <= 0 {
		c.Engine.BlankSeconds = defaultBlankSeconds
	}
	if strings.TrimSpace(c.Engine.BlankResolution) == "" {
		c.Engine.BlankResolution = defaultBlankResolution
	}
	ext := strings.TrimSpace(c.Engine.DefaultExtension)
	if ext == "" {
		ext = defaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Engine.DefaultExtension = ext
	if c.Engine.MinFreeSpaceGiB < 0 {
		c.Engine.MinFreeSpaceGiB = 0
	}
}

func (c *Config) normalizeCleanup() {
	if c.Cleanup.SweepInterval <= 0 {
		c.Cleanup.SweepInterval = defaultSweepInterval
	}
	if c.Cleanup.RetentionSeconds <= 0 {
		c.Cleanup.RetentionSeconds = defaultRetentionSeconds
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}
