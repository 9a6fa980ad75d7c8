package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var resolutionPattern = regexp.MustCompile(`^\d{2,5}x\d{2,5}$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.WorkDir == c.Paths.OutputDir {
		return errors.New("paths.work_dir and paths.output_dir must differ; the sweeper reclaims output_dir artifacts")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if !resolutionPattern.MatchString(c.Engine.BlankResolution) {
		return fmt.Errorf("engine.blank_resolution must look like 1280x720, got %q", c.Engine.BlankResolution)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "auto", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
}
