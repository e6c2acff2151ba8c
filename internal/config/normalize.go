package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEncoder(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value, ok := os.LookupEnv(envEncoderPathOverride); ok && strings.TrimSpace(value) != "" {
		c.Encoder.Path = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envDeviceOverride); ok && strings.TrimSpace(value) != "" {
		c.Capture.Device = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir()
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncoder() error {
	path := strings.TrimSpace(c.Encoder.Path)
	if path == "" {
		c.Encoder.Path = ""
	} else if strings.ContainsAny(path, `/\`) || strings.HasPrefix(path, "~") {
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("encoder.path: %w", err)
		}
		c.Encoder.Path = expanded
	} else {
		c.Encoder.Path = path
	}
	if c.Encoder.GraceSeconds == 0 {
		c.Encoder.GraceSeconds = defaultGraceSeconds
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.Format = strings.ToLower(strings.TrimSpace(c.Capture.Format))
	if c.Capture.Format == "" {
		c.Capture.Format = defaultFormat
	}
	c.Capture.Quality = strings.ToLower(strings.TrimSpace(c.Capture.Quality))
	if c.Capture.Quality == "" {
		c.Capture.Quality = defaultQuality
	}
	c.Capture.Device = strings.TrimSpace(c.Capture.Device)
	if c.Capture.SilenceDetection && c.Capture.SilenceSeconds == 0 {
		c.Capture.SilenceSeconds = defaultSilenceSeconds
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "":
		c.Logging.Format = defaultLogFormat
	case "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	if level == "warning" {
		level = "warn"
	}
	c.Logging.Level = level
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		if expanded, err := expandPath(c.Logging.File); err == nil {
			c.Logging.File = expanded
		}
	}
}
