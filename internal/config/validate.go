package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.GraceSeconds < 0 || c.Encoder.GraceSeconds > maxGraceSeconds {
		return fmt.Errorf("encoder.grace_seconds must be between 1 and %d", maxGraceSeconds)
	}
	return nil
}

var supportedFormats = []string{"wav", "flac", "mp3", "ogg", "webm", "m4a"}

var supportedQualities = []string{"low", "medium", "high"}

func (c *Config) validateCapture() error {
	if c.Capture.SampleRate < 0 || c.Capture.SampleRate > maxSampleRate {
		return fmt.Errorf("capture.sample_rate must be between 0 and %d", maxSampleRate)
	}
	if c.Capture.Channels < 0 || c.Capture.Channels > maxChannels {
		return fmt.Errorf("capture.channels must be between 0 and %d", maxChannels)
	}
	if !contains(supportedFormats, c.Capture.Format) {
		return fmt.Errorf("capture.format must be one of %s (got %q)", strings.Join(supportedFormats, ", "), c.Capture.Format)
	}
	if !contains(supportedQualities, c.Capture.Quality) {
		return fmt.Errorf("capture.quality must be one of %s (got %q)", strings.Join(supportedQualities, ", "), c.Capture.Quality)
	}
	if c.Capture.SilenceSeconds < 0 {
		return errors.New("capture.silence_seconds must be non-negative")
	}
	if c.Capture.SilenceDetection && c.Capture.SilenceSeconds <= 0 {
		return errors.New("capture.silence_seconds must be positive when capture.silence_detection is true")
	}
	if c.Capture.MaxSeconds < 0 {
		return errors.New("capture.max_seconds must be non-negative (0 disables the limit)")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		return errors.New("paths.temp_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

func contains(values []string, candidate string) bool {
	for _, v := range values {
		if v == candidate {
			return true
		}
	}
	return false
}
