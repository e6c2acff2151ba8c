package recorder

import (
	"fmt"
	"strings"
	"time"

	"micrec/internal/platform"
)

const (
	defaultSampleRate      = 44100
	defaultChannels        = 1
	defaultFormat          = "wav"
	defaultQuality         = "medium"
	defaultSilenceDuration = 5 * time.Second
	maxSilenceCheck        = time.Second
)

// Options are the caller-supplied parameters for one recording session. They
// are defaulted and validated by Start and never change afterwards.
type Options struct {
	SampleRate int
	Channels   int
	// Format is the output container: wav, flac, mp3, ogg, webm, or m4a.
	Format string
	// Quality selects the bitrate tier for lossy formats: low, medium, or high.
	Quality string
	// Device is an explicit device address; empty uses the detected default.
	Device string
	// EncoderPath overrides the ffmpeg lookup.
	EncoderPath      string
	SilenceDetection bool
	SilenceDuration  time.Duration
	// MaxDuration caps the session length. Zero means unlimited.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.SampleRate == 0 {
		o.SampleRate = defaultSampleRate
	}
	if o.Channels == 0 {
		o.Channels = defaultChannels
	}
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	if o.Format == "" {
		o.Format = defaultFormat
	}
	o.Quality = strings.ToLower(strings.TrimSpace(o.Quality))
	if o.Quality == "" {
		o.Quality = defaultQuality
	}
	o.Device = strings.TrimSpace(o.Device)
	o.EncoderPath = strings.TrimSpace(o.EncoderPath)
	if o.SilenceDetection && o.SilenceDuration == 0 {
		o.SilenceDuration = defaultSilenceDuration
	}
	return o
}

func (o Options) validate() error {
	if o.SampleRate < 0 {
		return fmt.Errorf("sample rate must be positive (got %d)", o.SampleRate)
	}
	if o.Channels < 0 {
		return fmt.Errorf("channel count must be positive (got %d)", o.Channels)
	}
	if _, ok := platform.LookupFormat(o.Format); !ok {
		return fmt.Errorf("unsupported format %q", o.Format)
	}
	if !platform.ValidQuality(o.Quality) {
		return fmt.Errorf("unsupported quality %q", o.Quality)
	}
	if o.SilenceDetection && o.SilenceDuration <= 0 {
		return fmt.Errorf("silence duration must be positive when silence detection is enabled")
	}
	if o.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative")
	}
	return nil
}

// silenceCheckInterval keeps the check at most one second apart and at least
// twice per silence window.
func (o Options) silenceCheckInterval() time.Duration {
	interval := o.SilenceDuration / 2
	if interval <= 0 || interval > maxSilenceCheck {
		interval = maxSilenceCheck
	}
	return interval
}
