package platform

import (
	"fmt"
	"strconv"
	"strings"
)

// Format describes an output container the encoder can produce.
type Format struct {
	Name      string
	Extension string
	MimeType  string
	Codec     string
	// Lossy formats take a bitrate derived from the quality tier.
	Lossy bool
}

var formats = map[string]Format{
	"wav":  {Name: "wav", Extension: "wav", MimeType: "audio/wav", Codec: "pcm_s16le"},
	"flac": {Name: "flac", Extension: "flac", MimeType: "audio/flac", Codec: "flac"},
	"mp3":  {Name: "mp3", Extension: "mp3", MimeType: "audio/mpeg", Codec: "libmp3lame", Lossy: true},
	"ogg":  {Name: "ogg", Extension: "ogg", MimeType: "audio/ogg", Codec: "libopus", Lossy: true},
	"webm": {Name: "webm", Extension: "webm", MimeType: "audio/webm", Codec: "libopus", Lossy: true},
	"m4a":  {Name: "m4a", Extension: "m4a", MimeType: "audio/mp4", Codec: "aac", Lossy: true},
}

var qualityBitrates = map[string]string{
	"low":    "64k",
	"medium": "128k",
	"high":   "192k",
}

// LookupFormat returns the output format registered under name.
func LookupFormat(name string) (Format, bool) {
	f, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// ValidQuality reports whether quality names a known tier.
func ValidQuality(quality string) bool {
	_, ok := qualityBitrates[strings.ToLower(strings.TrimSpace(quality))]
	return ok
}

// CaptureSpec carries the encoding parameters for one capture invocation.
type CaptureSpec struct {
	Device     string
	OutputPath string
	SampleRate int
	Channels   int
	Format     Format
	Quality    string
}

// CaptureArgs builds the encoder argument vector for one capture. The banner is left
// enabled and stats stay on so the diagnostic stream carries progress lines.
func (c CommandSet) CaptureArgs(capture CaptureSpec) ([]string, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("capture args: command set not resolved")
	}
	if strings.TrimSpace(capture.Device) == "" {
		return nil, fmt.Errorf("capture args: device required")
	}
	if strings.TrimSpace(capture.OutputPath) == "" {
		return nil, fmt.Errorf("capture args: output path required")
	}
	if capture.Format.Codec == "" {
		return nil, fmt.Errorf("capture args: output format required")
	}

	args := []string{
		"-y",
		"-loglevel", "info",
		"-f", c.InputFormat,
		"-i", capture.Device,
		"-vn",
	}
	if capture.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(capture.Channels))
	}
	if capture.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(capture.SampleRate))
	}
	args = append(args, "-c:a", capture.Format.Codec)
	if capture.Format.Lossy {
		bitrate, ok := qualityBitrates[strings.ToLower(strings.TrimSpace(capture.Quality))]
		if !ok {
			bitrate = qualityBitrates["medium"]
		}
		args = append(args, "-b:a", bitrate)
	}
	args = append(args, capture.OutputPath)
	return args, nil
}
