package activity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"micrec/internal/captureerr"
)

// Kind is the category a diagnostic line falls into.
type Kind int

const (
	// KindNeutral lines carry no signal about capture progress.
	KindNeutral Kind = iota
	// KindService lines are banner, build, and library version chatter.
	KindService
	// KindActivity lines prove the device is open or audio is being written.
	KindActivity
	// KindDeviceError lines report a device or permission failure.
	KindDeviceError
)

func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindActivity:
		return "activity"
	case KindDeviceError:
		return "device_error"
	default:
		return "neutral"
	}
}

// Classification is the outcome of classifying one diagnostic line.
type Classification struct {
	Kind Kind
	// Captured is the byte count reported by a progress line, or 0.
	Captured int64
	// Fault is set for KindDeviceError and carries a captureerr marker.
	Fault error
	// Fatal reports whether the fault ends the recording.
	Fatal bool
}

// UpdatesActivity reports whether the line should refresh the last-activity
// timestamp.
func (c Classification) UpdatesActivity() bool {
	return c.Kind == KindActivity
}

// Classifier maps one line of encoder diagnostic output to a Classification.
// Implementations must be pure: the same line always yields the same result.
type Classifier interface {
	Classify(line string) Classification
}

type faultRule struct {
	pattern *regexp.Regexp
	marker  error
	fatal   bool
}

// Rules is a pattern table for the ffmpeg diagnostic stream. Fault rules are
// evaluated first, then service rules, then activity rules.
type Rules struct {
	Faults   []faultRule
	Service  []*regexp.Regexp
	Activity []*regexp.Regexp
	Progress *regexp.Regexp
}

var progressPattern = regexp.MustCompile(`(?:^|\s)L?size=\s*(N/A|\d+(?:\.\d+)?)\s*([KkMmGg]i?B|B|kB)?`)

// FFmpegRules returns the rule table for ffmpeg 4.x through 7.x output.
func FFmpegRules() *Rules {
	return &Rules{
		Faults: []faultRule{
			{pattern: regexp.MustCompile(`(?i)permission denied|operation not permitted|not authori[sz]ed|access (is )?denied|tcc.*denied`), marker: captureerr.ErrPermissionDenied, fatal: true},
			{pattern: regexp.MustCompile(`(?i)no such (file or )?device|could not find (audio|video) (only )?device|device not found|cannot open audio device|could not enumerate audio|error opening input|unknown input format|input/output error`), marker: captureerr.ErrDeviceNotFound, fatal: true},
			{pattern: regexp.MustCompile(`(?i)\bxrun\b|buffer (overrun|underrun)|real-time buffer .* too full|thread message queue blocking`), fatal: false},
		},
		Service: []*regexp.Regexp{
			regexp.MustCompile(`^\s*ffmpeg version\b`),
			regexp.MustCompile(`^\s*configuration:`),
			regexp.MustCompile(`^\s*built with\b`),
			regexp.MustCompile(`^\s*lib(avutil|avcodec|avformat|avdevice|avfilter|swscale|swresample|postproc)\s+\d+\.\s*\d+\.\s*\d+`),
			regexp.MustCompile(`(?i)copyright \(c\)`),
		},
		Activity: []*regexp.Regexp{
			regexp.MustCompile(`^\s*Input #\d+,`),
			regexp.MustCompile(`^\s*Stream #\d+:\d+.*\bAudio:`),
			regexp.MustCompile(`Press \[q\] to (quit|stop)`),
		},
		Progress: progressPattern,
	}
}

// Classify implements Classifier.
func (r *Rules) Classify(line string) Classification {
	trimmed := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return Classification{Kind: KindNeutral}
	}

	for _, rule := range r.Faults {
		if rule.pattern.MatchString(trimmed) {
			return Classification{
				Kind:  KindDeviceError,
				Fault: ruleFault(rule.marker, strings.TrimSpace(trimmed)),
				Fatal: rule.fatal,
			}
		}
	}
	for _, pattern := range r.Service {
		if pattern.MatchString(trimmed) {
			return Classification{Kind: KindService}
		}
	}
	if r.Progress != nil {
		if m := r.Progress.FindStringSubmatch(trimmed); m != nil {
			captured := parseSize(m[1], m[2])
			if captured > 0 {
				return Classification{Kind: KindActivity, Captured: captured}
			}
			return Classification{Kind: KindNeutral}
		}
	}
	for _, pattern := range r.Activity {
		if pattern.MatchString(trimmed) {
			return Classification{Kind: KindActivity}
		}
	}
	return Classification{Kind: KindNeutral}
}

// ruleFault tags line with marker. Warning rules carry no marker, so their
// faults never match a capture failure kind.
func ruleFault(marker error, line string) error {
	if marker == nil {
		return fmt.Errorf("encoder: %s", line)
	}
	return captureerr.Wrap(marker, "encoder", line, nil)
}

func parseSize(value, unit string) int64 {
	if value == "" || value == "N/A" {
		return 0
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n <= 0 {
		return 0
	}
	multiplier := float64(1)
	switch strings.ToLower(unit) {
	case "kb", "kib":
		multiplier = 1024
	case "mb", "mib":
		multiplier = 1024 * 1024
	case "gb", "gib":
		multiplier = 1024 * 1024 * 1024
	}
	return int64(n * multiplier)
}
