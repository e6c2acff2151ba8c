package preflight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"micrec/internal/captureerr"
	"micrec/internal/deps"
	"micrec/internal/devices"
	"micrec/internal/platform"
)

// Report is the consolidated capture readiness picture for one host. It is
// built fresh on every call because the attached devices can change at any time.
type Report struct {
	Availability      deps.Availability
	Devices           []devices.Descriptor
	Commands          platform.CommandSet
	RecommendedDevice string
	Warnings          []string
	Errors            []string
	// Hints holds one next step per distinct error kind.
	Hints       []string
	GeneratedAt time.Time
}

// OK reports whether the host can record.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Lister enumerates input devices for a resolved platform.
type Lister interface {
	List(ctx context.Context, binary string, commands platform.CommandSet) ([]devices.Descriptor, error)
}

// AvailabilityFunc locates a usable encoder binary.
type AvailabilityFunc func(ctx context.Context, customPath string) (deps.Availability, error)

type diagnostics struct {
	check  AvailabilityFunc
	lister Lister
	osID   string
	clock  clockwork.Clock
}

// Option customizes RunDiagnostics.
type Option func(*diagnostics)

// WithAvailabilityCheck overrides encoder discovery.
func WithAvailabilityCheck(check AvailabilityFunc) Option {
	return func(d *diagnostics) {
		if check != nil {
			d.check = check
		}
	}
}

// WithLister overrides device enumeration.
func WithLister(lister Lister) Option {
	return func(d *diagnostics) {
		if lister != nil {
			d.lister = lister
		}
	}
}

// WithPlatform resolves commands for osID instead of the running OS.
func WithPlatform(osID string) Option {
	return func(d *diagnostics) {
		d.osID = osID
	}
}

// WithClock sets the clock used for GeneratedAt.
func WithClock(clock clockwork.Clock) Option {
	return func(d *diagnostics) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// RunDiagnostics checks the encoder, resolves the platform commands, lists
// devices, and recommends one to record from. It never fails: hard failures
// land in Errors and degraded results in Warnings so callers can always render
// guidance. Devices is never nil.
func RunDiagnostics(ctx context.Context, customPath string, opts ...Option) Report {
	d := diagnostics{
		check:  deps.CheckEncoder,
		lister: devices.NewEnumerator(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&d)
	}

	report := Report{Devices: []devices.Descriptor{}}

	avail, err := d.check(ctx, customPath)
	if err != nil {
		report.addError(err)
	} else {
		report.Availability = avail
	}

	commands, err := d.resolve()
	if err != nil {
		report.addError(err)
	} else {
		report.Commands = commands
	}

	switch {
	case !report.Availability.Available:
		report.Warnings = append(report.Warnings, "device listing skipped: encoder unavailable")
	case !report.Commands.Valid():
		report.Warnings = append(report.Warnings, "device listing skipped: platform unsupported")
	default:
		list, err := d.lister.List(ctx, report.Availability.Path, report.Commands)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("device listing failed: %v", err))
		} else if list != nil {
			report.Devices = list
		}
		if err == nil && len(report.Devices) == 0 {
			report.Warnings = append(report.Warnings, "no input devices found")
		}
	}

	report.RecommendedDevice = recommend(report.Devices, report.Commands)
	if len(report.Devices) == 0 && report.RecommendedDevice != "" {
		report.Warnings = append(report.Warnings, fmt.Sprintf("falling back to platform default device %q", report.RecommendedDevice))
	}
	report.GeneratedAt = d.clock.Now()
	return report
}

func (r *Report) addError(err error) {
	r.Errors = append(r.Errors, err.Error())
	hint := captureerr.Hint(err)
	for _, existing := range r.Hints {
		if existing == hint {
			return
		}
	}
	r.Hints = append(r.Hints, hint)
}

func (d diagnostics) resolve() (platform.CommandSet, error) {
	if strings.TrimSpace(d.osID) == "" {
		return platform.Current()
	}
	return platform.Resolve(d.osID)
}

// recommend picks the flagged default, then the first device, then the
// platform fallback address.
func recommend(list []devices.Descriptor, commands platform.CommandSet) string {
	if def, ok := devices.Default(list); ok {
		return def.ID
	}
	if len(list) > 0 {
		return list[0].ID
	}
	return commands.FallbackDevice
}
