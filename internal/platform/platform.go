package platform

import (
	"runtime"
	"strings"

	"micrec/internal/captureerr"
)

// OS identifies one of the supported host operating systems.
type OS string

const (
	Darwin  OS = "darwin"
	Windows OS = "windows"
	Linux   OS = "linux"
)

// Dialect names the device-listing output format a CommandSet produces.
type Dialect string

const (
	DialectAVFoundation Dialect = "avfoundation"
	DialectDShow        Dialect = "dshow"
	DialectALSASources  Dialect = "alsa-sources"
)

// CommandSet holds the encoder invocation details for one operating system.
type CommandSet struct {
	OS             OS
	InputFormat    string
	DevicePrefix   string
	ListArgs       []string
	FallbackDevice string
	Dialect        Dialect
}

var table = map[OS]CommandSet{
	Darwin: {
		OS:             Darwin,
		InputFormat:    "avfoundation",
		DevicePrefix:   ":",
		ListArgs:       []string{"-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", ""},
		FallbackDevice: ":0",
		Dialect:        DialectAVFoundation,
	},
	Windows: {
		OS:             Windows,
		InputFormat:    "dshow",
		DevicePrefix:   "audio=",
		ListArgs:       []string{"-hide_banner", "-f", "dshow", "-list_devices", "true", "-i", "dummy"},
		FallbackDevice: "audio=default",
		Dialect:        DialectDShow,
	},
	Linux: {
		OS:             Linux,
		InputFormat:    "alsa",
		ListArgs:       []string{"-hide_banner", "-sources", "alsa"},
		FallbackDevice: "default",
		Dialect:        DialectALSASources,
	},
}

var aliases = map[string]OS{
	"darwin":  Darwin,
	"macos":   Darwin,
	"mac":     Darwin,
	"osx":     Darwin,
	"windows": Windows,
	"win32":   Windows,
	"linux":   Linux,
}

// Resolve returns the command set for the operating system identifier. Unknown
// identifiers fail with captureerr.ErrUnsupportedPlatform rather than falling
// back to another platform's dialect.
func Resolve(osID string) (CommandSet, error) {
	key := strings.ToLower(strings.TrimSpace(osID))
	id, ok := aliases[key]
	if !ok {
		return CommandSet{}, captureerr.Wrap(captureerr.ErrUnsupportedPlatform, "resolve platform", "no encoder dialect for "+quoteOS(osID), nil)
	}
	return table[id].clone(), nil
}

// Current resolves the command set for the running operating system.
func Current() (CommandSet, error) {
	return Resolve(runtime.GOOS)
}

// Supported lists the operating systems Resolve accepts, in a stable order.
func Supported() []OS {
	return []OS{Darwin, Windows, Linux}
}

// Address converts a user supplied device identifier into the platform-native
// form. Identifiers that already carry the platform prefix are returned as is.
func (c CommandSet) Address(device string) string {
	device = strings.TrimSpace(device)
	if device == "" || c.DevicePrefix == "" {
		return device
	}
	if strings.HasPrefix(device, c.DevicePrefix) {
		return device
	}
	return c.DevicePrefix + device
}

// Valid reports whether the command set came from Resolve.
func (c CommandSet) Valid() bool {
	return c.OS != "" && c.InputFormat != "" && len(c.ListArgs) > 0
}

func (c CommandSet) clone() CommandSet {
	c.ListArgs = append([]string(nil), c.ListArgs...)
	return c
}

func quoteOS(osID string) string {
	if strings.TrimSpace(osID) == "" {
		return `""`
	}
	return `"` + osID + `"`
}
