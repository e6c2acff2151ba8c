package devices

import (
	"bufio"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"micrec/internal/platform"
)

// Descriptor identifies one audio input device.
type Descriptor struct {
	// ID is the platform-native address passed to the encoder's -i flag.
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

type parsed struct {
	Descriptor
	marked bool
}

var (
	avfSectionPattern   = regexp.MustCompile(`AVFoundation (audio|video) devices:`)
	avfDevicePattern    = regexp.MustCompile(`\[AVFoundation[^\]]*\]\s*\[(\d+)\]\s*(.+)$`)
	dshowSectionPattern = regexp.MustCompile(`DirectShow (audio|video) devices`)
	dshowDevicePattern  = regexp.MustCompile(`\[dshow[^\]]*\]\s*"([^"]+)"\s*(\((audio|video|none)\))?`)
	alsaSourcePattern   = regexp.MustCompile(`^\s*(\*)?\s*(\S+)\s+\[(.*)\]\s*$`)
)

// Parse extracts device descriptors from listing output in the given dialect.
// Exactly one descriptor is flagged as default when the result is non-empty.
func Parse(dialect platform.Dialect, output string) []Descriptor {
	var found []parsed
	switch dialect {
	case platform.DialectAVFoundation:
		found = parseAVFoundation(output)
	case platform.DialectDShow:
		found = parseDShow(output)
	case platform.DialectALSASources:
		found = parseALSASources(output)
	default:
		return nil
	}
	return finalize(found)
}

func parseAVFoundation(output string) []parsed {
	var out []parsed
	inAudio := false
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if m := avfSectionPattern.FindStringSubmatch(line); m != nil {
			inAudio = m[1] == "audio"
			continue
		}
		if !inAudio {
			continue
		}
		if m := avfDevicePattern.FindStringSubmatch(line); m != nil {
			out = append(out, parsed{Descriptor: Descriptor{
				ID:   ":" + m[1],
				Name: cleanName(m[2]),
			}})
		}
	}
	return out
}

func parseDShow(output string) []parsed {
	var out []parsed
	section := ""
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if m := dshowSectionPattern.FindStringSubmatch(line); m != nil {
			section = m[1]
			continue
		}
		if strings.Contains(line, "Alternative name") {
			continue
		}
		m := dshowDevicePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// Newer builds tag each device inline instead of grouping by section.
		kind := m[3]
		if kind == "" {
			kind = section
		}
		if kind != "audio" {
			continue
		}
		name := cleanName(m[1])
		out = append(out, parsed{Descriptor: Descriptor{
			ID:   "audio=" + name,
			Name: name,
		}})
	}
	return out
}

func parseALSASources(output string) []parsed {
	var out []parsed
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "Auto-detected sources") {
			continue
		}
		m := alsaSourcePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id := strings.TrimSpace(m[2])
		name := cleanName(m[3])
		if name == "" {
			name = id
		}
		out = append(out, parsed{
			Descriptor: Descriptor{ID: id, Name: name},
			marked:     m[1] == "*",
		})
	}
	return out
}

func finalize(found []parsed) []Descriptor {
	if len(found) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(found))
	out := make([]Descriptor, 0, len(found))
	defaultIdx := -1
	for _, p := range found {
		if p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		if p.marked && defaultIdx < 0 {
			defaultIdx = len(out)
		}
		out = append(out, p.Descriptor)
	}
	if len(out) == 0 {
		return nil
	}
	if defaultIdx < 0 {
		defaultIdx = 0
	}
	out[defaultIdx].IsDefault = true
	return out
}

// cleanName trims whitespace and normalizes the name to NFC so names decoded
// from different code pages compare equal.
func cleanName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Default returns the descriptor flagged as default, if any.
func Default(list []Descriptor) (Descriptor, bool) {
	for _, d := range list {
		if d.IsDefault {
			return d, true
		}
	}
	if len(list) > 0 {
		return list[0], true
	}
	return Descriptor{}, false
}
