package deps

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"micrec/internal/captureerr"
)

const (
	encoderName  = "ffmpeg"
	probeTimeout = 5 * time.Second
)

// Availability describes a usable encoder binary.
type Availability struct {
	Available bool
	Path      string
	Version   string
	// Source records how the binary was located: "custom", "path", or "well-known".
	Source string
}

// wellKnownDirs lists install locations searched when ffmpeg is not on PATH.
// GUI-launched hosts often inherit a PATH without the package manager prefix.
var wellKnownDirs = map[string][]string{
	"darwin":  {"/opt/homebrew/bin", "/usr/local/bin", "/opt/local/bin"},
	"linux":   {"/usr/bin", "/usr/local/bin", "/snap/bin", "/var/lib/flatpak/exports/bin"},
	"windows": {`C:\ffmpeg\bin`, `C:\Program Files\ffmpeg\bin`, `C:\ProgramData\chocolatey\bin`},
}

// CheckEncoder locates the ffmpeg binary and confirms it runs.
//
// The custom path is tried first; when it is empty or unusable the lookup falls
// back to PATH and then to platform well-known directories. A binary that is
// found but cannot execute its version probe fails with
// captureerr.ErrBinaryNotExecutable; no candidate at all fails with
// captureerr.ErrBinaryNotFound.
func CheckEncoder(ctx context.Context, customPath string) (Availability, error) {
	candidates := encoderCandidates(customPath)

	var notExecutable error
	for _, cand := range candidates {
		info, err := os.Stat(cand.path)
		if err != nil || info.IsDir() {
			continue
		}
		if !isExecutable(cand.path, info) {
			if notExecutable == nil {
				notExecutable = captureerr.Wrap(captureerr.ErrBinaryNotExecutable, "check encoder", fmt.Sprintf("%s lacks execute permission", cand.path), nil)
			}
			continue
		}
		version, err := probeVersion(ctx, cand.path)
		if err != nil {
			if notExecutable == nil {
				notExecutable = captureerr.Wrap(captureerr.ErrBinaryNotExecutable, "check encoder", fmt.Sprintf("%s -version failed", cand.path), err)
			}
			continue
		}
		return Availability{
			Available: true,
			Path:      cand.path,
			Version:   version,
			Source:    cand.source,
		}, nil
	}

	if notExecutable != nil {
		return Availability{}, notExecutable
	}
	detail := fmt.Sprintf("%s not found on PATH or in standard install locations", encoderName)
	if custom := strings.TrimSpace(customPath); custom != "" {
		detail = fmt.Sprintf("%s not found at %s, on PATH, or in standard install locations", encoderName, custom)
	}
	return Availability{}, captureerr.Wrap(captureerr.ErrBinaryNotFound, "check encoder", detail, nil)
}

type candidate struct {
	path   string
	source string
}

func encoderCandidates(customPath string) []candidate {
	var out []candidate
	seen := map[string]struct{}{}
	add := func(path, source string) {
		if path == "" {
			return
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, candidate{path: path, source: source})
	}

	if custom := strings.TrimSpace(customPath); custom != "" {
		if resolved, err := exec.LookPath(custom); err == nil {
			add(resolved, "custom")
		} else {
			add(custom, "custom")
		}
	}
	if resolved, err := exec.LookPath(encoderName); err == nil {
		add(resolved, "path")
	}
	for _, dir := range wellKnownDirs[runtime.GOOS] {
		add(filepath.Join(dir, executableName(encoderName)), "well-known")
	}
	return out
}

func probeVersion(ctx context.Context, binary string) (string, error) {
	out, err := probe(ctx, binary, "-version")
	if err != nil {
		return "", err
	}
	version := ParseVersion(out)
	if version == "" {
		return "", errors.New("unrecognized -version output")
	}
	return version, nil
}

func probe(ctx context.Context, binary string, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, binary, args...) //nolint:gosec
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if probeCtx.Err() != nil {
			return "", fmt.Errorf("probe timed out after %s", probeTimeout)
		}
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(firstLine(out.String())))
	}
	return out.String(), nil
}

// ParseVersion extracts the version token from `ffmpeg -version` output, e.g.
// "6.1.1" from "ffmpeg version 6.1.1 Copyright (c) 2000-2023".
func ParseVersion(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] == "version" {
				return fields[i+1]
			}
		}
	}
	return ""
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
