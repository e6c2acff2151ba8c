package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"micrec/internal/config"
)

const stubEncoderScript = `#!/bin/sh
if [ "$1" = "-version" ]; then
	echo "ffmpeg version 6.1-test Copyright (c) 2000-2023 the FFmpeg developers"
	exit 0
fi
case " $* " in
	*" -list_devices "*|*" -sources "*) exit 1 ;;
esac
for last; do :; done
printf 'captured-audio' > "$last"
echo "Press [q] to quit, [?] for help" >&2
echo "size=      64kB time=00:00:01.00 bitrate= 512.0kbits/s" >&2
read answer
exit 0
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	encoder    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("CLI tests use a shell stub encoder")
	}

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("MICREC_FFMPEG", "")
	t.Setenv("MICREC_DEVICE", "")

	encoder := filepath.Join(base, "bin", "ffmpeg")
	if err := os.MkdirAll(filepath.Dir(encoder), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(encoder, []byte(stubEncoderScript), 0o755); err != nil {
		t.Fatalf("write stub encoder: %v", err)
	}

	cfg := config.Default()
	cfg.Encoder.Path = encoder
	cfg.Encoder.GraceSeconds = 5
	cfg.Capture.Device = "default"
	cfg.Paths.TempDir = filepath.Join(base, "tmp")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "error"

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, &cfg)

	return &cliTestEnv{cfg: &cfg, configPath: configPath, baseDir: base, encoder: encoder}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[encoder]
path = %q
grace_seconds = %d

[capture]
device = %q

[paths]
temp_dir = %q
state_dir = %q
output_dir = %q

[logging]
format = %q
level = %q
`,
		cfg.Encoder.Path,
		cfg.Encoder.GraceSeconds,
		cfg.Capture.Device,
		cfg.Paths.TempDir,
		cfg.Paths.StateDir,
		cfg.Paths.OutputDir,
		cfg.Logging.Format,
		cfg.Logging.Level,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
