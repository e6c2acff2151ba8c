package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"micrec/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("MICREC_FFMPEG", "")
	t.Setenv("MICREC_DEVICE", "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(home, ".local", "state", "micrec")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.OutputDir != filepath.Join(home, "Recordings") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.LockPath() != filepath.Join(wantState, "micrec.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.Capture.Format != "wav" || cfg.Capture.Quality != "medium" {
		t.Fatalf("unexpected capture defaults: %+v", cfg.Capture)
	}
	if cfg.Capture.SilenceDetection {
		t.Fatal("expected silence detection disabled by default")
	}
	if cfg.MaxDuration() != 0 {
		t.Fatalf("expected unlimited max duration, got %s", cfg.MaxDuration())
	}
	if cfg.GracePeriod() != 5*time.Second {
		t.Fatalf("unexpected grace period: %s", cfg.GracePeriod())
	}
	if cfg.Logging.Format != "auto" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "micrec.toml")

	type payload struct {
		Capture struct {
			Format           string  `toml:"format"`
			Quality          string  `toml:"quality"`
			SilenceDetection bool    `toml:"silence_detection"`
			SilenceSeconds   float64 `toml:"silence_seconds"`
			MaxSeconds       int     `toml:"max_seconds"`
		} `toml:"capture"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Capture.Format = "MP3"
	custom.Capture.Quality = "High"
	custom.Capture.SilenceDetection = true
	custom.Capture.SilenceSeconds = 1.5
	custom.Capture.MaxSeconds = 90
	custom.Logging.Format = "pretty"
	custom.Logging.Level = "WARNING"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Capture.Format != "mp3" || cfg.Capture.Quality != "high" {
		t.Fatalf("expected lowercased capture settings, got %+v", cfg.Capture)
	}
	if cfg.SilenceDuration() != 1500*time.Millisecond {
		t.Fatalf("unexpected silence duration: %s", cfg.SilenceDuration())
	}
	if cfg.MaxDuration() != 90*time.Second {
		t.Fatalf("unexpected max duration: %s", cfg.MaxDuration())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected logging normalization: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "micrec.toml")
	if err := os.WriteFile(configPath, []byte("[capture]\nbitrate = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "micrec.toml")
	contents := "[encoder]\npath = \"ffmpeg-from-file\"\n\n[capture]\ndevice = \"hw:1\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MICREC_DEVICE", "  plughw:2  ")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Capture.Device != "plughw:2" {
		t.Fatalf("expected device from env, got %q", cfg.Capture.Device)
	}
	if cfg.Encoder.Path != "ffmpeg-from-file" {
		t.Fatalf("expected bare encoder name kept, got %q", cfg.Encoder.Path)
	}

	custom := filepath.Join(t.TempDir(), "bin", "ffmpeg")
	t.Setenv("MICREC_FFMPEG", custom)
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Encoder.Path != custom {
		t.Fatalf("expected encoder path from env, got %q", cfg.Encoder.Path)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if string(contents) != config.SampleConfig() {
		t.Fatal("sample file does not match embedded sample")
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Capture.Format != "wav" {
		t.Fatalf("unexpected sample format %q", cfg.Capture.Format)
	}
	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.StateDir, "micrec") {
			t.Fatalf("expected state dir to contain micrec, got %q", cfg.Paths.StateDir)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "format",
			mutate:  func(c *config.Config) { c.Capture.Format = "aiff" },
			wantErr: "capture.format",
		},
		{
			name:    "quality",
			mutate:  func(c *config.Config) { c.Capture.Quality = "ultra" },
			wantErr: "capture.quality",
		},
		{
			name: "silence without duration",
			mutate: func(c *config.Config) {
				c.Capture.SilenceDetection = true
				c.Capture.SilenceSeconds = 0
			},
			wantErr: "capture.silence_seconds",
		},
		{
			name:    "negative max",
			mutate:  func(c *config.Config) { c.Capture.MaxSeconds = -1 },
			wantErr: "capture.max_seconds",
		},
		{
			name:    "channels",
			mutate:  func(c *config.Config) { c.Capture.Channels = 64 },
			wantErr: "capture.channels",
		},
		{
			name:    "grace",
			mutate:  func(c *config.Config) { c.Encoder.GraceSeconds = -2 },
			wantErr: "encoder.grace_seconds",
		},
		{
			name:    "log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "output dir",
			mutate:  func(c *config.Config) { c.Paths.OutputDir = "" },
			wantErr: "paths.output_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.TempDir = filepath.Join(base, "tmp")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.TempDir, cfg.Paths.StateDir, cfg.Paths.OutputDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
