package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"micrec/internal/captureerr"
	"micrec/internal/config"
	"micrec/internal/history"
	"micrec/internal/recorder"
)

func TestRecordWritesArtifactAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "clips", "take.wav")

	out, _, err := runCLI(t, []string{"record", "--max", "1s", "--output", target}, env.configPath)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	requireContains(t, out, "Recording from")
	requireContains(t, out, "Saved")
	requireContains(t, out, "stopped: max_duration")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if string(data) != "captured-audio" {
		t.Fatalf("unexpected recording contents %q", data)
	}

	leftovers, err := filepath.Glob(filepath.Join(env.cfg.Paths.TempDir, "micrec-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("expected temp dir to be clean, found %v", leftovers)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "max_duration")
	requireContains(t, out, target)
}

func TestRecordNoHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"record", "--max", "1s", "--no-history"}, env.configPath)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.OutputDir)

	matches, _ := filepath.Glob(filepath.Join(env.cfg.Paths.OutputDir, "micrec-*.wav"))
	if len(matches) != 1 {
		t.Fatalf("expected one recording in output dir, got %v", matches)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No recording sessions yet in "+env.cfg.HistoryPath())
}

func TestApplyRecordFlags(t *testing.T) {
	var flags recordFlags
	cmd := &cobra.Command{Use: "record"}
	cmd.Flags().DurationVar(&flags.maxDuration, "max", 0, "")
	cmd.Flags().DurationVar(&flags.silence, "silence", 0, "")
	if err := cmd.Flags().Parse([]string{"--max", "0s", "--silence", "3s"}); err != nil {
		t.Fatal(err)
	}
	flags.device = " :1 "
	flags.format = "mp3"

	base := recorder.Options{Format: "wav", MaxDuration: time.Minute}
	got := applyRecordFlags(cmd, base, flags)
	if got.Device != ":1" || got.Format != "mp3" {
		t.Fatalf("unexpected device/format: %+v", got)
	}
	if got.MaxDuration != 0 {
		t.Fatalf("explicit --max 0s should clear the limit, got %v", got.MaxDuration)
	}
	if !got.SilenceDetection || got.SilenceDuration != 3*time.Second {
		t.Fatalf("expected silence detection at 3s, got %+v", got)
	}
}

func TestCaptureOptionsProjection(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.Path = "/opt/ffmpeg"
	cfg.Capture.SilenceDetection = true
	cfg.Capture.SilenceSeconds = 2.5
	cfg.Capture.MaxSeconds = 90

	opts := captureOptions(&cfg)
	if opts.EncoderPath != "/opt/ffmpeg" {
		t.Fatalf("encoder path = %q", opts.EncoderPath)
	}
	if opts.SilenceDuration != 2500*time.Millisecond || !opts.SilenceDetection {
		t.Fatalf("silence = %v/%v", opts.SilenceDetection, opts.SilenceDuration)
	}
	if opts.MaxDuration != 90*time.Second {
		t.Fatalf("max = %v", opts.MaxDuration)
	}
	if opts.SampleRate != cfg.Capture.SampleRate || opts.Format != cfg.Capture.Format {
		t.Fatalf("unexpected projection: %+v", opts)
	}
}

func TestOutputPathDefaultsToOutputDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = "/recordings"
	started := time.Date(2026, 5, 6, 7, 8, 9, 0, time.Local)
	path, err := outputPath(&cfg, "", "", recorder.Artifact{Format: "mp3", StartedAt: started})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/recordings", "micrec-20260506-070809.mp3"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	labeled, err := outputPath(&cfg, "", "Standup Notes", recorder.Artifact{Format: "ogg", StartedAt: started})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/recordings", "micrec-20260506-070809-standup_notes.ogg"); labeled != want {
		t.Fatalf("labeled path = %q, want %q", labeled, want)
	}
}

func TestWithHint(t *testing.T) {
	err := captureerr.Wrap(captureerr.ErrPermissionDenied, "record", "denied", nil)
	wrapped := withHint(err)
	if !errors.Is(wrapped, captureerr.ErrPermissionDenied) {
		t.Fatal("hint wrapping must preserve the marker")
	}
	if !strings.Contains(wrapped.Error(), "hint: grant microphone access") {
		t.Fatalf("missing hint: %v", wrapped)
	}

	plain := errors.New("boom")
	if withHint(plain) != plain {
		t.Fatal("unclassified errors should pass through")
	}
}

func TestHistoryListsRecordedSessions(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.StateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := history.Open(env.cfg.HistoryPath())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	info := recorder.SessionInfo{ID: "failed-1", Device: "hw:1", Format: "flac", StartedAt: time.Now().Add(-time.Minute)}
	cause := captureerr.Wrap(captureerr.ErrDeviceNotFound, "record", "no such device", nil)
	if _, err := store.Record(context.Background(), history.FromFailure(info, time.Now(), cause)); err != nil {
		t.Fatalf("record: %v", err)
	}
	_ = store.Close()

	out, _, err := runCLI(t, []string{"history", "--limit", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "device_not_found")
	requireContains(t, out, "hw:1")

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	requireContains(t, out, `"ID": "failed-1"`)

	out, _, err = runCLI(t, []string{"history", "show", "failed-1"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "device_not_found")
	requireContains(t, out, "no such device")

	if _, _, err := runCLI(t, []string{"history", "show", "missing"}, env.configPath); err == nil {
		t.Fatal("expected history show to fail for an unknown session")
	}

	out, _, err = runCLI(t, []string{"history", "prune", "--older-than", "1s"}, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 1 session(s)")
}
