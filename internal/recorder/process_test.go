package recorder

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"micrec/internal/captureerr"
	"micrec/internal/platform"
)

func TestScanStatusLinesSplitsCarriageReturns(t *testing.T) {
	input := "Input #0, alsa, from 'default':\nsize=      16kB time=00:00:01.00\rsize=      32kB time=00:00:02.00\r\nPress [q] to quit"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanStatusLines)
	var got []string
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			got = append(got, line)
		}
	}
	want := []string{
		"Input #0, alsa, from 'default':",
		"size=      16kB time=00:00:01.00",
		"size=      32kB time=00:00:02.00",
		"Press [q] to quit",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExecRunnerStreamsLinesAndExits(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a unix shell")
	}
	stub := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nprintf 'ffmpeg version 7.1\\nsize=  8kB\\rsize=  16kB\\r' >&2\nread answer\nexit 0\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	proc, err := ExecRunner{}.Start(context.Background(), stub, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	var lines []string
	deadline := time.After(5 * time.Second)
	for len(lines) < 3 {
		select {
		case line := <-proc.Lines():
			lines = append(lines, line)
		case <-deadline:
			t.Fatalf("timed out after %v", lines)
		}
	}
	if err := proc.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	for range proc.Lines() {
	}
	select {
	case <-proc.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after terminate")
	}
	if err := proc.Err(); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	if lines[2] != "size=  16kB" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestOptionsDefaultsAndValidation(t *testing.T) {
	opts := Options{Format: " MP3 ", Quality: "HIGH", SilenceDetection: true}.withDefaults()
	if opts.Format != "mp3" || opts.Quality != "high" {
		t.Fatalf("unexpected normalization: %+v", opts)
	}
	if opts.SampleRate != defaultSampleRate || opts.Channels != defaultChannels {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if opts.SilenceDuration != defaultSilenceDuration {
		t.Fatalf("unexpected silence default: %s", opts.SilenceDuration)
	}
	if err := opts.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	bad := []Options{
		{Format: "aiff"},
		{Quality: "lossless"},
		{MaxDuration: -time.Second},
		{SilenceDetection: true, SilenceDuration: -time.Second},
	}
	for _, o := range bad {
		if err := o.withDefaults().validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", o)
		}
	}
}

func TestSilenceCheckInterval(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		10 * time.Second:       time.Second,
		2 * time.Second:        time.Second,
		time.Second:            500 * time.Millisecond,
		200 * time.Millisecond: 100 * time.Millisecond,
	}
	for silence, want := range cases {
		got := Options{SilenceDuration: silence}.silenceCheckInterval()
		if got != want {
			t.Fatalf("silence %s: interval %s, want %s", silence, got, want)
		}
	}
}

func TestSessionTailKeepsLastLines(t *testing.T) {
	s := &session{}
	for i := 0; i < tailLines+5; i++ {
		s.remember(strings.Repeat("x", i))
	}
	if len(s.tail) != tailLines {
		t.Fatalf("tail length %d", len(s.tail))
	}
	if s.tail[0] != strings.Repeat("x", 5) || s.tail[tailLines-1] != strings.Repeat("x", tailLines+4) {
		t.Fatalf("tail does not hold the newest lines")
	}
}

func TestReadArtifact(t *testing.T) {
	dir := t.TempDir()
	wavFormat, _ := platform.LookupFormat("wav")

	if _, _, err := readArtifact(filepath.Join(dir, "missing.wav"), wavFormat); !errors.Is(err, captureerr.ErrNoAudioCaptured) {
		t.Fatalf("missing file: expected ErrNoAudioCaptured, got %v", err)
	}

	path := filepath.Join(dir, "one-second.wav")
	if err := os.WriteFile(path, pcmWAV(16000, 1, time.Second), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	data, duration, err := readArtifact(path, wavFormat)
	if err != nil {
		t.Fatalf("readArtifact: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected data")
	}
	if duration < 990*time.Millisecond || duration > 1010*time.Millisecond {
		t.Fatalf("expected about 1s duration from header, got %s", duration)
	}

	if got := wavDuration([]byte("not a wav file")); got != 0 {
		t.Fatalf("expected zero duration for garbage, got %s", got)
	}
}

func TestTempFileName(t *testing.T) {
	format, _ := platform.LookupFormat("ogg")
	got := tempFileName("/tmp/micrec", "abc", format)
	if got != filepath.Join("/tmp/micrec", "micrec-abc.ogg") {
		t.Fatalf("unexpected temp file name %q", got)
	}
}

// pcmWAV builds a canonical 16-bit PCM WAV file of silence.
func pcmWAV(sampleRate, channels int, length time.Duration) []byte {
	blockAlign := channels * 2
	byteRate := sampleRate * blockAlign
	dataSize := int(float64(byteRate) * length.Seconds())

	buf := make([]byte, 0, 44+dataSize)
	le32 := func(v int) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }
	le16 := func(v int) []byte { return []byte{byte(v), byte(v >> 8)} }

	buf = append(buf, "RIFF"...)
	buf = append(buf, le32(36+dataSize)...)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = append(buf, le32(16)...)
	buf = append(buf, le16(1)...)
	buf = append(buf, le16(channels)...)
	buf = append(buf, le32(sampleRate)...)
	buf = append(buf, le32(byteRate)...)
	buf = append(buf, le16(blockAlign)...)
	buf = append(buf, le16(16)...)
	buf = append(buf, "data"...)
	buf = append(buf, le32(dataSize)...)
	buf = append(buf, make([]byte, dataSize)...)
	return buf
}
