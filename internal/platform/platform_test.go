package platform

import (
	"errors"
	"slices"
	"testing"

	"micrec/internal/captureerr"
)

func TestResolveSupportedPlatforms(t *testing.T) {
	for _, id := range Supported() {
		cmds, err := Resolve(string(id))
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", id, err)
		}
		if cmds.InputFormat == "" {
			t.Fatalf("Resolve(%q) returned empty input format", id)
		}
		if len(cmds.ListArgs) == 0 {
			t.Fatalf("Resolve(%q) returned empty listing args", id)
		}
		if cmds.FallbackDevice == "" {
			t.Fatalf("Resolve(%q) returned empty fallback device", id)
		}
	}
}

func TestResolveAliases(t *testing.T) {
	cmds, err := Resolve(" MacOS ")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cmds.OS != Darwin {
		t.Fatalf("expected darwin, got %q", cmds.OS)
	}
}

func TestResolveUnsupported(t *testing.T) {
	for _, id := range []string{"plan9", "", "freebsd"} {
		_, err := Resolve(id)
		if !errors.Is(err, captureerr.ErrUnsupportedPlatform) {
			t.Fatalf("Resolve(%q) expected ErrUnsupportedPlatform, got %v", id, err)
		}
	}
}

func TestResolveReturnsIndependentCopies(t *testing.T) {
	first, _ := Resolve("linux")
	first.ListArgs[0] = "mutated"
	second, _ := Resolve("linux")
	if second.ListArgs[0] == "mutated" {
		t.Fatal("expected Resolve to return a copy of the listing args")
	}
}

func TestAddress(t *testing.T) {
	darwin, _ := Resolve("darwin")
	windows, _ := Resolve("windows")
	linux, _ := Resolve("linux")

	tests := []struct {
		cmds CommandSet
		in   string
		want string
	}{
		{darwin, "1", ":1"},
		{darwin, ":2", ":2"},
		{windows, "Microphone (USB)", "audio=Microphone (USB)"},
		{windows, "audio=Headset", "audio=Headset"},
		{linux, "hw:CARD=PCH,DEV=0", "hw:CARD=PCH,DEV=0"},
		{linux, "  ", ""},
	}
	for _, tt := range tests {
		if got := tt.cmds.Address(tt.in); got != tt.want {
			t.Errorf("%s Address(%q) = %q, want %q", tt.cmds.OS, tt.in, got, tt.want)
		}
	}
}

func TestCaptureArgs(t *testing.T) {
	darwin, _ := Resolve("darwin")
	mp3, ok := LookupFormat("MP3")
	if !ok {
		t.Fatal("expected mp3 format")
	}
	args, err := darwin.CaptureArgs(CaptureSpec{
		Device:     ":0",
		OutputPath: "/tmp/out.mp3",
		SampleRate: 16000,
		Channels:   1,
		Format:     mp3,
		Quality:    "high",
	})
	if err != nil {
		t.Fatalf("CaptureArgs returned error: %v", err)
	}
	want := []string{
		"-y", "-loglevel", "info",
		"-f", "avfoundation", "-i", ":0", "-vn",
		"-ac", "1", "-ar", "16000",
		"-c:a", "libmp3lame", "-b:a", "192k",
		"/tmp/out.mp3",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", args, want)
	}
}

func TestCaptureArgsLosslessSkipsBitrate(t *testing.T) {
	linux, _ := Resolve("linux")
	wav, _ := LookupFormat("wav")
	args, err := linux.CaptureArgs(CaptureSpec{Device: "default", OutputPath: "out.wav", Format: wav, Quality: "low"})
	if err != nil {
		t.Fatalf("CaptureArgs returned error: %v", err)
	}
	if slices.Contains(args, "-b:a") {
		t.Fatalf("expected no bitrate for wav, got %v", args)
	}
}

func TestCaptureArgsRequiresResolvedSet(t *testing.T) {
	if _, err := (CommandSet{}).CaptureArgs(CaptureSpec{Device: ":0", OutputPath: "x"}); err == nil {
		t.Fatal("expected error for zero command set")
	}
}
