package main

import (
	"strings"
	"testing"

	"micrec/internal/devices"
)

func TestDevicesWithNoInputs(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"devices"}, env.configPath)
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	requireContains(t, out, "No input devices found")

	out, _, err = runCLI(t, []string{"devices", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("devices --json: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", out)
	}
}

func TestDevicesRejectsJSONWithWatch(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"devices", "--json", "--watch"}, env.configPath)
	if err == nil {
		t.Fatal("expected --json with --watch to fail")
	}
	requireContains(t, err.Error(), "watch")
}

func TestPrintDevicesMarksDefault(t *testing.T) {
	var b strings.Builder
	printDevices(&b, []devices.Descriptor{
		{ID: ":0", Name: "Built-in Microphone", IsDefault: true},
		{ID: ":1", Name: "USB Audio"},
	})
	out := b.String()
	requireContains(t, out, "Built-in Microphone")
	requireContains(t, out, "USB Audio")
	if strings.Count(out, "*") != 1 {
		t.Fatalf("expected exactly one default marker:\n%s", out)
	}
}
