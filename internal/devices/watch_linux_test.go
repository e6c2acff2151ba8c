//go:build linux

package devices

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestBuildMatcherSelectsSoundAddRemove(t *testing.T) {
	matcher := buildMatcher()

	cases := []struct {
		name   string
		action netlink.KObjAction
		env    map[string]string
		want   bool
	}{
		{"add sound", netlink.ADD, map[string]string{"SUBSYSTEM": "sound"}, true},
		{"remove sound", netlink.REMOVE, map[string]string{"SUBSYSTEM": "sound"}, true},
		{"change sound", netlink.CHANGE, map[string]string{"SUBSYSTEM": "sound"}, false},
		{"add block", netlink.ADD, map[string]string{"SUBSYSTEM": "block"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := matcher.Evaluate(netlink.UEvent{Action: tc.action, Env: tc.env})
			if got != tc.want {
				t.Fatalf("Evaluate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHandleEventDeliversChange(t *testing.T) {
	var got []Change
	w := NewWatcher(nil, func(_ context.Context, c Change) {
		got = append(got, c)
	})

	w.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"DEVNAME": "/dev/snd/pcmC1D0c"},
	})
	w.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.REMOVE,
		Env:    map[string]string{"DEVPATH": "/devices/pci0000:00/0000:00:14.0/usb1/1-2/1-2:1.0/sound/card1"},
	})
	w.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{},
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %d (%+v)", len(got), got)
	}
	if got[0].Node != "/dev/snd/pcmC1D0c" || got[0].Action != "add" {
		t.Fatalf("unexpected first change: %+v", got[0])
	}
	if got[1].Node != "card1" || got[1].Action != "remove" {
		t.Fatalf("unexpected second change: %+v", got[1])
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	var nilWatcher *Watcher
	nilWatcher.Stop()
	if nilWatcher.Running() {
		t.Fatal("nil watcher should not be running")
	}

	w := NewWatcher(nil, nil)
	w.Stop()
	w.Stop()
	if w.Running() {
		t.Fatal("unstarted watcher should not be running")
	}
}
