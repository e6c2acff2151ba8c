package devices

import (
	"context"
	"errors"
)

// ErrWatchUnsupported is returned by Watcher.Start on platforms without hotplug events.
var ErrWatchUnsupported = errors.New("device hotplug watch is only supported on linux")

// Change reports that the set of sound devices was modified.
type Change struct {
	Action string
	Node   string
}

// ChangeHandler is invoked for every matched hotplug event.
type ChangeHandler func(ctx context.Context, change Change)
