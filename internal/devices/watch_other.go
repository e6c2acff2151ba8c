//go:build !linux

package devices

import (
	"context"
	"log/slog"
)

// Watcher is unavailable outside linux; Start always reports ErrWatchUnsupported.
type Watcher struct{}

// NewWatcher returns a watcher whose Start fails with ErrWatchUnsupported.
func NewWatcher(_ *slog.Logger, _ ChangeHandler) *Watcher {
	return &Watcher{}
}

func (w *Watcher) Start(context.Context) error { return ErrWatchUnsupported }

func (w *Watcher) Stop() {}

func (w *Watcher) Running() bool { return false }
