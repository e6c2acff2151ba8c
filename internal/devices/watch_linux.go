//go:build linux

package devices

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"micrec/internal/logging"
)

// Watcher listens for udev netlink events on the sound subsystem so callers
// can re-enumerate microphones when hardware is plugged or unplugged.
type Watcher struct {
	logger  *slog.Logger
	handler ChangeHandler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewWatcher creates a watcher that calls handler for each sound device event.
func NewWatcher(logger *slog.Logger, handler ChangeHandler) *Watcher {
	return &Watcher{
		logger:  logging.NewComponentLogger(logger, "device-watch"),
		handler: handler,
	}
}

// Start connects to the kernel uevent socket and begins delivering events.
func (w *Watcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(w.logger, "failed to connect to netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure udev is running and netlink sockets are permitted"),
			logging.String(logging.FieldImpact, "device changes will not be reported"),
		)
		return err
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true

	go w.monitorLoop(ctx, conn, w.quit, w.done)

	w.logger.Info("device watch started",
		logging.String(logging.FieldEventType, "device_watch_started"),
	)
	return nil
}

// Stop shuts down the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.quit)
	done := w.done
	conn := w.conn
	w.quit = nil
	w.conn = nil
	w.running = false
	w.mu.Unlock()

	<-done
	_ = conn.Close()

	w.logger.Info("device watch stopped",
		logging.String(logging.FieldEventType, "device_watch_stopped"),
	)
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(w.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "device changes may be missed"),
			)
		}
	}
}

// buildMatcher matches sound card and PCM node arrivals and removals.
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "sound",
		},
	})
	return rules
}

func (w *Watcher) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	node := nodeName(uevent)
	if node == "" {
		w.logger.Debug("ignoring event without device node",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	w.logger.Info("sound device changed",
		logging.String(logging.FieldEventType, "device_changed"),
		logging.String(logging.FieldDevice, node),
		logging.String("action", string(uevent.Action)),
	)

	if w.handler == nil {
		return
	}
	w.handler(ctx, Change{Action: string(uevent.Action), Node: node})
}

// nodeName returns the device node for a uevent, falling back to the last
// DEVPATH element (e.g. card1) when DEVNAME is absent.
func nodeName(uevent netlink.UEvent) string {
	if devname := strings.TrimSpace(uevent.Env["DEVNAME"]); devname != "" {
		return devname
	}
	devpath := strings.TrimRight(uevent.Env["DEVPATH"], "/")
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return parts[len(parts)-1]
}
