package devices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"micrec/internal/captureerr"
	"micrec/internal/deps"
	"micrec/internal/platform"
)

const listTimeout = 10 * time.Second

// Runner executes the listing invocation and returns everything it printed.
type Runner interface {
	Output(ctx context.Context, binary string, args []string) (string, error)
}

// Enumerator runs the platform listing command and parses its output.
type Enumerator struct {
	runner Runner
}

// Option configures the enumerator.
type Option func(*Enumerator)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(e *Enumerator) {
		if r != nil {
			e.runner = r
		}
	}
}

// NewEnumerator constructs an enumerator backed by os/exec.
func NewEnumerator(opts ...Option) *Enumerator {
	e := &Enumerator{runner: commandRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// List runs the listing invocation from commands with binary and returns the
// parsed devices. ffmpeg prints the inventory to stderr and exits non-zero even
// when listing succeeds, so any normal exit counts as success. An empty result
// is not an error.
func (e *Enumerator) List(ctx context.Context, binary string, commands platform.CommandSet) ([]Descriptor, error) {
	if !commands.Valid() {
		return nil, captureerr.Wrap(captureerr.ErrUnsupportedPlatform, "list devices", "command set not resolved", nil)
	}
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, captureerr.Wrap(captureerr.ErrBinaryNotFound, "list devices", "encoder path required", nil)
	}
	listCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	output, err := e.runner.Output(listCtx, binary, commands.ListArgs)
	if err != nil {
		return nil, err
	}
	return Parse(commands.Dialect, output), nil
}

// Detect locates the encoder (see deps.CheckEncoder), resolves the current
// platform, and lists its input devices.
func Detect(ctx context.Context, customPath string) ([]Descriptor, error) {
	avail, err := deps.CheckEncoder(ctx, customPath)
	if err != nil {
		return nil, err
	}
	commands, err := platform.Current()
	if err != nil {
		return nil, err
	}
	return NewEnumerator().List(ctx, avail.Path, commands)
}

type commandRunner struct{}

func (commandRunner) Output(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	if err == nil {
		return buf.String(), nil
	}
	if ctx.Err() != nil {
		return "", captureerr.Wrap(captureerr.ErrProcessSpawnFailure, "list devices", "listing timed out", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return buf.String(), nil
	}
	return "", captureerr.Wrap(captureerr.ErrProcessSpawnFailure, "list devices", fmt.Sprintf("run %s", binary), err)
}
