package recorder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
)

var command = exec.Command

const lineBuffer = 64

// Process is a running encoder. Lines delivers diagnostic output in emission
// order and is closed before Done is closed.
type Process interface {
	Lines() <-chan string
	Done() <-chan struct{}
	// Err reports the exit error once Done is closed.
	Err() error
	// Terminate asks the encoder to finish the file and exit.
	Terminate() error
	Kill() error
}

// Runner spawns encoder processes.
type Runner interface {
	Start(ctx context.Context, binary string, args []string) (Process, error)
}

// ExecRunner starts ffmpeg with os/exec.
type ExecRunner struct{}

func (ExecRunner) Start(_ context.Context, binary string, args []string) (Process, error) {
	cmd := command(binary, args...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	cmd.Stdout = io.Discard
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	p := &execProcess{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, lineBuffer),
		done:  make(chan struct{}),
	}
	go p.pump(stderr)
	return p, nil
}

type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	done  chan struct{}

	mu         sync.Mutex
	err        error
	terminated bool
}

func (p *execProcess) Lines() <-chan string  { return p.lines }
func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// pump forwards stderr lines, then reaps the process. Wait must follow the
// final read because it closes the pipe.
func (p *execProcess) pump(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	scanner.Split(scanStatusLines)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		p.lines <- line
	}
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, stderr)
	}
	close(p.lines)

	err := p.cmd.Wait()
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

// Terminate sends "q" on stdin, which makes ffmpeg flush and rewrite the
// container header. An interrupt is sent when stdin is already gone.
func (p *execProcess) Terminate() error {
	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return nil
	}
	p.terminated = true
	p.mu.Unlock()

	_, writeErr := p.stdin.Write([]byte("q"))
	_ = p.stdin.Close()
	if writeErr == nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("interrupt encoder: %w", err)
	}
	return nil
}

func (p *execProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill encoder: %w", err)
	}
	return nil
}

// scanStatusLines splits on either '\r' or '\n'. ffmpeg rewrites its progress
// line in place with carriage returns.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
