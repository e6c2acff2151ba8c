package recorder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"micrec/internal/activity"
	"micrec/internal/captureerr"
	"micrec/internal/deps"
	"micrec/internal/devices"
	"micrec/internal/logging"
	"micrec/internal/platform"
)

const (
	defaultGracePeriod = 5 * time.Second
	tailLines          = 20
)

// DeviceLister enumerates input devices for a resolved platform.
type DeviceLister interface {
	List(ctx context.Context, binary string, commands platform.CommandSet) ([]devices.Descriptor, error)
}

// AvailabilityFunc locates a usable encoder binary.
type AvailabilityFunc func(ctx context.Context, customPath string) (deps.Availability, error)

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock injects the clock used by the guard timers.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithRunner overrides the process runner.
func WithRunner(runner Runner) Option {
	return func(r *Recorder) {
		if runner != nil {
			r.runner = runner
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logging.NewComponentLogger(logger, "recorder")
	}
}

// WithListener registers the session listener.
func WithListener(listener Listener) Option {
	return func(r *Recorder) {
		if listener != nil {
			r.listener = listener
		}
	}
}

// WithTempDir sets the directory temp capture files are written to.
func WithTempDir(dir string) Option {
	return func(r *Recorder) {
		if strings.TrimSpace(dir) != "" {
			r.tempDir = dir
		}
	}
}

// WithLockPath enables the cross-process session lock at path.
func WithLockPath(path string) Option {
	return func(r *Recorder) {
		r.lockPath = strings.TrimSpace(path)
	}
}

// WithGracePeriod bounds how long a stopping encoder may run before it is killed.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.grace = d
		}
	}
}

// WithDeviceLister overrides device enumeration.
func WithDeviceLister(lister DeviceLister) Option {
	return func(r *Recorder) {
		if lister != nil {
			r.lister = lister
		}
	}
}

// WithAvailabilityCheck overrides the encoder lookup.
func WithAvailabilityCheck(check AvailabilityFunc) Option {
	return func(r *Recorder) {
		if check != nil {
			r.checkEncoder = check
		}
	}
}

// WithPlatform resolves commands for osID instead of the running OS.
func WithPlatform(osID string) Option {
	return func(r *Recorder) {
		r.osID = osID
	}
}

// WithClassifier replaces the diagnostic line classifier.
func WithClassifier(classifier activity.Classifier) Option {
	return func(r *Recorder) {
		if classifier != nil {
			r.classifier = classifier
		}
	}
}

// Recorder supervises at most one encoder session at a time.
type Recorder struct {
	clock        clockwork.Clock
	runner       Runner
	logger       *slog.Logger
	listener     Listener
	tempDir      string
	lockPath     string
	grace        time.Duration
	lister       DeviceLister
	checkEncoder AvailabilityFunc
	osID         string
	classifier   activity.Classifier

	mu      sync.Mutex
	state   State
	current *session
	last    *session
	stopReq chan struct{}
}

// New constructs a recorder with production defaults.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		clock:        clockwork.NewRealClock(),
		runner:       ExecRunner{},
		logger:       logging.NewComponentLogger(nil, "recorder"),
		listener:     nopListener{},
		tempDir:      os.TempDir(),
		grace:        defaultGracePeriod,
		lister:       devices.NewEnumerator(),
		checkEncoder: deps.CheckEncoder,
		classifier:   activity.FFmpegRules(),
		stopReq:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type session struct {
	id           string
	opts         Options
	format       platform.Format
	device       string
	tempPath     string
	startedAt    time.Time
	lastActivity time.Time
	captured     int64
	proc         Process
	lock         *flock.Flock
	silence      clockwork.Ticker
	maxTimer     clockwork.Timer
	tail         []string
	progress     *logging.ProgressSampler
	logger       *slog.Logger
	done         chan struct{}
}

type outcome struct {
	reason StopReason
	err    error
	exited bool
}

// State reports the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsRecording reports whether a session is starting or recording.
func (r *Recorder) IsRecording() bool {
	state := r.State()
	return state == StateStarting || state == StateRecording
}

// Start spawns the encoder and returns once it is recording. ctx bounds the
// startup and the session: cancelling it stops the recording like Stop.
// Start fails with captureerr.ErrAlreadyRecording, without touching the
// running session, unless the recorder is idle. Any other failure fires
// OnError and is returned.
func (r *Recorder) Start(ctx context.Context, opts Options) error {
	r.mu.Lock()
	if r.state != StateIdle {
		state := r.state
		r.mu.Unlock()
		return captureerr.Wrap(captureerr.ErrAlreadyRecording, "start recording", "recorder is "+state.String(), nil)
	}
	r.state = StateStarting
	select {
	case <-r.stopReq:
	default:
	}
	r.mu.Unlock()
	logState(r.logger, StateStarting)

	s, err := r.launch(ctx, opts)
	if err != nil {
		r.setState(r.logger, StateIdle)
		logging.ErrorWithContext(r.logger, "recording failed to start", "recording_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, captureerr.Hint(err)),
		)
		r.listener.OnError(err)
		return err
	}

	r.mu.Lock()
	r.state = StateRecording
	r.current = s
	r.last = s
	r.mu.Unlock()
	logState(s.logger, StateRecording)

	s.logger.Info("recording started",
		logging.String(logging.FieldEventType, "recording_started"),
		logging.String(logging.FieldDevice, s.device),
		logging.String("format", s.format.Name),
		logging.Bool("silence_detection", s.opts.SilenceDetection),
		logging.Duration("max_duration", s.opts.MaxDuration),
	)
	r.listener.OnRecordingStart(SessionInfo{
		ID:        s.id,
		Device:    s.device,
		Format:    s.format.Name,
		TempPath:  s.tempPath,
		StartedAt: s.startedAt,
	})

	go r.run(ctx, s)
	return nil
}

// Stop asks the running session to finish. It returns immediately; the
// outcome arrives through the listener. Calling Stop when idle or while
// already stopping does nothing.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateStarting && r.state != StateRecording {
		return
	}
	select {
	case r.stopReq <- struct{}{}:
	default:
	}
}

// Wait blocks until the most recent session has been finalized and its
// listener notification delivered.
func (r *Recorder) Wait(ctx context.Context) error {
	r.mu.Lock()
	s := r.last
	r.mu.Unlock()
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// launch performs every startup step. On failure it releases whatever it
// acquired so the recorder can return to idle.
func (r *Recorder) launch(ctx context.Context, opts Options) (*session, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid recording options: %w", err)
	}
	format, _ := platform.LookupFormat(opts.Format)

	commands, err := r.resolveCommands()
	if err != nil {
		return nil, err
	}

	avail, err := r.checkEncoder(ctx, opts.EncoderPath)
	if err != nil {
		return nil, err
	}

	device := r.resolveDevice(ctx, commands, avail.Path, opts.Device)

	lock, err := r.acquireLock()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		releaseLock(lock)
		return nil, captureerr.Wrap(captureerr.ErrTempFileError, "prepare temp dir", r.tempDir, err)
	}
	id := uuid.NewString()
	tempPath := tempFileName(r.tempDir, id, format)

	args, err := commands.CaptureArgs(platform.CaptureSpec{
		Device:     device,
		OutputPath: tempPath,
		SampleRate: opts.SampleRate,
		Channels:   opts.Channels,
		Format:     format,
		Quality:    opts.Quality,
	})
	if err != nil {
		releaseLock(lock)
		return nil, captureerr.Wrap(captureerr.ErrProcessSpawnFailure, "build encoder args", "", err)
	}

	logger := logging.WithContext(logging.WithSessionID(ctx, id), r.logger)
	logger.Debug("spawning encoder",
		logging.String("binary", avail.Path),
		logging.String("args", strings.Join(args, " ")),
	)
	proc, err := r.runner.Start(ctx, avail.Path, args)
	if err != nil {
		releaseLock(lock)
		removeFile(logger, tempPath)
		return nil, captureerr.Wrap(captureerr.ErrProcessSpawnFailure, "spawn encoder", avail.Path, err)
	}

	now := r.clock.Now()
	s := &session{
		id:           id,
		opts:         opts,
		format:       format,
		device:       device,
		tempPath:     tempPath,
		startedAt:    now,
		lastActivity: now,
		proc:         proc,
		lock:         lock,
		progress:     logging.NewProgressSampler(0),
		logger:       logger,
		done:         make(chan struct{}),
	}
	if opts.SilenceDetection {
		s.silence = r.clock.NewTicker(opts.silenceCheckInterval())
	}
	if opts.MaxDuration > 0 {
		s.maxTimer = r.clock.NewTimer(opts.MaxDuration)
	}
	return s, nil
}

func (r *Recorder) setState(logger *slog.Logger, next State) {
	r.mu.Lock()
	r.state = next
	r.mu.Unlock()
	logState(logger, next)
}

func logState(logger *slog.Logger, state State) {
	logger.Debug("recorder state changed",
		logging.String(logging.FieldEventType, "state_changed"),
		logging.String(logging.FieldState, state.String()),
	)
}

func (r *Recorder) resolveCommands() (platform.CommandSet, error) {
	if r.osID == "" {
		return platform.Current()
	}
	return platform.Resolve(r.osID)
}

func (r *Recorder) resolveDevice(ctx context.Context, commands platform.CommandSet, binary, explicit string) string {
	if explicit != "" {
		return commands.Address(explicit)
	}
	list, err := r.lister.List(ctx, binary, commands)
	if err != nil {
		logging.WarnWithContext(r.logger, "device enumeration failed; using platform fallback", "device_enumeration_failed",
			logging.Error(err),
			logging.String(logging.FieldDevice, commands.FallbackDevice),
			logging.String(logging.FieldImpact, "recording uses the platform default device"),
		)
		return commands.FallbackDevice
	}
	if d, ok := devices.Default(list); ok {
		return d.ID
	}
	return commands.FallbackDevice
}

func (r *Recorder) acquireLock() (*flock.Flock, error) {
	if r.lockPath == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return nil, captureerr.Wrap(captureerr.ErrTempFileError, "prepare lock dir", r.lockPath, err)
	}
	lock := flock.New(r.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, captureerr.Wrap(captureerr.ErrTempFileError, "acquire session lock", r.lockPath, err)
	}
	if !ok {
		return nil, captureerr.Wrap(captureerr.ErrAlreadyRecording, "acquire session lock", "another micrec process is recording", nil)
	}
	return lock, nil
}

func (r *Recorder) run(ctx context.Context, s *session) {
	out := r.supervise(ctx, s)
	r.finish(s, out)
}

// supervise owns the session until a stop path is chosen.
func (r *Recorder) supervise(ctx context.Context, s *session) outcome {
	lines := s.proc.Lines()
	var silenceC, maxC <-chan time.Time
	if s.silence != nil {
		silenceC = s.silence.Chan()
	}
	if s.maxTimer != nil {
		maxC = s.maxTimer.Chan()
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if fault := r.observe(s, line); fault != nil {
				return outcome{reason: StopDeviceError, err: fault}
			}
		case <-s.proc.Done():
			var fault error
			if lines != nil {
				for line := range lines {
					if f := r.observe(s, line); f != nil && fault == nil {
						fault = f
					}
				}
			}
			if fault != nil {
				return outcome{reason: StopDeviceError, err: fault, exited: true}
			}
			if reason, ok := r.pendingStop(ctx); ok {
				return outcome{reason: reason, exited: true}
			}
			exitErr := &ProcessExitError{Err: s.proc.Err(), Tail: append([]string(nil), s.tail...)}
			return outcome{
				reason: StopProcessExit,
				err:    captureerr.Wrap(captureerr.ErrProcessExitedUnexpectedly, "record", "", exitErr),
				exited: true,
			}
		case <-silenceC:
			if idle := r.clock.Since(s.lastActivity); idle >= s.opts.SilenceDuration {
				s.logger.Info("silence threshold reached",
					logging.String(logging.FieldEventType, "silence_timeout"),
					logging.Duration("idle", idle),
				)
				return outcome{reason: StopSilence}
			}
		case <-maxC:
			s.logger.Info("max duration reached",
				logging.String(logging.FieldEventType, "max_duration_reached"),
				logging.Duration("max_duration", s.opts.MaxDuration),
			)
			return outcome{reason: StopMaxDuration}
		case <-r.stopReq:
			return outcome{reason: StopManual}
		case <-ctx.Done():
			return outcome{reason: StopCanceled}
		}
	}
}

// pendingStop reports a stop that raced the encoder exit. The encoder
// usually exits on the same signal, so the exit is the graceful path.
func (r *Recorder) pendingStop(ctx context.Context) (StopReason, bool) {
	select {
	case <-r.stopReq:
		return StopManual, true
	default:
	}
	if ctx.Err() != nil {
		return StopCanceled, true
	}
	return "", false
}

// observe classifies one diagnostic line and returns a fatal fault, if any.
func (r *Recorder) observe(s *session, line string) error {
	s.remember(line)
	c := r.classifier.Classify(line)
	switch c.Kind {
	case activity.KindActivity:
		s.lastActivity = r.clock.Now()
		if c.Captured > 0 {
			s.captured = c.Captured
			if s.progress.ShouldLog(c.Captured) {
				s.logger.Debug("capture progress",
					logging.String(logging.FieldEventType, "capture_progress"),
					logging.Int64("captured_bytes", c.Captured),
					logging.Duration("elapsed", r.clock.Since(s.startedAt)),
				)
			}
		}
	case activity.KindDeviceError:
		if c.Fatal {
			logging.ErrorWithContext(s.logger, "encoder reported a device error", "device_error",
				logging.Error(c.Fault),
				logging.String(logging.FieldErrorHint, captureerr.Hint(c.Fault)),
			)
			return c.Fault
		}
		logging.WarnWithContext(s.logger, "encoder reported a device warning", "device_warning",
			logging.String("line", line),
			logging.String(logging.FieldErrorHint, "close other applications using the microphone"),
			logging.String(logging.FieldImpact, "audio may contain gaps"),
		)
	}
	s.logger.Debug("encoder output",
		logging.String("kind", c.Kind.String()),
		logging.String("line", line),
	)
	return nil
}

func (s *session) remember(line string) {
	if len(s.tail) == tailLines {
		copy(s.tail, s.tail[1:])
		s.tail = s.tail[:tailLines-1]
	}
	s.tail = append(s.tail, line)
}

func (s *session) cancelGuards() {
	if s.silence != nil {
		s.silence.Stop()
		s.silence = nil
	}
	if s.maxTimer != nil {
		s.maxTimer.Stop()
		s.maxTimer = nil
	}
}

// finish runs the single cleanup path shared by every stop reason.
func (r *Recorder) finish(s *session, out outcome) {
	next := StateStopping
	if out.err != nil {
		next = StateError
	}
	r.setState(s.logger, next)

	s.cancelGuards()
	if !out.exited {
		r.awaitExit(s)
	}
	endedAt := r.clock.Now()

	err := out.err
	var artifact Artifact
	if err == nil {
		data, duration, readErr := readArtifact(s.tempPath, s.format)
		if readErr != nil {
			err = readErr
		} else {
			if duration <= 0 {
				duration = endedAt.Sub(s.startedAt)
			}
			artifact = Artifact{
				SessionID:  s.id,
				Data:       data,
				MimeType:   s.format.MimeType,
				Format:     s.format.Name,
				Device:     s.device,
				Duration:   duration,
				StartedAt:  s.startedAt,
				EndedAt:    endedAt,
				StopReason: out.reason,
			}
		}
	}

	removeFile(s.logger, s.tempPath)
	releaseLock(s.lock)

	r.mu.Lock()
	r.state = StateIdle
	r.current = nil
	r.mu.Unlock()
	logState(s.logger, StateIdle)

	if err != nil {
		logging.ErrorWithContext(s.logger, "recording failed", "recording_failed",
			logging.Error(err),
			logging.String("stop_reason", string(out.reason)),
			logging.String(logging.FieldErrorHint, captureerr.Hint(err)),
		)
		for _, line := range s.tail {
			s.logger.Debug("encoder output tail", logging.String("line", line))
		}
		r.listener.OnError(err)
	} else {
		s.logger.Info("recording stopped",
			logging.String(logging.FieldEventType, "recording_stopped"),
			logging.String("stop_reason", string(out.reason)),
			logging.Duration("duration", artifact.Duration),
			logging.Int("bytes", artifact.Size()),
		)
		r.listener.OnRecordingStop(artifact)
	}
	close(s.done)
}

// awaitExit asks the encoder to finish and kills it when the grace period
// elapses. Lines keep draining so the pump never blocks.
func (r *Recorder) awaitExit(s *session) {
	if err := s.proc.Terminate(); err != nil {
		logging.WarnWithContext(s.logger, "graceful encoder stop failed", "encoder_terminate_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "encoder will be killed after the grace period"),
		)
	}
	grace := r.clock.NewTimer(r.grace)
	defer grace.Stop()

	lines := s.proc.Lines()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			s.remember(line)
		case <-s.proc.Done():
			if lines != nil {
				for line := range lines {
					s.remember(line)
				}
			}
			return
		case <-grace.Chan():
			logging.WarnWithContext(s.logger, "encoder did not exit within grace period; killing", "encoder_killed",
				logging.Duration("grace", r.grace),
				logging.String(logging.FieldImpact, "the captured file may be truncated"),
			)
			if err := s.proc.Kill(); err != nil {
				s.logger.Warn("kill encoder failed", logging.Error(err))
			}
		}
	}
}

func removeFile(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(logger, "failed to remove temp capture", "temp_cleanup_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldImpact, "a stale capture file remains in the temp directory"),
		)
	}
}

func releaseLock(lock *flock.Flock) {
	if lock == nil {
		return
	}
	_ = lock.Unlock()
}

// ProcessExitError describes an encoder that exited while still recording.
type ProcessExitError struct {
	Err  error
	Tail []string
}

func (e *ProcessExitError) Error() string {
	status := "exited"
	if e.Err != nil {
		status = e.Err.Error()
	}
	if len(e.Tail) == 0 {
		return status
	}
	return status + "; last output:\n  " + strings.Join(e.Tail, "\n  ")
}

func (e *ProcessExitError) Unwrap() error {
	return e.Err
}
