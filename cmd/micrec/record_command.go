package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"micrec/internal/captureerr"
	"micrec/internal/config"
	"micrec/internal/fileutil"
	"micrec/internal/history"
	"micrec/internal/logging"
	"micrec/internal/platform"
	"micrec/internal/recorder"
)

type recordFlags struct {
	device      string
	format      string
	quality     string
	output      string
	label       string
	maxDuration time.Duration
	silence     time.Duration
	noHistory   bool
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone until Ctrl-C, silence, or the max duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, ctx, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.device, "device", "d", "", "Device address (overrides capture.device)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: wav, flac, mp3, ogg, webm, m4a")
	cmd.Flags().StringVarP(&flags.quality, "quality", "q", "", "Bitrate tier for lossy formats: low, medium, high")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: paths.output_dir/micrec-<time>.<ext>)")
	cmd.Flags().StringVarP(&flags.label, "label", "l", "", "Label appended to the generated file name")
	cmd.Flags().DurationVar(&flags.maxDuration, "max", 0, "Stop after this long (overrides capture.max_seconds)")
	cmd.Flags().DurationVar(&flags.silence, "silence", 0, "Stop after this much silence (enables silence detection)")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not record the session in the history database")
	return cmd
}

// sessionResult collects listener notifications. Wait orders every callback
// before it returns, so no locking is needed.
type sessionResult struct {
	info     recorder.SessionInfo
	artifact *recorder.Artifact
	err      error
}

func runRecord(cmd *cobra.Command, ctx *commandContext, flags recordFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	opts := applyRecordFlags(cmd, captureOptions(cfg), flags)

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	var result sessionResult
	listener := recorder.ListenerFuncs{
		Start: func(info recorder.SessionInfo) {
			result.info = info
			fmt.Fprintf(out, "Recording from %s (press Ctrl-C to stop)\n", info.Device)
		},
		Stop: func(a recorder.Artifact) {
			result.artifact = &a
		},
		Error: func(err error) {
			result.err = err
		},
	}

	rec := recorder.New(
		recorder.WithLogger(logging.NewComponentLogger(logger, "recorder")),
		recorder.WithListener(listener),
		recorder.WithTempDir(cfg.Paths.TempDir),
		recorder.WithLockPath(cfg.LockPath()),
		recorder.WithGracePeriod(cfg.GracePeriod()),
	)
	if err := rec.Start(signalCtx, opts); err != nil {
		return withHint(err)
	}
	if err := rec.Wait(context.Background()); err != nil {
		return err
	}

	var store *history.Store
	if !flags.noHistory {
		store = openHistory(cfg, logger)
		defer store.Close()
	}

	if result.err != nil {
		recordHistory(logger, store, history.FromFailure(result.info, time.Now(), result.err))
		return withHint(result.err)
	}

	artifact := *result.artifact
	path, err := outputPath(cfg, flags.output, flags.label, artifact)
	if err != nil {
		return err
	}
	if err := writeArtifact(path, artifact.Data); err != nil {
		return err
	}
	recordHistory(logger, store, history.FromArtifact(artifact, path))

	fmt.Fprintf(out, "Saved %s (%s) to %s [stopped: %s]\n",
		formatBytes(int64(artifact.Size())), formatDuration(artifact.Duration), path, artifact.StopReason)
	return nil
}

func applyRecordFlags(cmd *cobra.Command, opts recorder.Options, flags recordFlags) recorder.Options {
	if v := strings.TrimSpace(flags.device); v != "" {
		opts.Device = v
	}
	if v := strings.TrimSpace(flags.format); v != "" {
		opts.Format = v
	}
	if v := strings.TrimSpace(flags.quality); v != "" {
		opts.Quality = v
	}
	if cmd.Flags().Changed("max") {
		opts.MaxDuration = flags.maxDuration
	}
	if cmd.Flags().Changed("silence") {
		opts.SilenceDetection = flags.silence > 0
		opts.SilenceDuration = flags.silence
	}
	return opts
}

func outputPath(cfg *config.Config, explicit, label string, artifact recorder.Artifact) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		expanded, err := config.ExpandPath(explicit)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		return expanded, nil
	}
	ext := artifact.Format
	if f, ok := platform.LookupFormat(artifact.Format); ok {
		ext = f.Extension
	}
	stem := "micrec-" + artifact.StartedAt.Local().Format("20060102-150405")
	if token := fileutil.SanitizeToken(label); token != "" {
		stem += "-" + token
	}
	name := stem + "." + ext
	return filepath.Join(cfg.Paths.OutputDir, name), nil
}

func writeArtifact(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}
	if err := fileutil.WriteFileVerified(path, data, 0o644); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	return nil
}

// openHistory returns nil when the database cannot be opened; a recording is
// never lost because the history log is unavailable.
func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "session history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this session will not appear in `micrec history`"),
		)
		return nil
	}
	return store
}

func recordHistory(logger *slog.Logger, store *history.Store, entry history.Entry) {
	if store == nil {
		return
	}
	if _, err := store.Record(context.Background(), entry); err != nil {
		logging.WarnWithContext(logger, "failed to record session history", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldSessionID, entry.ID),
			logging.String(logging.FieldImpact, "this session will not appear in `micrec history`"),
		)
	}
}

func withHint(err error) error {
	if captureerr.Kind(err) == nil {
		return err
	}
	return fmt.Errorf("%w\nhint: %s", err, captureerr.Hint(err))
}
