package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"micrec/internal/devices"
	"micrec/internal/logging"
	"micrec/internal/platform"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List microphone input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			list, err := devices.Detect(cmd.Context(), cfg.Encoder.Path)
			if err != nil {
				return withHint(err)
			}
			if jsonOutput {
				if list == nil {
					list = []devices.Descriptor{}
				}
				return writeJSON(cmd, list)
			}
			printDevices(cmd.OutOrStdout(), list)
			if !watch {
				return nil
			}
			return watchDevices(cmd, logger, cfg.Encoder.Path)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and reprint the list when sound devices change (Linux)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the device list as JSON")
	cmd.MarkFlagsMutuallyExclusive("watch", "json")
	return cmd
}

func printDevices(out io.Writer, list []devices.Descriptor) {
	if len(list) == 0 {
		fallback := "the platform default device"
		if commands, err := platform.Current(); err == nil {
			fallback = fmt.Sprintf("%q", commands.FallbackDevice)
		}
		fmt.Fprintf(out, "No input devices found; recording would use %s\n", fallback)
		return
	}
	rows := make([][]string, 0, len(list))
	for _, d := range list {
		def := ""
		if d.IsDefault {
			def = "*"
		}
		rows = append(rows, []string{def, d.ID, d.Name})
	}
	fmt.Fprintln(out, renderTable([]string{"Default", "Address", "Name"}, rows, nil, shouldColorize(out)))
}

func watchDevices(cmd *cobra.Command, logger *slog.Logger, encoderPath string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	watcher := devices.NewWatcher(logging.NewComponentLogger(logger, "devices"), func(ctx context.Context, change devices.Change) {
		list, err := devices.Detect(ctx, encoderPath)
		if err != nil {
			logging.WarnWithContext(logger, "device re-enumeration failed", "device_enumeration_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "device list not refreshed"),
			)
			return
		}
		fmt.Fprintf(out, "\nSound device %s: %s\n", change.Action, change.Node)
		printDevices(out, list)
	})
	if err := watcher.Start(signalCtx); err != nil {
		if errors.Is(err, devices.ErrWatchUnsupported) {
			return fmt.Errorf("--watch: %w", err)
		}
		return fmt.Errorf("start device watcher: %w", err)
	}
	defer watcher.Stop()

	fmt.Fprintln(out, "Watching for sound device changes (press Ctrl-C to stop)")
	<-signalCtx.Done()
	return nil
}
