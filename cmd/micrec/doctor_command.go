package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"micrec/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg, the platform, input devices, and micrec directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.RunDiagnostics(cmd.Context(), cfg.Encoder.Path)
			checks := preflight.RunAll(cmd.Context(), cfg)

			if jsonOutput {
				if err := writeJSON(cmd, map[string]any{
					"report": report,
					"checks": checks,
				}); err != nil {
					return err
				}
			} else {
				renderDoctor(cmd, report, checks)
			}

			if !report.OK() || preflight.Failed(checks) {
				return fmt.Errorf("doctor found problems; see above")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func renderDoctor(cmd *cobra.Command, report preflight.Report, checks []preflight.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	var lines []string

	lines = append(lines, renderSectionHeader("Encoder", colorize)...)
	if report.Availability.Available {
		detail := fmt.Sprintf("%s (version %s, found via %s)", report.Availability.Path, report.Availability.Version, report.Availability.Source)
		lines = append(lines, renderStatusLine("ffmpeg", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("ffmpeg", statusError, "not available", colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Platform", colorize)...)
	if report.Commands.Valid() {
		lines = append(lines, renderStatusLine("Input format", statusOK, fmt.Sprintf("%s (%s)", report.Commands.InputFormat, report.Commands.OS), colorize))
	} else {
		lines = append(lines, renderStatusLine("Input format", statusError, "unresolved", colorize))
	}
	recommended := report.RecommendedDevice
	if recommended == "" {
		recommended = "none"
	}
	lines = append(lines, renderStatusLine("Recommended", statusInfo, recommended, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Devices", colorize)...)
	if len(report.Devices) == 0 {
		lines = append(lines, statusIndent+"(none detected)")
	} else {
		rows := make([][]string, 0, len(report.Devices))
		for _, d := range report.Devices {
			rows = append(rows, []string{yesNo(d.IsDefault), d.ID, d.Name})
		}
		lines = append(lines, renderTable([]string{"Default", "Address", "Name"}, rows, nil, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Paths", colorize)...)
	for _, check := range checks {
		lines = append(lines, renderCheck(check, colorize))
	}

	if len(report.Warnings) > 0 || len(report.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Problems", colorize)...)
		for _, e := range report.Errors {
			lines = append(lines, renderStatusLine("Error", statusError, e, colorize))
		}
		for _, w := range report.Warnings {
			lines = append(lines, renderStatusLine("Warning", statusWarn, w, colorize))
		}
		for _, h := range report.Hints {
			lines = append(lines, renderStatusLine("Hint", statusInfo, h, colorize))
		}
	}

	fmt.Fprintln(out, strings.Join(lines, "\n"))
}
