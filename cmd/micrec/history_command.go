package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"micrec/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent recording sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if entries == nil {
					entries = []history.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No recording sessions yet in %s\n", store.Path())
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					formatTimestamp(e.StartedAt),
					formatDuration(e.Duration),
					e.Format,
					formatBytes(e.Bytes),
					e.Device,
					e.Outcome(),
					e.OutputPath,
				})
			}
			headers := []string{"Started", "Length", "Format", "Size", "Device", "Outcome", "File"}
			aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignRight}
			fmt.Fprintln(out, renderTable(headers, rows, aligns, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of sessions to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print sessions as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recording session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("session %s not found", args[0])
			}
			if jsonOutput {
				return writeJSON(cmd, entry)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:   %s\n", entry.ID)
			fmt.Fprintf(out, "Started:   %s\n", formatTimestamp(entry.StartedAt))
			fmt.Fprintf(out, "Ended:     %s\n", formatTimestamp(entry.EndedAt))
			fmt.Fprintf(out, "Device:    %s\n", entry.Device)
			fmt.Fprintf(out, "Format:    %s\n", entry.Format)
			fmt.Fprintf(out, "Length:    %s\n", formatDuration(entry.Duration))
			fmt.Fprintf(out, "Size:      %s\n", formatBytes(entry.Bytes))
			fmt.Fprintf(out, "Outcome:   %s\n", entry.Outcome())
			if entry.Failed() {
				fmt.Fprintf(out, "Error:     %s\n", entry.ErrorMessage)
			}
			if entry.OutputPath != "" {
				fmt.Fprintf(out, "File:      %s\n", entry.OutputPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the session as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions older than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			store, err := openHistoryStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	return cmd
}

func openHistoryStore(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}
