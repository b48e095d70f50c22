package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gamelib/internal/daemonctl"
	"gamelib/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the library daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: ctx.logLevel()})
		},
	}
}

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Control the background library daemon",
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.daemonClient()
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			opts := daemonctl.LaunchOptions{ConfigPath: ctx.configFlagValue(), LogLevel: ctx.logLevel()}
			result, err := daemonctl.EnsureStarted(cmd.Context(), client, exe, opts, 10*time.Second)
			if err != nil {
				return err
			}
			if result.AlreadyRunning {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon already running")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon started (pid %d)\n", result.PID)
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.daemonClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), cfg, client, 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(out, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		},
	}

	var jsonOut bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and library counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.daemonClient()
			if err != nil {
				return err
			}
			snap, err := daemonctl.BuildSnapshot(cmd.Context(), cfg, client)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, snap)
			}
			out := cmd.OutOrStdout()
			for _, line := range renderSnapshot(snap, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprint(out, renderStats(snap.Stats))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&jsonOut, "json", false, "Output status as JSON")

	daemonCmd.AddCommand(startCmd, stopCmd, statusCmd)
	return daemonCmd
}

func renderSnapshot(snap daemonctl.Snapshot, colorize bool) []string {
	lines := make([]string, 0, 4)
	if snap.Online {
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", snap.Daemon.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "not running", colorize))
	}
	lines = append(lines, renderStatusLine("Database", statusInfo, snap.Daemon.DatabasePath, colorize))
	if snap.Online {
		active := "idle"
		if len(snap.Daemon.ActiveEnrichments) > 0 {
			active = strings.Join(snap.Daemon.ActiveEnrichments, ", ")
		}
		lines = append(lines, renderStatusLine("Enrichment", statusInfo, active, colorize))
	}
	return lines
}
