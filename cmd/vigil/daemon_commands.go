package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vigil/internal/daemonctl"
	"vigil/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the vigil daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the vigil daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the vigil daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			client, err := ctx.dialClient()
			if err != nil {
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusError, "not running", colorize))
				return nil
			}
			defer client.Close()

			statusResp, err := client.Status()
			if err != nil {
				return fmt.Errorf("daemon status: %w", err)
			}
			printStatus(cmd, statusResp, colorize)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func printStatus(cmd *cobra.Command, statusResp *ipc.StatusResponse, colorize bool) {
	stdout := cmd.OutOrStdout()

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	runningKind := statusWarn
	runningMessage := "idle"
	if statusResp.Running {
		runningKind = statusOK
		runningMessage = "running"
	}
	fmt.Fprintln(stdout, renderStatusLine("Daemon", runningKind, runningMessage, colorize))
	if statusResp.PID > 0 {
		fmt.Fprintln(stdout, renderStatusLine("PID", statusInfo, strconv.Itoa(statusResp.PID), colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Backend", statusInfo, statusResp.BackendURL, colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Active Job", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if statusResp.ActiveJob == nil {
		fmt.Fprintln(stdout, renderStatusLine("Job", statusInfo, "none", colorize))
	} else {
		job := statusResp.ActiveJob
		fmt.Fprintln(stdout, renderStatusLine("Job", statusInfo, fmt.Sprintf("#%d %s", job.ID, job.OriginalName), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Status", statusKindForJob(job.Status), job.Status, colorize))
		fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%d%%", job.Progress), colorize))
		if job.ErrorMessage != "" {
			fmt.Fprintln(stdout, renderStatusLine("Error", statusError, job.ErrorMessage, colorize))
		}
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Session", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := buildSessionRows(statusResp.Session)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Session is empty")
		return
	}
	fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func statusKindForJob(status string) statusKind {
	switch status {
	case "complete":
		return statusOK
	case "failed", "timed_out":
		return statusError
	default:
		return statusInfo
	}
}

var sessionStatusOrder = []string{
	"total", "active", "complete", "failed", "timed_out",
}

func buildSessionRows(counts map[string]int) [][]string {
	rows := make([][]string, 0, len(counts))
	seen := make(map[string]bool, len(counts))
	for _, status := range sessionStatusOrder {
		if count, ok := counts[status]; ok && count > 0 {
			rows = append(rows, []string{status, strconv.Itoa(count)})
			seen[status] = true
		}
	}
	for status, count := range counts {
		if !seen[status] && count > 0 {
			rows = append(rows, []string{status, strconv.Itoa(count)})
		}
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
