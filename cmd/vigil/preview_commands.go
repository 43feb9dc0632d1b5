package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vigil/internal/ipc"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Live camera preview sessions",
	}

	previewCmd.AddCommand(newPreviewOpenCommand(ctx))
	previewCmd.AddCommand(newPreviewCloseCommand(ctx))
	previewCmd.AddCommand(newPreviewRefreshCommand(ctx))
	previewCmd.AddCommand(newPreviewStatusCommand(ctx))

	return previewCmd
}

func newPreviewOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <camera-id>",
		Short: "Open a preview session for a camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cameraID, err := parseCameraID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PreviewOpen(cameraID)
				if err != nil {
					return err
				}
				printSession(cmd, &resp.Session)
				return nil
			})
		},
	}
}

func newPreviewCloseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "close <camera-id>",
		Short: "Dismiss a camera's preview session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cameraID, err := parseCameraID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.PreviewClose(cameraID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Preview closed for camera %d\n", cameraID)
				return nil
			})
		},
	}
}

func newPreviewRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <camera-id>",
		Short: "Re-run the stream/snapshot ladder for an open session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cameraID, err := parseCameraID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PreviewRefresh(cameraID)
				if err != nil {
					return err
				}
				if resp.Session == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "No open preview for camera %d\n", cameraID)
					return nil
				}
				printSession(cmd, resp.Session)
				return nil
			})
		},
	}
}

func newPreviewStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the camera panel and open sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PreviewStatus()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Cameras", colorize) {
					fmt.Fprintln(stdout, line)
				}
				if len(resp.Cameras) == 0 {
					fmt.Fprintln(stdout, "No cameras configured")
				} else {
					for _, camera := range resp.Cameras {
						kind := statusError
						if camera.Online {
							kind = statusOK
						}
						fmt.Fprintln(stdout, renderStatusLine(camera.Name, kind, onlineLabel(camera.Online), colorize))
					}
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Sessions", colorize) {
					fmt.Fprintln(stdout, line)
				}
				if len(resp.Sessions) == 0 {
					fmt.Fprintln(stdout, "No open preview sessions")
					return nil
				}
				rows := make([][]string, 0, len(resp.Sessions))
				for _, session := range resp.Sessions {
					rows = append(rows, []string{
						strconv.FormatInt(session.CameraID, 10),
						session.CameraName,
						session.Mode,
						yesNo(session.HasSnapshot),
						session.LastError,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Camera", "Mode", "Snapshot", "Last Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <camera-id>",
		Short: "Capture a still image from an open preview session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cameraID, err := parseCameraID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Snapshot(cameraID)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Path == "" {
					fmt.Fprintf(stdout, "No open preview for camera %d\n", cameraID)
					return nil
				}
				fmt.Fprintf(stdout, "Snapshot written to %s\n", resp.Path)
				return nil
			})
		},
	}
}

func printSession(cmd *cobra.Command, session *ipc.PreviewSession) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	fmt.Fprintln(stdout, renderStatusLine("Camera", statusInfo, fmt.Sprintf("#%d %s", session.CameraID, session.CameraName), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Mode", statusKindForMode(session.Mode), session.Mode, colorize))
	if session.StreamURL != "" {
		fmt.Fprintln(stdout, renderStatusLine("Stream", statusInfo, session.StreamURL, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Snapshot", statusInfo, yesNo(session.HasSnapshot), colorize))
	if session.LastError != "" {
		fmt.Fprintln(stdout, renderStatusLine("Last Error", statusWarn, session.LastError, colorize))
	}
}

func statusKindForMode(mode string) statusKind {
	switch mode {
	case "stream":
		return statusOK
	case "snapshot":
		return statusWarn
	case "offline":
		return statusError
	default:
		return statusInfo
	}
}

func parseCameraID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid camera id %q", arg)
	}
	return id, nil
}
