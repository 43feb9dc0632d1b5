package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vigil/internal/ipc"
)

func newCamerasCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cameras",
		Short: "List configured cameras with their online state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Cameras()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Cameras) == 0 {
					fmt.Fprintln(stdout, "No cameras configured")
					return nil
				}
				if asJSON {
					return writeJSON(cmd, resp.Cameras)
				}
				rows := make([][]string, 0, len(resp.Cameras))
				for _, camera := range resp.Cameras {
					rows = append(rows, []string{
						strconv.FormatInt(camera.ID, 10),
						camera.Name,
						fmt.Sprintf("%s:%d", camera.IPAddress, camera.Port),
						yesNo(camera.Enabled),
						onlineLabel(camera.Online),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Name", "Address", "Enabled", "Online"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit cameras as JSON")
	return cmd
}

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List recorded videos with detection counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Videos()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Videos) == 0 {
					fmt.Fprintln(stdout, "No recorded videos")
					return nil
				}
				if asJSON {
					return writeJSON(cmd, resp.Videos)
				}
				rows := make([][]string, 0, len(resp.Videos))
				for _, video := range resp.Videos {
					rows = append(rows, []string{
						strconv.FormatInt(video.ID, 10),
						video.Filename,
						video.CameraName,
						formatSeconds(video.Duration),
						strconv.Itoa(video.FacesDetected),
						strconv.Itoa(video.PlatesDetected),
						yesNo(video.Depersonalized),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Filename", "Camera", "Duration", "Faces", "Plates", "Depersonalized"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit videos as JSON")
	return cmd
}

func newUploadsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List videos uploaded to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UploadedVideos()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Videos) == 0 {
					fmt.Fprintln(stdout, "No uploaded videos")
					return nil
				}
				if asJSON {
					return writeJSON(cmd, resp.Videos)
				}
				rows := make([][]string, 0, len(resp.Videos))
				for _, video := range resp.Videos {
					rows = append(rows, []string{
						video.Filename,
						formatBytes(video.FileSize),
						video.UploadedAt,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Filename", "Size", "Uploaded"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit uploads as JSON")
	return cmd
}

func onlineLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
