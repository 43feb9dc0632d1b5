package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vigil/internal/config"
	"vigil/internal/ipc"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a local video to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveVideoPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Upload(path)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Notice != "" {
					fmt.Fprintln(stdout, resp.Notice)
					return nil
				}
				job := resp.Job
				fmt.Fprintf(stdout, "Uploaded %s as job #%d\n", job.OriginalName, job.ID)
				if job.SourceFilename != "" && job.SourceFilename != job.OriginalName {
					fmt.Fprintf(stdout, "Stored as %s\n", job.SourceFilename)
				}
				if job.DurationSeconds > 0 {
					fmt.Fprintf(stdout, "Duration %s, %dx%d\n", formatSeconds(job.DurationSeconds), job.Width, job.Height)
				}
				return nil
			})
		},
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var jobID int64
	var depersonalize bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Submit the uploaded video for analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Process(jobID, depersonalize)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Notice != "" {
					fmt.Fprintln(stdout, resp.Notice)
					return nil
				}
				job := resp.Job
				fmt.Fprintf(stdout, "Job #%d submitted (%s)\n", job.ID, job.OriginalName)
				fmt.Fprintf(stdout, "Depersonalize: %s\n", yesNo(job.Depersonalize))
				fmt.Fprintln(stdout, "Track progress with `vigil job status`")
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&jobID, "job", 0, "Job ID to submit (defaults to the latest upload)")
	cmd.Flags().BoolVar(&depersonalize, "depersonalize", false, "Blur detected faces and license plates")
	return cmd
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Session job operations",
	}

	jobCmd.AddCommand(newJobStatusCommand(ctx))
	jobCmd.AddCommand(newJobListCommand(ctx))
	jobCmd.AddCommand(newJobClearCommand(ctx))

	return jobCmd
}

func newJobStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active or most recent job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobStatus()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Job == nil {
					fmt.Fprintln(stdout, "No jobs in this session")
					return nil
				}
				if asJSON {
					return writeJSON(cmd, resp.Job)
				}
				printJobDetail(cmd, resp.Job)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the job as JSON")
	return cmd
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List session jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobList(normalizeStatuses(statusFilter))
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(stdout, "No jobs in this session")
					return nil
				}
				if asJSON {
					return writeJSON(cmd, resp.Jobs)
				}
				rows := make([][]string, 0, len(resp.Jobs))
				for _, job := range resp.Jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						job.OriginalName,
						job.Status,
						fmt.Sprintf("%d%%", job.Progress),
						formatBytes(job.FileSizeBytes),
						job.CreatedAt,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Name", "Status", "Progress", "Size", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit jobs as JSON")
	return cmd
}

func newJobClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all session job records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobClear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", resp.Removed)
				return nil
			})
		},
	}
}

func printJobDetail(cmd *cobra.Command, job *ipc.Job) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	fmt.Fprintln(stdout, renderStatusLine("Job", statusInfo, fmt.Sprintf("#%d %s", job.ID, job.OriginalName), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Status", statusKindForJob(job.Status), job.Status, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%d%%", job.Progress), colorize))
	if job.OutputFilename != "" {
		fmt.Fprintln(stdout, renderStatusLine("Output", statusInfo, job.OutputFilename, colorize))
	}
	if job.DurationSeconds > 0 {
		detail := fmt.Sprintf("%s, %dx%d @ %.1f fps", formatSeconds(job.DurationSeconds), job.Width, job.Height, job.FPS)
		fmt.Fprintln(stdout, renderStatusLine("Video", statusInfo, detail, colorize))
	}
	if job.FileSizeBytes > 0 {
		fmt.Fprintln(stdout, renderStatusLine("Size", statusInfo, formatBytes(job.FileSizeBytes), colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Depersonalize", statusInfo, yesNo(job.Depersonalize), colorize))
	if job.ErrorMessage != "" {
		fmt.Fprintln(stdout, renderStatusLine("Error", statusError, job.ErrorMessage, colorize))
	}
}

func normalizeStatuses(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func resolveVideoPath(arg string) (string, error) {
	expanded, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", fmt.Errorf("resolve video path: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve video path: %w", err)
	}
	return abs, nil
}
