// cmd/status.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linguara-ai/linguara-cli/internal/api"
	"github.com/linguara-ai/linguara-cli/internal/poll"
	"github.com/linguara-ai/linguara-cli/internal/ui"
)

var statusWatch bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of a generation job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAPIClient()
		if err != nil {
			return err
		}
		jobID := args[0]

		if !statusWatch {
			job, err := client.GetJob(cmd.Context(), jobID)
			if errors.Is(err, api.ErrNotFound) {
				fmt.Println("Job not found. It may have expired; check the article instead.")
				return nil
			}
			if err != nil {
				return err
			}
			printJob(poll.Normalize(jobID, job))
			return nil
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		spinner := ui.NewSpinner()
		spinner.Start("Fetching job status...")
		done := make(chan error, 1)

		poller := poll.New(poll.PollerConfig{
			Fetcher:  client,
			Interval: cfg.PollInterval,
			LogFn:    logFn,
		})
		sub := poller.Subscribe(ctx, jobID, poll.Callbacks{
			OnChange: func(snap poll.Snapshot) {
				spinner.Update(ui.SnapshotLine(snap))
			},
			OnComplete: func(snap poll.Snapshot) {
				spinner.Success("Job completed")
				done <- nil
			},
			OnError: func(snap poll.Snapshot) {
				spinner.Fail("Job failed: " + snap.Error)
				done <- fmt.Errorf("job %s failed", jobID)
			},
		})
		defer sub.Unsubscribe()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

func printJob(snap poll.Snapshot) {
	statusStr := string(snap.Status)
	switch snap.Status {
	case poll.StatusCompleted:
		statusStr = color.GreenString(statusStr)
	case poll.StatusError:
		statusStr = color.RedString(statusStr)
	case poll.StatusRunning:
		statusStr = color.CyanString(statusStr)
	}

	fmt.Printf("Job:      %s\n", snap.JobID)
	fmt.Printf("Status:   %s\n", statusStr)
	if snap.Status == poll.StatusRunning || snap.Status == poll.StatusQueued {
		fmt.Printf("Progress: %s\n", ui.ProgressBar(snap.Progress, 20))
	}
	if snap.Message != "" {
		fmt.Printf("Message:  %s\n", snap.Message)
	}
	if snap.Error != "" {
		fmt.Printf("Error:    %s\n", color.RedString(snap.Error))
	}
	if !snap.UpdatedAt.IsZero() {
		fmt.Printf("Updated:  %s\n", snap.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep polling until the job finishes")
	rootCmd.AddCommand(statusCmd)
}
