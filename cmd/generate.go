// cmd/generate.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linguara-ai/linguara-cli/internal/api"
	"github.com/linguara-ai/linguara-cli/internal/generation"
	"github.com/linguara-ai/linguara-cli/internal/poll"
	"github.com/linguara-ai/linguara-cli/internal/stream"
	"github.com/linguara-ai/linguara-cli/internal/ui"
)

var (
	genLanguage string
	genLevel    string
	genLength   string
	genTopic    string
	genForce    bool
	genFollow   bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new reading article",
	Long: `Requests a new article from the generation backend and tracks the job
until the article is ready, then prints it.

If an equivalent generation is already queued or running, you will be
asked whether to adopt the existing job, force a fresh one, or abort.`,
	Example: `  linguara generate --language German --level B2 --length 500 --topic "AI"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAPIClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		spinner := ui.NewSpinner()
		done := make(chan error, 1)

		poller := poll.New(poll.PollerConfig{
			Fetcher:  client,
			Interval: cfg.PollInterval,
			LogFn:    logFn,
		})

		coordinator := generation.New(generation.Config{
			Backend: client,
			Poller:  poller,
			Callbacks: generation.Callbacks{
				OnProgress: func(snap poll.Snapshot) {
					spinner.Update(ui.SnapshotLine(snap))
				},
				OnReconciled: func(article *api.Article, content string) {
					spinner.Success("Article ready")
					printArticle(article, content)
					done <- nil
				},
				OnFailed: func(err error) {
					spinner.Fail("Generation failed")
					done <- err
				},
			},
		})

		inputs := generation.Inputs{
			Language: genLanguage,
			Level:    genLevel,
			Length:   genLength,
			Topic:    genTopic,
		}

		spinner.Start("Submitting generation request...")
		err = coordinator.Start(ctx, inputs, genForce)

		var conflict *api.ConflictError
		if errors.As(err, &conflict) {
			spinner.Stop("")
			if err := resolveConflict(ctx, coordinator, conflict.Existing); err != nil {
				return err
			}
			if trackingNeeded(coordinator) {
				spinner.Start("Tracking generation...")
			}
		} else if err != nil {
			spinner.Stop("")
			return err
		}

		// The poller is authoritative; the stream only improves progress
		// latency when the backend supports it.
		if genFollow {
			go followProgress(ctx, cfg.APIURL, cfg.APIToken, coordinator, spinner)
		}

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			coordinator.Cancel()
			return ctx.Err()
		}
	},
}

// resolveConflict asks the user what to do about an existing equivalent job.
func resolveConflict(ctx context.Context, coordinator *generation.Coordinator, existing api.ExistingJob) error {
	fmt.Println(color.YellowString("⚠ An equivalent generation already exists:"))
	fmt.Printf("  job %s, status %s", existing.ID, existing.Status)
	if existing.Status == "running" || existing.Status == "queued" {
		fmt.Printf(", %d%% done", existing.Progress)
	}
	if existing.Error != "" {
		fmt.Printf(", error: %s", existing.Error)
	}
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("[a]dopt the existing job, [f]orce a new one, or [q]uit? ")
		line, err := reader.ReadString('\n')
		if err != nil {
			coordinator.Abort()
			return fmt.Errorf("could not read answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "adopt":
			return coordinator.Adopt(ctx)
		case "f", "force":
			return coordinator.Force(ctx)
		case "q", "quit", "":
			if err := coordinator.Abort(); err != nil {
				return err
			}
			return fmt.Errorf("generation aborted")
		}
	}
}

// trackingNeeded reports whether a resolved conflict left a job still in
// flight. Adopting an already-finished job reconciles before returning, so
// there is nothing left for the spinner to track.
func trackingNeeded(coordinator *generation.Coordinator) bool {
	return coordinator.State() != generation.StateIdle
}

// followProgress streams progress events into the spinner. Falls back
// silently; the poller still delivers progress at its own cadence.
func followProgress(ctx context.Context, apiURL, token string, coordinator *generation.Coordinator, spinner *ui.Spinner) {
	jobID := coordinator.JobID()
	if jobID == "" {
		return
	}

	follower := stream.NewFollower(stream.FollowerConfig{
		BaseURL:   apiURL,
		Token:     token,
		DebugFunc: Debug,
	})

	err := follower.Follow(ctx, jobID, poll.Callbacks{
		OnChange: func(snap poll.Snapshot) {
			spinner.Update(ui.SnapshotLine(snap))
		},
	})
	if err != nil {
		Debug("stream fallback for job %s: %v", jobID, err)
	}
}

func printArticle(article *api.Article, content string) {
	fmt.Println()
	fmt.Println(color.New(color.Bold).Sprint(article.Topic))
	fmt.Printf("%s · %s · %s words · %s\n",
		article.Language, article.Level, article.Length, article.Status)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println(content)
}

func init() {
	generateCmd.Flags().StringVarP(&genLanguage, "language", "l", "", "Target language (e.g., German)")
	generateCmd.Flags().StringVar(&genLevel, "level", "", "CEFR proficiency level (e.g., B2)")
	generateCmd.Flags().StringVar(&genLength, "length", "", "Approximate word count (e.g., 500)")
	generateCmd.Flags().StringVarP(&genTopic, "topic", "t", "", "Article topic")
	generateCmd.Flags().BoolVar(&genForce, "force", false, "Generate even if an equivalent job exists")
	generateCmd.Flags().BoolVar(&genFollow, "follow", false, "Stream progress over WebSocket when available")
	rootCmd.AddCommand(generateCmd)
}
