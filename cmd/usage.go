// cmd/usage.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linguara-ai/linguara-cli/internal/usage"
)

var usageOffline bool

// usageCmd represents the usage command
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show model token usage and estimated cost",
	Long: `Fetches usage records from the backend into a local cache, then prints
per-operation summaries. Interchangeable work (dictionary lookups) is
merged per model; each article generation is listed on its own.

With --offline the backend is not contacted and only cached records are
shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := usage.OpenStore(cfg.UsageDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		if !usageOffline {
			client, _, err := newAPIClient()
			if err != nil {
				return err
			}
			puller := usage.NewPuller(usage.PullerConfig{
				Store:   store,
				FetchFn: client.ListUsage,
				LogFn:   logFn,
			})
			if _, err := puller.PullOnce(cmd.Context()); err != nil {
				// Stale data beats no data; fall back to the cache
				logFn("warning", err.Error())
			}
		}

		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No usage recorded yet.")
			return nil
		}

		printUsageTable(usage.Aggregate(records))
		return nil
	},
}

func printUsageTable(rows []usage.Aggregated) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("OPERATION\tMODEL\tCALLS\tPROMPT\tCOMPLETION\tTOTAL\tCOST"))

	var totalTokens int64
	var totalCost float64
	for _, row := range rows {
		name := row.Operation
		if row.DisplayName != "" {
			name = fmt.Sprintf("%s (%s)", row.Operation, row.DisplayName)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t$%.4f\n",
			name, row.Model, row.Records,
			row.PromptTokens, row.CompletionTokens, row.TotalTokens,
			row.EstimatedCost)
		totalTokens += row.TotalTokens
		totalCost += row.EstimatedCost
	}

	fmt.Fprintf(w, "\t\t\t\t\t%d\t$%.4f\n", totalTokens, totalCost)
	w.Flush()
}

func init() {
	usageCmd.Flags().BoolVar(&usageOffline, "offline", false, "Use only cached records, do not contact the backend")
	rootCmd.AddCommand(usageCmd)
}
