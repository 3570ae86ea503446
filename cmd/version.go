// cmd/version.go
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linguara-ai/linguara-cli/internal/update"
)

// Version will be set at build time
var Version = "dev"

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of the Linguara CLI",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Linguara CLI version %s\n", Version)

		if !versionCheck {
			return nil
		}

		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		check, err := update.CheckLatest(cmd.Context(), client, Version)
		if err != nil {
			return err
		}
		if check.Outdated {
			fmt.Println(color.YellowString("A newer release is available: %s", check.Latest))
			if check.URL != "" {
				fmt.Println("  " + check.URL)
			}
		} else {
			fmt.Println(color.GreenString("✓") + " Up to date")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check for a newer release")
	rootCmd.AddCommand(versionCmd)
}
