// cmd/logout.go
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved API token from this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Authenticated() {
			fmt.Println("Not logged in.")
			return nil
		}

		cfg.APIToken = ""
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Println(color.GreenString("✓") + " Logged out. The token was removed from this machine only;")
		fmt.Println("  revoke it in your account settings if it may have leaked.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
