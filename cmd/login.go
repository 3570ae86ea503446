// cmd/login.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/linguara-ai/linguara-cli/internal/api"
)

var loginTokenFlag string

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate this machine with your Linguara account",
	Long: `Saves a personal API token for this machine. Create a token in your
Linguara account settings, then paste it when prompted (input is hidden),
or pass it with --token for scripted use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		token := loginTokenFlag
		if token == "" {
			fmt.Print("Paste your Linguara API token: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("could not read token: %w", err)
			}
			token = strings.TrimSpace(string(raw))
		}
		if token == "" {
			return fmt.Errorf("no token provided")
		}

		// Verify the token before saving it
		client := api.NewClient(api.ClientConfig{
			BaseURL:   cfg.APIURL,
			Token:     token,
			DebugFunc: Debug,
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		account, err := client.Me(ctx)
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return fmt.Errorf("the token was rejected by %s", cfg.APIURL)
			}
			return fmt.Errorf("could not verify token: %w", err)
		}

		cfg.APIToken = token
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Println(color.GreenString("✓") + " Logged in as " + color.CyanString(account.Email))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginTokenFlag, "token", "", "API token (skips the interactive prompt)")
	rootCmd.AddCommand(loginCmd)
}
