// cmd/helpers.go
package cmd

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/linguara-ai/linguara-cli/internal/api"
	"github.com/linguara-ai/linguara-cli/internal/config"
)

// loadConfig reads the config file and applies the --api-url flag override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURLFlag != "" {
		cfg.APIURL = apiURLFlag
	}
	return cfg, nil
}

// newAPIClient builds an authenticated API client from the saved config.
func newAPIClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Authenticated() {
		return nil, nil, fmt.Errorf("not logged in. Run 'linguara login' first")
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL:   cfg.APIURL,
		Token:     cfg.APIToken,
		DebugFunc: Debug,
	})
	return client, cfg, nil
}

// logFn adapts the cmd layer's output to the LogFn callback used by the
// library packages.
func logFn(level, msg string) {
	switch level {
	case "warning":
		fmt.Println(color.YellowString("⚠ %s", msg))
	case "error":
		fmt.Println(color.RedString("✗ %s", msg))
	default:
		Debug("%s", msg)
	}
}
