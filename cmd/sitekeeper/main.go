package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	APIUrl     string
	APITimeout time.Duration
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "sitekeeper",
		Short: "Site process supervision tool",
		Long: `Sitekeeper starts, stops and supervises long-running site processes,
in tmux sessions when tmux is installed and as detached background
processes otherwise.

Examples:
  sitekeeper serve --config=config.toml  # Start daemon
  sitekeeper start myblog                # Start a site
  sitekeeper status                      # Status of every site
  sitekeeper logs myblog --follow        # Stream the site log`,
	}

	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&globalFlags.APIUrl, "api-url", "http://localhost:8420/api", "daemon URL")
	root.PersistentFlags().DurationVar(&globalFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		createServeCommand(globalFlags),
		createStartCommand(globalFlags),
		createStopCommand(globalFlags),
		createRestartCommand(globalFlags),
		createReloadCommand(globalFlags),
		createStatusCommand(globalFlags),
		createLogsCommand(globalFlags),
		createAddCommand(globalFlags),
		createRemoveCommand(globalFlags),
	)

	return root
}
