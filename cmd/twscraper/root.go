package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"twscraper/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "twscraper",
	Short: "Collect an account's full post history from the timeline API",
	Long: `twscraper pages backwards through an account's timeline, normalizes every
post and saves the history as CSV, JSON or SQLite.

Features:
  - Bearer token storage in the system keychain or an encrypted file
  - Client-side rate limiting matched to the endpoint's request window
  - Retries with backoff for network, rate limit and server errors
  - Duplicate-free, newest-first output with a bounded number of requests`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if cmd.Name() == "collect" && !quiet {
			ui.PrintBanner()
		}
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.twscraper.yaml or ~/.config/twscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.SetVersionTemplate(`twscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags returns the persistent flags that map onto config keys
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	switch {
	case verbose:
		flags["log-level"] = "debug"
	case logLevel != "":
		flags["log-level"] = logLevel
	case quiet:
		flags["log-level"] = "error"
	}
	return flags
}
