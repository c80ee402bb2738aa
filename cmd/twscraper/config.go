package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"twscraper/pkg/auth"
	"twscraper/pkg/config"
	"twscraper/pkg/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage twscraper configuration.

Values are resolved in this order, highest first:
  - command line flags
  - TWSCRAPER_* environment variables (also read from .env files)
  - the configuration file
  - defaults`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file",
	Long: `Write an example configuration file, .twscraper.yaml in the current
directory unless --config names another path.`,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show [handle]",
	Short: "Show the resolved configuration, token masked",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate [handle]",
	Short: "Validate the resolved configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd, showCmd, validateCmd)

	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
}

const exampleConfig = `# twscraper configuration
#
# Every value can be overridden with a TWSCRAPER_* environment variable,
# for example TWSCRAPER_HANDLE or TWSCRAPER_BEARER_TOKEN.

account:
  # Account to collect (without @)
  handle: ""
  # Posts per request; the API caps this at 200
  page_size: 200
  # Older pages to request after the newest one
  max_iterations: 900

api:
  base_url: "https://api.twitter.com"
  # Prefer 'twscraper auth login' over storing the token here
  bearer_token: ""
  user_agent: "twscraper/1.0"
  timeout: 30s

rate_limit:
  # sliding, bucket or none
  strategy: sliding
  requests: 900
  window: 15m

retry:
  max_attempts: 3
  base_delay: 1s
  max_delay: 1m

output:
  directory: "."
  # Defaults to <handle>_tweets.csv, .json or .db
  filename: ""
  # csv, dict or sqlite
  format: csv
  # Log and skip malformed posts instead of failing the run
  skip_malformed: false

logging:
  level: info
  # JSON log file; console only when empty
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".twscraper.yaml"
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "1. Store a token with 'twscraper auth login'")
	fmt.Fprintln(cmd.OutOrStdout(), "2. Run 'twscraper config validate <handle>'")
	fmt.Fprintln(cmd.OutOrStdout(), "3. Collect with 'twscraper collect <handle>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile, handleFlags(args))
	if err != nil {
		return err
	}

	display := *cfg
	if display.API.BearerToken != "" {
		display.API.BearerToken = auth.MaskToken(display.API.BearerToken)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current configuration")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	ui.PrintInfo("Output path", cfg.OutputPath())
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile, handleFlags(args))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid:\n%w", err)
	}
	ui.PrintSuccess("✓ Configuration is valid")
	return nil
}

func handleFlags(args []string) map[string]interface{} {
	flags := globalFlags()
	if len(args) > 0 {
		flags["handle"] = args[0]
	}
	return flags
}
