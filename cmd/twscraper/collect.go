package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"twscraper/pkg/auth"
	"twscraper/pkg/config"
	"twscraper/pkg/logger"
	"twscraper/pkg/scraper"
	"twscraper/pkg/twitter"
	"twscraper/pkg/ui"
	"twscraper/pkg/ui/tui"
)

var (
	pageSize      int
	maxIterations int
	bearerToken   string
	baseURL       string
	outputDir     string
	outputFile    string
	outputFormat  string
	skipMalformed bool
	maxAttempts   int
	accountName   string
	useTUI        bool
	notify        bool
)

var collectCmd = &cobra.Command{
	Use:   "collect <handle>",
	Short: "Collect an account's post history",
	Long: `Collect every post the timeline API still serves for an account, newest
first, and write it to the configured sink.

A bearer token is required. It is taken, in order, from --bearer-token,
TWSCRAPER_BEARER_TOKEN or the config file, and otherwise from the credential
store (see 'twscraper auth login').`,
	Example: `  # Collect into NASA_tweets.csv
  twscraper collect NASA

  # Write a JSON dictionary into ./data
  twscraper collect @NASA --format dict --output-dir ./data

  # Use a stored token and skip records the API returns malformed
  twscraper collect NASA --account research --skip-malformed

  # Stop after 10 older pages
  twscraper collect NASA --max-iterations 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	f := collectCmd.Flags()
	f.IntVar(&pageSize, "page-size", config.MaxPageSize, "posts per request (at most 200)")
	f.IntVar(&maxIterations, "max-iterations", config.DefaultMaxIterations, "maximum number of older pages to request")
	f.StringVar(&bearerToken, "bearer-token", "", "API bearer token")
	f.StringVar(&baseURL, "base-url", "", "API base URL")
	f.StringVar(&outputDir, "output-dir", "", "output directory (default: current directory)")
	f.StringVarP(&outputFile, "output", "o", "", "output file name (default: <handle>_tweets.<ext>)")
	f.StringVarP(&outputFormat, "format", "f", "", "output format: csv, dict or sqlite")
	f.BoolVar(&skipMalformed, "skip-malformed", false, "log and skip malformed posts instead of failing")
	f.IntVar(&maxAttempts, "max-attempts", 3, "attempts per page request")
	f.StringVarP(&accountName, "account", "a", "", "use a stored token by name")
	f.BoolVar(&useTUI, "tui", false, "show an interactive progress view")
	f.BoolVar(&notify, "notify", false, "send a desktop notification when done")
}

// collectFlags returns the flags the user set, keyed like the config layer
// expects
func collectFlags(cmd *cobra.Command, args []string) map[string]interface{} {
	flags := globalFlags()
	if len(args) > 0 {
		flags["handle"] = args[0]
	}

	changed := cmd.Flags().Changed
	if changed("page-size") {
		flags["page-size"] = pageSize
	}
	if changed("max-iterations") {
		flags["max-iterations"] = maxIterations
	}
	if changed("bearer-token") {
		flags["bearer-token"] = bearerToken
	}
	if changed("base-url") {
		flags["base-url"] = baseURL
	}
	if changed("output-dir") {
		flags["output-dir"] = outputDir
	}
	if changed("output") {
		flags["output"] = outputFile
	}
	if changed("format") {
		flags["format"] = outputFormat
	}
	if changed("skip-malformed") {
		flags["skip-malformed"] = skipMalformed
	}
	if changed("max-attempts") {
		flags["max-attempts"] = maxAttempts
	}
	return flags
}

// tokenSource is the part of auth.Manager collect needs
type tokenSource interface {
	ResolveToken(name string) (string, error)
}

// resolveToken fills cfg.API.BearerToken from the credential store unless a
// token was configured directly. A named account always wins.
func resolveToken(cfg *config.Config, store tokenSource, account string) error {
	if account == "" && cfg.API.BearerToken != "" {
		return nil
	}
	token, err := store.ResolveToken(account)
	if err != nil {
		if account != "" {
			return fmt.Errorf("no stored token named %q: %w", account, err)
		}
		return fmt.Errorf("no bearer token found; run 'twscraper auth login' or set %s: %w", auth.TokenEnv, err)
	}
	cfg.API.BearerToken = token
	return nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd, args))
	if err != nil {
		return err
	}
	cfg.Account.Handle = twitter.SanitizeHandle(cfg.Account.Handle)

	if useTUI && cfg.Logging.File == "" {
		// keep console logs from tearing the progress view
		cfg.Logging.Level = "error"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("twscraper starting")

	if cfg.API.BearerToken == "" || accountName != "" {
		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		if err := resolveToken(cfg, manager, accountName); err != nil {
			return err
		}
	}

	s, err := scraper.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *scraper.Result
	if useTUI {
		result, err = collectWithTUI(ctx, s, cfg)
	} else {
		ui.PrintInfo("Account", "@"+cfg.Account.Handle)
		result, err = s.Run(ctx, cfg.Account.Handle)
	}

	notifier := ui.NewNotifier(notify)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Collection cancelled; no output was written")
			return err
		}
		notifier.SendError("Collection failed", err.Error())
		return err
	}

	if !useTUI {
		ui.PrintSummary(ui.Summary{
			Handle:   result.Handle,
			Posts:    len(result.Posts),
			Skipped:  result.Skipped,
			Location: result.Location,
			Duration: result.Duration(),
		})
	}
	notifier.SendSuccess("Collection complete", fmt.Sprintf("%d posts from @%s", len(result.Posts), result.Handle))
	return nil
}

// collectWithTUI runs the collection in the background while the progress
// view owns the terminal
func collectWithTUI(ctx context.Context, s *scraper.Scraper, cfg *config.Config) (*scraper.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := tui.New(cfg.Account.Handle, cfg.Account.MaxIterations, cancel, nil)
	s.OnPage(view.Page)

	type outcome struct {
		result *scraper.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.Run(ctx, cfg.Account.Handle)
		if err != nil {
			view.Done(0, 0, "", err)
		} else {
			view.Done(len(result.Posts), result.Skipped, result.Location, nil)
		}
		done <- outcome{result, err}
	}()

	if err := view.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress view failed: %w", err)
	}
	out := <-done
	return out.result, out.err
}
