package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"twscraper/pkg/auth"
	"twscraper/pkg/config"
	"twscraper/pkg/logger"
	"twscraper/pkg/twitter"
	"twscraper/pkg/ui"
)

var checkHandle string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored bearer tokens",
	Long: `Manage API bearer tokens.

Tokens are stored, in order of preference, in:
  - the system keychain
  - an encrypted file (AES-GCM, PBKDF2 derived key)
The TWSCRAPER_BEARER_TOKEN environment variable is read as the token named
"default" but never written.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a bearer token",
	Long: `Store a bearer token under a name ("default" when omitted). The token is
read without echo.`,
	Example: `  # Store the default token
  twscraper auth login

  # Store a second token and check it against an account
  twscraper auth login research --check NASA`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"list"},
	Short:   "Show stored tokens, masked",
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, statusCmd)

	loginCmd.Flags().StringVar(&checkHandle, "check", "", "fetch one post of this account to verify the token")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultAccountName
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	if !ui.IsQuietMode() {
		auth.ShowTokenGuide(out)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(out, "\n⚠️  A token named '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	var token string
	for {
		fmt.Fprint(out, "\n🔐 Bearer token (hidden): ")
		token, err = readSecret(reader, out)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		if problem := checkTokenShape(token); problem != "" {
			fmt.Fprintf(out, "\n❌ %s\n", problem)
			auth.ShowQuickTokenGuide(out)
			fmt.Fprint(out, "Try again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				return fmt.Errorf("no token stored")
			}
			continue
		}
		break
	}

	if checkHandle != "" {
		ui.PrintInfo("Checking token against", "@"+checkHandle)
		if err := verifyToken(cmd.Context(), token, checkHandle); err != nil {
			return fmt.Errorf("token check failed: %w", err)
		}
		ui.PrintSuccess("Token accepted by the API")
	}

	if err := manager.Store(&auth.Account{Name: name, BearerToken: token}); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("\n✓ Token '%s' stored", name))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultAccountName
	if len(args) > 0 {
		name = args[0]
	}
	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("✓ Token '%s' removed", name))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	printAccounts(cmd.OutOrStdout(), accounts)
	return nil
}

func printAccounts(w io.Writer, accounts []*auth.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No stored tokens. Run 'twscraper auth login' to add one.")
		return
	}

	fmt.Fprintf(w, "%-16s %-16s %s\n", "NAME", "TOKEN", "UPDATED")
	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Fprintf(w, "%-16s %-16s %s\n", masked.Name, masked.BearerToken, masked.LastModified.Format(time.RFC3339))
	}
	if os.Getenv(auth.TokenEnv) != "" {
		fmt.Fprintf(w, "\n%s is set and overrides the stored default.\n", auth.TokenEnv)
	}
}

// checkTokenShape returns a complaint about an implausible token, or ""
func checkTokenShape(token string) string {
	switch {
	case token == "":
		return "The token is empty."
	case strings.ContainsAny(token, " \t"):
		return "The token must not contain spaces."
	case len(token) < 40:
		return "That looks too short for a bearer token."
	}
	return ""
}

// verifyToken fetches the newest post of handle with token
func verifyToken(ctx context.Context, token, handle string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.DefaultConfig()
	cfg.API.BearerToken = token
	cfg.Retry.MaxAttempts = 1
	if env := os.Getenv("TWSCRAPER_API_BASE_URL"); env != "" {
		cfg.API.BaseURL = env
	}

	client, err := twitter.NewClient(cfg, logger.NewNopLogger())
	if err != nil {
		return err
	}
	_, err = client.FetchTimeline(ctx, handle, 1, nil)
	return err
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
