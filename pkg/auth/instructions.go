package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide prints step-by-step instructions for obtaining an app-only
// bearer token
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 80)
	lines := []string{
		rule,
		"📚 BEARER TOKEN GUIDE",
		rule,
		"",
		"The timeline API needs an app-only bearer token.",
		"",
		"🔧 STEP 1: Open the developer portal",
		"   - Go to https://developer.twitter.com/en/portal/dashboard",
		"   - Sign in and create a Project and an App if you have none",
		"",
		"🔑 STEP 2: Generate the token",
		"   - Open your App, then 'Keys and tokens'",
		"   - Under 'Authentication Tokens', generate the Bearer Token",
		"   - It is shown once; copy it right away",
		"",
		"💾 STEP 3: Save it",
		"   - Run: twscraper auth login",
		"   - Or export TWSCRAPER_BEARER_TOKEN=<token>",
		"",
		"💡 TIPS:",
		"   • The token starts with AAAA and is usually over 100 characters",
		"   • Tokens can be revoked and regenerated from the same page",
		"   • The user timeline endpoint allows 900 requests per 15 minutes",
		"",
		"⚠️  SECURITY WARNING:",
		"   • Anyone holding the token can spend your API quota",
		"   • This tool stores it in the system keychain or an encrypted file",
		"",
		rule,
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// ShowQuickTokenGuide prints a one-line reminder
func ShowQuickTokenGuide(w io.Writer) {
	fmt.Fprintln(w, "🔑 Developer portal → your App → Keys and tokens → Bearer Token (type 'help' for details)")
}
