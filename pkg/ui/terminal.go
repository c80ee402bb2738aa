package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Banner is printed at the top of interactive runs
const Banner = `
  ╔═══════════════════════════════════════════╗
  ║  twscraper · timeline history collector   ║
  ╚═══════════════════════════════════════════╝
`

var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	quiet  atomic.Bool
	output io.Writer = os.Stdout
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// SetQuietMode suppresses everything but errors
func SetQuietMode(q bool) {
	quiet.Store(q)
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	return quiet.Load()
}

// SetOutput redirects terminal output; nil restores stdout
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	output = w
}

func PrintBanner() {
	if IsQuietMode() {
		return
	}
	fmt.Fprint(output, Cyan(Banner))
}

// PrintError prints msg, and the first arg as its cause, in red. Errors are
// shown in quiet mode too.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(output, Red(msg))
}

func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(output, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(output, "%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(output, Yellow(msg))
}

func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(output, Magenta(msg))
}
