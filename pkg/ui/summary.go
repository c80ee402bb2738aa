package ui

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Summary is what a finished collection reports to the terminal
type Summary struct {
	Handle   string
	Posts    int
	Skipped  int
	Location string
	Duration time.Duration
}

// PrintSummary prints the outcome of a collection
func PrintSummary(s Summary) {
	PrintSuccess("\n[COLLECTION COMPLETE]")
	PrintInfo("Account", "@"+s.Handle)
	PrintInfo("Posts", humanize.Comma(int64(s.Posts)))
	if s.Skipped > 0 {
		PrintWarning("Skipped malformed posts", s.Skipped)
	}
	PrintInfo("Saved to", s.Location)
	PrintInfo("Took", s.Duration.Round(time.Millisecond).String())
}
