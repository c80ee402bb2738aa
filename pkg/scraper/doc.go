// Package scraper runs one collection of an account's post history.
//
// A run fetches the newest page, walks older pages with the timeline
// collector, normalizes every raw post and hands the result to the sink
// selected by the output configuration:
//
//	cfg, _ := config.Load("", nil)
//	s, err := scraper.New(cfg, logger.GetLogger())
//	if err != nil {
//		return err
//	}
//	result, err := s.Run(ctx, "NASA")
//
// Normalization is fatal on the first malformed record unless
// output.skip_malformed is set, in which case bad records are logged and
// counted in Result.Skipped.
package scraper
