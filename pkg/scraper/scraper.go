package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"twscraper/pkg/config"
	"twscraper/pkg/logger"
	"twscraper/pkg/normalize"
	"twscraper/pkg/sink"
	"twscraper/pkg/timeline"
	"twscraper/pkg/twitter"
)

// Result summarizes one run
type Result struct {
	Handle string
	Posts  []normalize.Post
	// Fetched counts unique raw posts, Skipped the malformed ones dropped
	Fetched  int
	Skipped  int
	Location string
	Started  time.Time
	Finished time.Time
}

// Duration returns the wall time of the run
func (r *Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Scraper collects one account's history and writes it out
type Scraper struct {
	fetcher  Fetcher
	openSink SinkOpener
	progress func(timeline.PageEvent)
	config   *config.Config
	logger   logger.Logger
}

// New creates a Scraper backed by the timeline API client
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	client, err := twitter.NewClient(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to create API client")
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return NewWithFetcher(cfg, client, log), nil
}

// NewWithFetcher creates a Scraper over any page source
func NewWithFetcher(cfg *config.Config, fetcher Fetcher, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		fetcher:  fetcher,
		openSink: sink.Open,
		config:   cfg,
		logger:   log,
	}
}

// SetSinkOpener replaces the sink chosen from the output configuration
func (s *Scraper) SetSinkOpener(open SinkOpener) {
	s.openSink = open
}

// OnPage registers a callback run after every fetched page
func (s *Scraper) OnPage(fn func(timeline.PageEvent)) {
	s.progress = fn
}

// Collect fetches and normalizes the full history of handle. An empty handle
// falls back to the configured account.
func (s *Scraper) Collect(ctx context.Context, handle string) (*Result, error) {
	handle = s.resolveHandle(handle)
	if handle == "" {
		return nil, errors.New("account handle is required")
	}

	result := &Result{Handle: handle, Started: time.Now()}
	s.logger.InfoWithFields("Starting timeline collection", map[string]interface{}{
		"handle":         handle,
		"page_size":      s.config.Account.PageSize,
		"max_iterations": s.config.Account.MaxIterations,
		"profile":        twitter.ProfileURL(handle),
		"action":         "collect_start",
	})

	collector := timeline.NewCollector(s.fetcher, s.logger)
	collector.OnPage(s.progress)
	raws, err := collector.CollectAll(ctx, handle, s.config.Account.PageSize, s.config.Account.MaxIterations)
	if err != nil {
		s.logger.WithError(err).WithField("handle", handle).Error("Timeline collection failed")
		return nil, err
	}
	result.Fetched = len(raws)

	if s.config.Output.SkipMalformed {
		result.Posts, result.Skipped = normalize.AllSkipping(raws, s.logger)
	} else {
		result.Posts, err = normalize.All(raws)
		if err != nil {
			s.logger.WithError(err).WithField("handle", handle).Error("Failed to normalize posts")
			return nil, fmt.Errorf("failed to normalize posts for %s: %w", handle, err)
		}
	}

	result.Finished = time.Now()
	return result, nil
}

// Dict collects handle and returns the posts keyed by id
func (s *Scraper) Dict(ctx context.Context, handle string) (*sink.Dict, error) {
	result, err := s.Collect(ctx, handle)
	if err != nil {
		return nil, err
	}
	return sink.ToDict(result.Posts), nil
}

// Run collects handle and writes the posts to the configured sink. Nothing
// is written when collection fails.
func (s *Scraper) Run(ctx context.Context, handle string) (*Result, error) {
	result, err := s.Collect(ctx, handle)
	if err != nil {
		return nil, err
	}

	cfg := *s.config
	cfg.Account.Handle = result.Handle

	out, closeSink, err := s.openSink(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	result.Location = out.Location()

	writeErr := out.Write(ctx, result.Handle, result.Posts)
	closeErr := closeSink()
	if writeErr != nil {
		s.logger.WithError(writeErr).WithField("location", result.Location).Error("Failed to write posts")
		return nil, fmt.Errorf("failed to write posts to %s: %w", result.Location, writeErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close %s: %w", result.Location, closeErr)
	}

	result.Finished = time.Now()
	fields := map[string]interface{}{
		"handle":      result.Handle,
		"posts":       len(result.Posts),
		"skipped":     result.Skipped,
		"location":    result.Location,
		"format":      cfg.Output.Format,
		"duration_ms": result.Duration().Milliseconds(),
	}
	if n := len(result.Posts); n > 0 {
		fields["newest"] = twitter.StatusURL(result.Handle, result.Posts[0].ID)
		fields["oldest"] = twitter.StatusURL(result.Handle, result.Posts[n-1].ID)
	}
	s.logger.InfoWithFields("Posts saved", fields)
	return result, nil
}

func (s *Scraper) resolveHandle(handle string) string {
	if handle == "" {
		handle = s.config.Account.Handle
	}
	return twitter.SanitizeHandle(handle)
}
