package timeline

import (
	"context"
	"fmt"

	"twscraper/pkg/logger"
	"twscraper/pkg/normalize"
)

// Fetcher retrieves one page of an account's timeline, newest first. A nil
// maxID requests the newest page; otherwise only posts with an id less than
// or equal to *maxID are returned.
type Fetcher interface {
	FetchPage(ctx context.Context, handle string, pageSize int, maxID *int64) ([]normalize.RawPost, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface
type FetcherFunc func(ctx context.Context, handle string, pageSize int, maxID *int64) ([]normalize.RawPost, error)

// FetchPage calls f
func (f FetcherFunc) FetchPage(ctx context.Context, handle string, pageSize int, maxID *int64) ([]normalize.RawPost, error) {
	return f(ctx, handle, pageSize, maxID)
}

// Reasons reported when a collection stops
const (
	StopEmptySeed     = "empty_seed"
	StopExhausted     = "exhausted"
	StopMaxIterations = "max_iterations"
	StopNoProgress    = "no_progress"
)

// PageEvent describes one fetched page. Iteration 0 is the newest page.
type PageEvent struct {
	Handle    string
	Iteration int
	Size      int
	Total     int
}

// Collector walks a timeline backwards with max_id cursors
type Collector struct {
	fetcher  Fetcher
	logger   logger.Logger
	progress func(PageEvent)
}

// NewCollector creates a Collector. A nil logger falls back to the global one.
func NewCollector(fetcher Fetcher, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{fetcher: fetcher, logger: log}
}

// CollectAll performs the first, cursor-less fetch and then pages back with
// Collect. It makes at most maxIterations+1 fetch calls.
func (c *Collector) CollectAll(ctx context.Context, handle string, pageSize, maxIterations int) ([]normalize.RawPost, error) {
	first, err := c.fetch(ctx, handle, pageSize, nil)
	if err != nil {
		return nil, err
	}
	logger.LogPage(c.logger, handle, 0, len(first), 0)
	c.report(PageEvent{Handle: handle, Iteration: 0, Size: len(first), Total: len(first)})

	return c.Collect(ctx, handle, pageSize, first, maxIterations)
}

// Collect extends initial, a newest-first page, with older pages until the
// timeline is exhausted or maxIterations further fetches have been made.
// Posts whose id was already collected are dropped. Any fetch failure aborts
// the collection and no partial result is returned.
func (c *Collector) Collect(ctx context.Context, handle string, pageSize int, initial []normalize.RawPost, maxIterations int) ([]normalize.RawPost, error) {
	result := make([]normalize.RawPost, 0, len(initial))
	seen := make(map[int64]struct{}, len(initial))
	c.appendUnique(handle, &result, seen, initial)

	if len(result) == 0 {
		logger.LogCollection(c.logger, handle, 0, 0, StopEmptySeed)
		return result, nil
	}

	cursor, ok := oldestID(initial)
	if !ok {
		logger.LogCollection(c.logger, handle, len(result), 0, StopNoProgress)
		return result, nil
	}
	calls := 0
	reason := StopMaxIterations

	for calls < maxIterations {
		maxID := cursor - 1
		page, err := c.fetch(ctx, handle, pageSize, &maxID)
		calls++
		if err != nil {
			return nil, err
		}
		logger.LogPage(c.logger, handle, calls, len(page), maxID)

		if len(page) == 0 {
			reason = StopExhausted
			break
		}

		c.appendUnique(handle, &result, seen, page)
		c.report(PageEvent{Handle: handle, Iteration: calls, Size: len(page), Total: len(result)})

		oldest, ok := oldestID(page)
		if !ok || oldest >= cursor {
			c.logger.WarnWithFields("Upstream returned no older posts, stopping", map[string]interface{}{
				"handle":    handle,
				"cursor":    cursor,
				"oldest_id": oldest,
				"iteration": calls,
			})
			reason = StopNoProgress
			break
		}
		cursor = oldest
	}

	logger.LogCollection(c.logger, handle, len(result), calls, reason)
	return result, nil
}

// OnPage registers a callback run after every non-empty page
func (c *Collector) OnPage(fn func(PageEvent)) {
	c.progress = fn
}

func (c *Collector) report(ev PageEvent) {
	if c.progress != nil && ev.Size > 0 {
		c.progress(ev)
	}
}

func (c *Collector) fetch(ctx context.Context, handle string, pageSize int, maxID *int64) ([]normalize.RawPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := c.fetcher.FetchPage(ctx, handle, pageSize, maxID)
	if err != nil {
		if maxID == nil {
			return nil, fmt.Errorf("failed to fetch newest page for %s: %w", handle, err)
		}
		return nil, fmt.Errorf("failed to fetch page for %s below id %d: %w", handle, *maxID+1, err)
	}
	return page, nil
}

func (c *Collector) appendUnique(handle string, result *[]normalize.RawPost, seen map[int64]struct{}, page []normalize.RawPost) {
	for _, post := range page {
		if post == nil {
			*result = append(*result, post)
			continue
		}
		id := post.PostID()
		if _, dup := seen[id]; dup {
			c.logger.DebugWithFields("Skipping duplicate post", map[string]interface{}{
				"handle":  handle,
				"post_id": id,
			})
			continue
		}
		seen[id] = struct{}{}
		*result = append(*result, post)
	}
}

// oldestID returns the id of the last non-nil post of a newest-first page
func oldestID(page []normalize.RawPost) (int64, bool) {
	for i := len(page) - 1; i >= 0; i-- {
		if page[i] != nil {
			return page[i].PostID(), true
		}
	}
	return 0, false
}
