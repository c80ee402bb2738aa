package scraper

import (
	"context"

	"twscraper/pkg/config"
	"twscraper/pkg/normalize"
	"twscraper/pkg/sink"
)

// Fetcher is the upstream page source; *twitter.Client implements it
type Fetcher interface {
	FetchPage(ctx context.Context, handle string, pageSize int, maxID *int64) ([]normalize.RawPost, error)
}

// SinkOpener returns the destination for a run and its closer
type SinkOpener func(ctx context.Context, cfg *config.Config) (sink.Sink, func() error, error)
