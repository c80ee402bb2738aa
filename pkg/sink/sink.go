package sink

import (
	"context"
	"fmt"

	"twscraper/pkg/config"
	"twscraper/pkg/normalize"
)

// Sink persists one normalized collection
type Sink interface {
	Write(ctx context.Context, handle string, posts []normalize.Post) error
	// Location describes where the posts went, for user-facing messages
	Location() string
}

// Open returns the sink selected by the output format. Callers must Close
// the returned closer, which is a no-op for file sinks.
func Open(ctx context.Context, cfg *config.Config) (Sink, func() error, error) {
	path := cfg.OutputPath()

	switch cfg.Output.Format {
	case config.FormatCSV, "":
		return &CSVFile{Path: path}, noopClose, nil
	case config.FormatDict:
		return &DictFile{Path: path}, noopClose, nil
	case config.FormatSQLite:
		store, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown output format %q", cfg.Output.Format)
	}
}

func noopClose() error { return nil }
