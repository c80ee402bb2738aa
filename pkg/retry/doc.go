// Package retry retries page fetches that fail for transient reasons.
//
// Transport errors, rate limit responses and server errors are retried
// with exponential backoff. The backoff is chosen per error type, so a 429
// waits far longer than a dropped connection. Auth, not found, parse and
// malformed input errors are returned at once.
//
// Basic usage:
//
//	cfg := retry.FromConfig(appConfig.Retry, log)
//	page, err := retry.DoWithResult(ctx, cfg, func(ctx context.Context) ([]Tweet, error) {
//		return client.fetchOnce(ctx, url)
//	})
package retry
