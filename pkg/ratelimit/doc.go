// Package ratelimit keeps timeline requests inside the upstream request
// budget.
//
// Two algorithms are available. SlidingWindow allows at most N requests in
// any window of the configured length and is the default, set to 900
// requests per 15 minutes. TokenBucket refills to full capacity once per
// period. Unlimited disables limiting.
//
// All limiters implement Limiter:
//   - Allow() bool - record a request if one is allowed now
//   - Wait(ctx) error - block until allowed or ctx is done
//   - Delay() time.Duration - time until the next request is allowed
//   - Reset() - clear the limiter state
//
// Usage:
//
//	limiter, err := ratelimit.New(cfg.RateLimit)
//	if err != nil {
//		return err
//	}
//	if !limiter.Allow() {
//		if err := limiter.Wait(ctx); err != nil {
//			return err
//		}
//	}
package ratelimit
