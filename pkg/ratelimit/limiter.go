package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"twscraper/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now and, if so, records it
	Allow() bool
	// Wait blocks until a request is allowed or ctx is done
	Wait(ctx context.Context) error
	// Delay returns how long until the next request would be allowed
	Delay() time.Duration
	// Reset resets the rate limiter state
	Reset()
}

// New builds the limiter selected by the rate limit configuration
func New(cfg config.RateLimitConfig) (Limiter, error) {
	switch strings.ToLower(cfg.Strategy) {
	case config.RateLimitNone:
		return Unlimited{}, nil
	case config.RateLimitBucket:
		if cfg.Requests <= 0 || cfg.Window <= 0 {
			return nil, fmt.Errorf("token bucket needs positive requests and window, got %d per %s", cfg.Requests, cfg.Window)
		}
		return NewTokenBucket(cfg.Requests, cfg.Window), nil
	case config.RateLimitSliding, "":
		if cfg.Requests <= 0 || cfg.Window <= 0 {
			return nil, fmt.Errorf("sliding window needs positive requests and window, got %d per %s", cfg.Requests, cfg.Window)
		}
		return NewSlidingWindow(cfg.Requests, cfg.Window), nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", cfg.Strategy)
	}
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Delay returns the time left until the bucket refills, or zero when a
// token is available
func (tb *TokenBucket) Delay() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.refill(now)
	if tb.tokens > 0 {
		return 0
	}
	return tb.refillPeriod - now.Sub(tb.lastRefill)
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return wait(ctx, tb)
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

func (tb *TokenBucket) refill(now time.Time) {
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// SlidingWindow allows at most maxRequests within any windowSize span. It
// matches the per-15-minute request budget of the timeline endpoint.
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}
	return false
}

// Delay returns the time until the oldest request leaves the window, or
// zero when there is room
func (sw *SlidingWindow) Delay() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)
	if len(sw.requests) < sw.maxRequests {
		return 0
	}
	return sw.windowSize - now.Sub(sw.requests[0])
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	return wait(ctx, sw)
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Delay() time.Duration           { return 0 }
func (Unlimited) Reset()                         {}

func wait(ctx context.Context, l Limiter) error {
	for !l.Allow() {
		delay := l.Delay()
		if delay <= 0 {
			// Small sleep to prevent busy waiting
			delay = 10 * time.Millisecond
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return nil
}
