package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twscraper/pkg/config"
	errs "twscraper/pkg/errors"
	"twscraper/pkg/logger"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Logger:      logger.NewNopLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{0, 0, "No attempt"},
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			assert.Equal(t, test.expected, backoff.NextDelay(test.attempt, nil))
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2, nil)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
		delays[delay] = true
	}
	assert.Greater(t, len(delays), 1, "jitter should vary the delay")
}

func TestErrorTypeBackoff(t *testing.T) {
	etb := NewErrorTypeBackoff(time.Second, time.Minute)

	transport, ok := etb.For(errs.ErrorTypeTransport).(*ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, time.Second, transport.BaseDelay)

	rateLimit, ok := etb.For(errs.ErrorTypeRateLimit).(*ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, rateLimit.BaseDelay)

	server, ok := etb.For(errs.ErrorTypeServerError).(*ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, server.BaseDelay)

	assert.Same(t, etb.DefaultBackoff, etb.For(errs.ErrorTypeUnknown))

	// NextDelay picks the strategy from the error itself
	rateLimitErr := errs.New(errs.ErrorTypeRateLimit, 429, "slow down")
	assert.GreaterOrEqual(t, etb.NextDelay(1, rateLimitErr), 21*time.Second)
	assert.LessOrEqual(t, etb.NextDelay(1, errors.New("plain")), 1100*time.Millisecond)
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	cause := errs.Transport(errors.New("reset"), "connection reset")
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		attempts++
		return cause
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, cause)
	assert.True(t, errs.IsType(err, errs.ErrorTypeTransport))
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := errs.New(errs.ErrorTypeAuth, 401, "authentication required")

	cfg := fastConfig(5)
	cfg.RetryIf = DefaultRetryIf

	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return authError
	})

	assert.Equal(t, authError, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	cfg := fastConfig(5)
	cfg.Backoff = &ConstantBackoff{Delay: time.Second}

	err := Do(ctx, cfg, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("error")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestOnRetryCallback(t *testing.T) {
	var seen []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		seen = append(seen, attempt)
	}

	_ = Do(context.Background(), cfg, func(ctx context.Context) error {
		return errors.New("always")
	})

	// no wait after the final attempt
	assert.Equal(t, []int{1, 2}, seen)
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transport", errs.Transport(nil, "dial"), true},
		{"rate limit", errs.New(errs.ErrorTypeRateLimit, 429, "slow"), true},
		{"server", errs.New(errs.ErrorTypeServerError, 503, "down"), true},
		{"auth", errs.New(errs.ErrorTypeAuth, 401, "token"), false},
		{"not found", errs.New(errs.ErrorTypeNotFound, 404, "gone"), false},
		{"parse", errs.Parse(nil, "json"), false},
		{"canceled", context.Canceled, false},
		{"unclassified", errors.New("??"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryIf(tt.err))
		})
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), fastConfig(3), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.RetryConfig{MaxAttempts: 0, BaseDelay: time.Millisecond, MaxDelay: time.Second}, nil)

	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.IsType(t, &ErrorTypeBackoff{}, cfg.Backoff)
	assert.NotNil(t, cfg.Logger)
}
