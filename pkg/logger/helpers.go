package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information
func LogRequest(log Logger, method, url string, statusCode int, durationMs int64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		log.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		log.WarnWithFields("HTTP request client error", fields)
	default:
		log.DebugWithFields("HTTP request completed", fields)
	}
}

// LogPage logs one fetched timeline page
func LogPage(log Logger, handle string, iteration, size int, cursor int64) {
	log.DebugWithFields("Timeline page fetched", map[string]interface{}{
		"handle":    handle,
		"iteration": iteration,
		"page_size": size,
		"cursor":    cursor,
	})
}

// LogCollection logs the outcome of a full collection
func LogCollection(log Logger, handle string, posts, calls int, reason string) {
	log.InfoWithFields("Timeline collection finished", map[string]interface{}{
		"handle": handle,
		"posts":  posts,
		"calls":  calls,
		"reason": reason,
	})
}

// LogRateLimit logs rate limiting events
func LogRateLimit(log Logger, endpoint string, waitMs int64) {
	log.WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"wait_ms":  waitMs,
		"action":   "rate_limited",
	}).Warn("Rate limit reached, waiting for window")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
