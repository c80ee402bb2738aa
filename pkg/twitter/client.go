package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"twscraper/pkg/config"
	errs "twscraper/pkg/errors"
	"twscraper/pkg/logger"
	"twscraper/pkg/normalize"
	"twscraper/pkg/ratelimit"
	"twscraper/pkg/retry"
)

// Client fetches user timelines from the v1.1 REST API
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	baseURL     string
	bearerToken string
	limiter     ratelimit.Limiter
	retry       *retry.Config
	logger      logger.Logger
}

// NewClient creates a client from explicit configuration. The bearer token
// must already be resolved; the client never reads the environment.
func NewClient(cfg *config.Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg.API.BearerToken == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "bearer token is required")
	}

	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if cfg.API.UserAgent != "" {
		headers["User-Agent"] = cfg.API.UserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.API.Timeout,
		},
		headers:     headers,
		baseURL:     baseURL,
		bearerToken: cfg.API.BearerToken,
		limiter:     limiter,
		retry:       retry.FromConfig(cfg.Retry, log),
		logger:      log,
	}, nil
}

// SetHTTPClient replaces the underlying HTTP client, e.g. one that trusts a
// private CA
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// FetchPage implements timeline.Fetcher
func (c *Client) FetchPage(ctx context.Context, handle string, pageSize int, maxID *int64) ([]normalize.RawPost, error) {
	tweets, err := c.FetchTimeline(ctx, handle, pageSize, maxID)
	if err != nil {
		return nil, err
	}
	return RawPosts(tweets), nil
}

// FetchTimeline fetches one newest-first page of an account's posts, with
// rate limiting and retries of transient failures
func (c *Client) FetchTimeline(ctx context.Context, handle string, pageSize int, maxID *int64) ([]Tweet, error) {
	handle = SanitizeHandle(handle)
	if !IsValidHandle(handle) {
		return nil, errs.MalformedInput("invalid handle %q", handle)
	}

	url := UserTimelineURL(c.baseURL, handle, pageSize, maxID)

	c.logger.DebugWithFields("fetching user timeline", map[string]interface{}{
		"handle":    handle,
		"page_size": ClampPageSize(pageSize),
		"max_id":    maxIDField(maxID),
	})

	tweets, err := retry.DoWithResult(ctx, c.retry, func(ctx context.Context) ([]Tweet, error) {
		if err := c.waitForSlot(ctx); err != nil {
			return nil, err
		}
		var page []Tweet
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		return page, nil
	})
	if err != nil {
		c.logger.WithError(err).ErrorWithFields("failed to fetch user timeline", map[string]interface{}{
			"handle": handle,
			"max_id": maxIDField(maxID),
		})
		return nil, err
	}

	return tweets, nil
}

func (c *Client) waitForSlot(ctx context.Context) error {
	if c.limiter.Allow() {
		return nil
	}
	logger.LogRateLimit(c.logger, UserTimelineEndpoint, c.limiter.Delay().Milliseconds())
	return c.limiter.Wait(ctx)
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL.String(),
			"error":       err.Error(),
			"duration_ms": duration.Milliseconds(),
		})
		return nil, errs.Transport(err, "network error: %v", err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration.Milliseconds())
	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Transport(err, "failed to read response body: %v", err)
	}

	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview(body),
		})
		return errs.Parse(err, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps HTTP statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := http.StatusText(resp.StatusCode)
	var apiErr ErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message() != "" {
		message = apiErr.Message()
	}

	fields := map[string]interface{}{
		"status":  resp.StatusCode,
		"url":     resp.Request.URL.String(),
		"message": message,
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode, "not authorized: %s", message)
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "account not found: %s", message)
	case resp.StatusCode == http.StatusTooManyRequests:
		if reset := resp.Header.Get("x-rate-limit-reset"); reset != "" {
			if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
				fields["reset_at"] = time.Unix(epoch, 0).UTC().Format(time.RFC3339)
			}
		}
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded: %s", message)
	case errs.IsRetryableStatusCode(resp.StatusCode):
		c.logger.ErrorWithFields("server error", fields)
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "server error: %s", message)
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, "unexpected status code %d: %s", resp.StatusCode, message)
	}
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

func maxIDField(maxID *int64) interface{} {
	if maxID == nil {
		return nil
	}
	return *maxID
}
