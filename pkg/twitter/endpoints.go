package twitter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"twscraper/pkg/config"
)

const (
	// BaseURL is the default API host
	BaseURL = "https://api.twitter.com"

	// WebURL is the public site, used for profile and status links
	WebURL = "https://twitter.com"

	// UserTimelineEndpoint returns the most recent posts of one account
	UserTimelineEndpoint = "/1.1/statuses/user_timeline.json"

	// MaxHandleLength is the longest screen name the platform accepts
	MaxHandleLength = 15
)

// ClampPageSize bounds a requested page size to what the endpoint serves
func ClampPageSize(pageSize int) int {
	switch {
	case pageSize < 1:
		return 1
	case pageSize > config.MaxPageSize:
		return config.MaxPageSize
	default:
		return pageSize
	}
}

// UserTimelineURL builds a user_timeline request. A nil maxID requests the
// newest page.
func UserTimelineURL(baseURL, handle string, pageSize int, maxID *int64) string {
	params := url.Values{}
	params.Set("screen_name", handle)
	params.Set("count", strconv.Itoa(ClampPageSize(pageSize)))
	params.Set("tweet_mode", "extended")
	params.Set("include_rts", "true")
	if maxID != nil {
		params.Set("max_id", strconv.FormatInt(*maxID, 10))
	}

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), UserTimelineEndpoint, params.Encode())
}

// ProfileURL returns the public profile URL of an account
func ProfileURL(handle string) string {
	if handle == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", WebURL, handle)
}

// StatusURL returns the public URL of one post
func StatusURL(handle string, id int64) string {
	if handle == "" || id <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/%s/status/%d", WebURL, handle, id)
}

// IsValidHandle checks a screen name: 1 to 15 letters, digits or underscores
func IsValidHandle(handle string) bool {
	if handle == "" || len(handle) > MaxHandleLength {
		return false
	}

	for _, char := range handle {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}
	return true
}

// SanitizeHandle strips a leading '@', a profile URL prefix and trailing
// slashes or spaces
func SanitizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	for _, prefix := range []string{"https://twitter.com/", "https://x.com/", "twitter.com/", "x.com/"} {
		handle = strings.TrimPrefix(handle, prefix)
	}
	handle = strings.TrimPrefix(handle, "@")
	return strings.TrimRight(handle, "/ ")
}
