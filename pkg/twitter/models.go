package twitter

import "twscraper/pkg/normalize"

// Tweet is one status object of the v1.1 user timeline, requested with
// tweet_mode=extended
type Tweet struct {
	ID            int64    `json:"id"`
	IDStr         string   `json:"id_str"`
	FullText      string   `json:"full_text"`
	Text          string   `json:"text"`
	CreatedAt     string   `json:"created_at"`
	RetweetCount  int      `json:"retweet_count"`
	FavoriteCount int      `json:"favorite_count"`
	Source        string   `json:"source"`
	Truncated     bool     `json:"truncated"`
	Lang          string   `json:"lang"`
	Entities      Entities `json:"entities"`
	User          *User    `json:"user,omitempty"`
}

// Entities holds the parsed entities of a tweet
type Entities struct {
	Hashtags []*HashtagEntity `json:"hashtags"`
	URLs     []*URLEntity     `json:"urls"`
}

// HashtagEntity is one hashtag, without the leading '#'
type HashtagEntity struct {
	Text    string `json:"text"`
	Indices []int  `json:"indices"`
}

// URLEntity is one link; URL is the t.co wrapper
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
	Indices     []int  `json:"indices"`
}

// User is the author summary embedded in every tweet
type User struct {
	ID         int64  `json:"id"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

// APIError is one entry of an error response body
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body the API sends with non-2xx statuses
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
	Error  string     `json:"error"`
}

// Message joins the messages of an error body
func (r ErrorResponse) Message() string {
	if r.Error != "" {
		return r.Error
	}
	if len(r.Errors) == 0 {
		return ""
	}
	msg := r.Errors[0].Message
	for _, e := range r.Errors[1:] {
		msg += "; " + e.Message
	}
	return msg
}

func (t Tweet) PostID() int64        { return t.ID }
func (t Tweet) CreatedAtRaw() string { return t.CreatedAt }
func (t Tweet) Reposts() int         { return t.RetweetCount }
func (t Tweet) Likes() int           { return t.FavoriteCount }
func (t Tweet) SourceMarkup() string { return t.Source }

// Body returns the untruncated text, falling back to the compat field
func (t Tweet) Body() string {
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

// Hashtags exposes the hashtag entities. A null entry in the payload comes
// through as a nil element so normalization can reject it.
func (t Tweet) Hashtags() []normalize.Hashtag {
	out := make([]normalize.Hashtag, len(t.Entities.Hashtags))
	for i, h := range t.Entities.Hashtags {
		if h != nil {
			out[i] = h
		}
	}
	return out
}

// Links exposes the URL entities, with null entries kept as nil
func (t Tweet) Links() []normalize.Link {
	out := make([]normalize.Link, len(t.Entities.URLs))
	for i, u := range t.Entities.URLs {
		if u != nil {
			out[i] = u
		}
	}
	return out
}

func (h *HashtagEntity) Tag() string { return h.Text }

func (u *URLEntity) Expanded() string { return u.ExpandedURL }

// RawPosts converts decoded tweets to the form the collector consumes
func RawPosts(tweets []Tweet) []normalize.RawPost {
	posts := make([]normalize.RawPost, len(tweets))
	for i := range tweets {
		posts[i] = tweets[i]
	}
	return posts
}
