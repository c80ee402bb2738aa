package normalize

import "time"

// RawPost is the minimal view of an upstream post record that normalization
// depends on. API client types implement it; tests use hand-built fixtures.
type RawPost interface {
	PostID() int64
	Body() string
	CreatedAtRaw() string
	Reposts() int
	Likes() int
	SourceMarkup() string
	Hashtags() []Hashtag
	Links() []Link
}

// Hashtag is one hashtag entity of a raw post
type Hashtag interface {
	Tag() string
}

// Link is one URL entity of a raw post
type Link interface {
	Expanded() string
}

// Post is the flat, read-only record produced for every raw post
type Post struct {
	ID            int64     `json:"id"`
	Text          string    `json:"full_text"`
	Hashtags      []string  `json:"hashtags"`
	URLs          []string  `json:"urls"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedAtRaw  string    `json:"-"`
	FavoriteCount int       `json:"favorite_count"`
	RetweetCount  int       `json:"retweet_count"`
	Source        string    `json:"source"`
}
