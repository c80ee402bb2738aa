package normalize

import (
	"fmt"

	errs "twscraper/pkg/errors"
	"twscraper/pkg/logger"
)

// Normalize maps one raw post to its flat form. It has no side effects and
// fails with a malformed_input or parse error when the record is unusable.
func Normalize(raw RawPost) (Post, error) {
	if raw == nil {
		return Post{}, errs.MalformedInput("nil post record")
	}

	id := raw.PostID()
	if id <= 0 {
		return Post{}, errs.MalformedInput("post has no id")
	}

	createdRaw := raw.CreatedAtRaw()
	if createdRaw == "" {
		return Post{}, errs.MalformedInput("post %d has no created_at", id)
	}
	createdAt, err := ParseTimestamp(createdRaw)
	if err != nil {
		return Post{}, fmt.Errorf("post %d: %w", id, err)
	}

	favorites, reposts := raw.Likes(), raw.Reposts()
	if favorites < 0 || reposts < 0 {
		return Post{}, errs.MalformedInput("post %d has negative engagement counts", id)
	}

	hashtags, err := CleanHashtags(raw.Hashtags())
	if err != nil {
		return Post{}, fmt.Errorf("post %d: %w", id, err)
	}
	urls, err := CleanURLs(raw.Links())
	if err != nil {
		return Post{}, fmt.Errorf("post %d: %w", id, err)
	}

	return Post{
		ID:            id,
		Text:          raw.Body(),
		Hashtags:      hashtags,
		URLs:          urls,
		CreatedAt:     createdAt,
		CreatedAtRaw:  createdRaw,
		FavoriteCount: favorites,
		RetweetCount:  reposts,
		Source:        CleanSource(raw.SourceMarkup()),
	}, nil
}

// CleanHashtags returns the tag text of each entry in order. The result is
// never nil.
func CleanHashtags(tags []Hashtag) ([]string, error) {
	out := make([]string, 0, len(tags))
	for i, tag := range tags {
		if tag == nil {
			return nil, errs.MalformedInput("hashtag entry %d is empty", i)
		}
		out = append(out, tag.Tag())
	}
	return out, nil
}

// CleanURLs returns the expanded URL of each entry in order. The result is
// never nil.
func CleanURLs(links []Link) ([]string, error) {
	out := make([]string, 0, len(links))
	for i, link := range links {
		if link == nil {
			return nil, errs.MalformedInput("url entry %d is empty", i)
		}
		out = append(out, link.Expanded())
	}
	return out, nil
}

// All normalizes a collection in order and stops at the first bad record
func All(raws []RawPost) ([]Post, error) {
	posts := make([]Post, 0, len(raws))
	for _, raw := range raws {
		post, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// AllSkipping normalizes a collection, logging and skipping bad records
// instead of failing. It returns the posts kept and the number skipped.
func AllSkipping(raws []RawPost, log logger.Logger) ([]Post, int) {
	posts := make([]Post, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		post, err := Normalize(raw)
		if err != nil {
			skipped++
			log.WithError(err).WarnWithFields("Skipping malformed post", map[string]interface{}{
				"index":      i,
				"error_type": string(errs.TypeOf(err)),
			})
			continue
		}
		posts = append(posts, post)
	}
	return posts, skipped
}
