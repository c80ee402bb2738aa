// Package sink persists normalized post collections.
//
// CSVFile writes one header row and one row per post with the columns
// id, full_text, hashtags, urls, created_at, favorite_count, retweet_count
// and source. List columns use the bracketed form ['a', 'b'], which
// ParseList reads back, and created_at keeps the upstream string. Files
// are written to a temporary name and renamed into place, so a failed run
// never leaves a truncated file behind.
//
// Dict is the in-memory dictionary form keyed by post id, exportable as
// JSON through DictFile. SQLiteStore upserts posts into a local database.
package sink
