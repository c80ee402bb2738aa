package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"twscraper/pkg/normalize"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	id             INTEGER PRIMARY KEY,
	handle         TEXT NOT NULL,
	full_text      TEXT NOT NULL,
	hashtags       TEXT NOT NULL,
	urls           TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	favorite_count INTEGER NOT NULL,
	retweet_count  INTEGER NOT NULL,
	source         TEXT NOT NULL,
	collected_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_handle_created ON posts(handle, created_at);
`

// SQLiteStore keeps collected posts in a SQLite database. Re-collecting an
// account updates rows in place.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Location implements Sink
func (s *SQLiteStore) Location() string { return s.path }

// Write implements Sink. All posts are upserted in one transaction.
func (s *SQLiteStore) Write(ctx context.Context, handle string, posts []normalize.Post) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (
			id, handle, full_text, hashtags, urls, created_at, favorite_count, retweet_count, source, collected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			handle = excluded.handle,
			full_text = excluded.full_text,
			hashtags = excluded.hashtags,
			urls = excluded.urls,
			created_at = excluded.created_at,
			favorite_count = excluded.favorite_count,
			retweet_count = excluded.retweet_count,
			source = excluded.source,
			collected_at = excluded.collected_at
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	collectedAt := formatTime(s.now())
	for _, p := range posts {
		hashtags, err := json.Marshal(nonNil(p.Hashtags))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode hashtags of %d: %w", p.ID, err)
		}
		urls, err := json.Marshal(nonNil(p.URLs))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode urls of %d: %w", p.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			p.ID,
			handle,
			p.Text,
			string(hashtags),
			string(urls),
			formatTime(p.CreatedAt),
			p.FavoriteCount,
			p.RetweetCount,
			p.Source,
			collectedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert post %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count returns the number of stored posts for handle
func (s *SQLiteStore) Count(ctx context.Context, handle string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE handle = ?", handle).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// Dict loads the posts of handle, newest first, in dictionary form
func (s *SQLiteStore) Dict(ctx context.Context, handle string) (*Dict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_text, hashtags, urls, created_at, favorite_count, retweet_count, source
		FROM posts
		WHERE handle = ?
		ORDER BY id DESC
	`, handle)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	d := NewDict()
	for rows.Next() {
		var (
			id             int64
			hashtags, urls string
			createdAt      string
			entry          Entry
		)
		if err := rows.Scan(&id, &entry.Text, &hashtags, &urls, &createdAt,
			&entry.FavoriteCount, &entry.RetweetCount, &entry.Source); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if err := json.Unmarshal([]byte(hashtags), &entry.Hashtags); err != nil {
			return nil, fmt.Errorf("decode hashtags of %d: %w", id, err)
		}
		if err := json.Unmarshal([]byte(urls), &entry.URLs); err != nil {
			return nil, fmt.Errorf("decode urls of %d: %w", id, err)
		}
		if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of %d: %w", id, err)
		}
		d.Set(strconv.FormatInt(id, 10), entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return d, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
