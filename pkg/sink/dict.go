package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"twscraper/pkg/normalize"
)

// Entry is the dictionary value for one post
type Entry struct {
	Text          string    `json:"full_text"`
	Hashtags      []string  `json:"hashtags"`
	URLs          []string  `json:"urls"`
	CreatedAt     time.Time `json:"created_at"`
	FavoriteCount int       `json:"favorite_count"`
	RetweetCount  int       `json:"retweet_count"`
	Source        string    `json:"source"`
}

// Dict maps post ids, as decimal strings, to entries and remembers the
// order ids were first added
type Dict struct {
	keys    []string
	entries map[string]Entry
}

// NewDict creates an empty dictionary
func NewDict() *Dict {
	return &Dict{entries: make(map[string]Entry)}
}

// ToDict builds the dictionary form of a post collection
func ToDict(posts []normalize.Post) *Dict {
	d := NewDict()
	for _, p := range posts {
		d.Add(p)
	}
	return d
}

// Add stores a post under its id. A repeated id replaces the entry and
// keeps its original position.
func (d *Dict) Add(p normalize.Post) {
	d.Set(strconv.FormatInt(p.ID, 10), Entry{
		Text:          p.Text,
		Hashtags:      copyStrings(p.Hashtags),
		URLs:          copyStrings(p.URLs),
		CreatedAt:     p.CreatedAt,
		FavoriteCount: p.FavoriteCount,
		RetweetCount:  p.RetweetCount,
		Source:        p.Source,
	})
}

// Set stores an entry under id
func (d *Dict) Set(id string, e Entry) {
	if _, ok := d.entries[id]; !ok {
		d.keys = append(d.keys, id)
	}
	d.entries[id] = e
}

// Get returns the entry for id
func (d *Dict) Get(id string) (Entry, bool) {
	e, ok := d.entries[id]
	return e, ok
}

// Keys returns the ids in insertion order
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Len returns the number of entries
func (d *Dict) Len() int {
	return len(d.keys)
}

// MarshalJSON encodes the dictionary as a JSON object in insertion order
func (d *Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(d.entries[id])
		if err != nil {
			return nil, fmt.Errorf("failed to encode entry %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes the dictionary as indented JSON
func (d *Dict) WriteJSON(w io.Writer) error {
	data, err := d.MarshalJSON()
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("failed to indent JSON: %w", err)
	}
	out.WriteByte('\n')

	_, err = out.WriteTo(w)
	return err
}

// SaveJSON writes the dictionary to path through a temporary file
func (d *Dict) SaveJSON(path string) error {
	return writeAtomic(path, d.WriteJSON)
}

// DictFile writes collections as a JSON dictionary file
type DictFile struct {
	Path string
}

// Write implements Sink
func (s *DictFile) Write(ctx context.Context, handle string, posts []normalize.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ToDict(posts).SaveJSON(s.Path)
}

// Location implements Sink
func (s *DictFile) Location() string { return s.Path }

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// writeAtomic streams content into path.tmp and renames it over path only
// once everything was written and the file closed cleanly
func writeAtomic(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	err = write(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
